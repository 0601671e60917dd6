package handlers

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/Dosada05/team-roster/services"
	"github.com/Dosada05/team-roster/storage"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"
)

const (
	maxImageKilobytes = 2048
	maxImageBytes     = maxImageKilobytes * 1024
	maxRequestBytes   = 3 * maxImageBytes
	multipartMemory   = maxImageBytes + 1<<20
)

var errMalformedForm = errors.New("the request body could not be parsed")

// parseRequestForm accepts multipart and urlencoded bodies.
func parseRequestForm(w http.ResponseWriter, r *http.Request) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBytes)
	err := r.ParseMultipartForm(multipartMemory)
	if errors.Is(err, http.ErrNotMultipart) {
		err = r.ParseForm()
	}
	if err != nil {
		var maxBytesError *http.MaxBytesError
		if errors.As(err, &maxBytesError) {
			return fmt.Errorf("request body must not be larger than %d bytes", maxRequestBytes)
		}
		return errMalformedForm
	}
	return nil
}

// imageFromRequest reads and checks the uploaded image in field. Rule
// violations go to verr; a nil file with nil error means the field was absent
// (or invalid, see verr).
func imageFromRequest(r *http.Request, field string, required bool, verr *services.ValidationError) (*storage.File, error) {
	label := strings.ReplaceAll(field, "_", " ")

	file, header, err := r.FormFile(field)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
			if required {
				verr.Add(field, "The "+label+" field is required.")
			}
			return nil, nil
		}
		return nil, fmt.Errorf("failed to open uploaded %s: %w", field, err)
	}
	defer file.Close()

	if header.Size > maxImageBytes {
		verr.Add(field, tooLargeMessage(label))
		return nil, nil
	}

	data, err := readUpload(file)
	if err != nil {
		return nil, fmt.Errorf("failed to read uploaded %s: %w", field, err)
	}
	if len(data) > maxImageBytes {
		verr.Add(field, tooLargeMessage(label))
		return nil, nil
	}

	_, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		verr.Add(field, "The "+label+" field must be an image.")
		return nil, nil
	}

	ext, err := storage.ExtensionForFormat(format)
	if err != nil {
		verr.Add(field, "The "+label+" field must be an image.")
		return nil, nil
	}
	return &storage.File{
		Reader:      bytes.NewReader(data),
		Size:        int64(len(data)),
		ContentType: storage.ContentTypeForExtension(ext),
		Extension:   ext,
	}, nil
}

func readUpload(file multipart.File) ([]byte, error) {
	return io.ReadAll(io.LimitReader(file, maxImageBytes+1))
}

func tooLargeMessage(label string) string {
	return "The " + label + " field must not be greater than " + strconv.Itoa(maxImageKilobytes) + " kilobytes."
}
