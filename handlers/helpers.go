package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strconv"
	"strings"

	"github.com/Dosada05/team-roster/middleware"
	"github.com/Dosada05/team-roster/services"
	"github.com/go-chi/chi/v5"
)

type jsonResponse map[string]interface{}

func readJSON(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	maxBytes := 1_048_576 // 1MB
	r.Body = http.MaxBytesReader(w, r.Body, int64(maxBytes))

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	err := dec.Decode(dst)
	if err != nil {
		var syntaxError *json.SyntaxError
		var unmarshalTypeError *json.UnmarshalTypeError
		var maxBytesError *http.MaxBytesError

		switch {
		case errors.As(err, &syntaxError):
			return fmt.Errorf("body contains badly-formed JSON (at character %d)", syntaxError.Offset)
		case errors.Is(err, io.ErrUnexpectedEOF):
			return errors.New("body contains badly-formed JSON")
		case errors.As(err, &unmarshalTypeError):
			if unmarshalTypeError.Field != "" {
				return fmt.Errorf("body contains incorrect JSON type for field %q", unmarshalTypeError.Field)
			}
			return fmt.Errorf("body contains incorrect JSON type (at character %d)", unmarshalTypeError.Offset)
		case errors.Is(err, io.EOF):
			return errors.New("body must not be empty")
		case strings.HasPrefix(err.Error(), "json: unknown field "):
			fieldName := strings.TrimPrefix(err.Error(), "json: unknown field ")
			return fmt.Errorf("body contains unknown key %s", fieldName)
		case errors.As(err, &maxBytesError):
			return fmt.Errorf("body must not be larger than %d bytes", maxBytes)
		default:
			return err
		}
	}

	err = dec.Decode(&struct{}{})
	if !errors.Is(err, io.EOF) {
		return errors.New("body must only contain a single JSON value")
	}

	return nil
}

func writeJSON(w http.ResponseWriter, status int, data interface{}, headers http.Header) error {
	js, err := json.Marshal(data)
	if err != nil {
		return err
	}
	js = append(js, '\n')

	for key, value := range headers {
		w.Header()[key] = value
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, err = w.Write(js)
	return err
}

func errorResponse(w http.ResponseWriter, r *http.Request, status int, message string) {
	writeEnvelope(w, r, status, jsonResponse{"message": message})
}

func writeEnvelope(w http.ResponseWriter, r *http.Request, status int, env jsonResponse) {
	if err := writeJSON(w, status, env, nil); err != nil {
		middleware.LoggerFromContext(r.Context()).ErrorContext(r.Context(), "failed to write JSON response",
			"error", err.Error())
		w.WriteHeader(http.StatusInternalServerError)
	}
}

// serverErrorResponse logs err with its location and parameters and answers
// with message only; internal details never reach the client.
func serverErrorResponse(w http.ResponseWriter, r *http.Request, err error, message, location string, params ...any) {
	services.LogError(r.Context(), middleware.LoggerFromContext(r.Context()), err, message, location, params...)
	errorResponse(w, r, http.StatusInternalServerError, message)
}

func badRequestResponse(w http.ResponseWriter, r *http.Request, err error) {
	errorResponse(w, r, http.StatusBadRequest, err.Error())
}

func failedValidationResponse(w http.ResponseWriter, r *http.Request, verr *services.ValidationError) {
	writeEnvelope(w, r, http.StatusUnprocessableEntity, jsonResponse{
		"message": validationSummary(verr),
		"errors":  verr.Fields,
	})
}

func notFoundResponse(w http.ResponseWriter, r *http.Request, nf *services.NotFoundError) {
	errorResponse(w, r, http.StatusNotFound, nf.Error())
}

// validationSummary повторяет формат "first message (and N more errors)".
func validationSummary(verr *services.ValidationError) string {
	if verr.Message != "" {
		return verr.Message
	}
	fields := make([]string, 0, len(verr.Fields))
	total := 0
	for field, messages := range verr.Fields {
		fields = append(fields, field)
		total += len(messages)
	}
	if total == 0 {
		return "The given data was invalid."
	}
	sort.Strings(fields)
	first := verr.Fields[fields[0]][0]
	switch rest := total - 1; rest {
	case 0:
		return first
	case 1:
		return first + " (and 1 more error)"
	default:
		return first + " (and " + strconv.Itoa(rest) + " more errors)"
	}
}

// mapServiceErrorToHTTP преобразует ошибки сервисного слоя в HTTP-ответы.
// message is what the client sees for unexpected failures.
func mapServiceErrorToHTTP(w http.ResponseWriter, r *http.Request, err error, message, location string, params ...any) {
	var notFound *services.NotFoundError
	var verr *services.ValidationError

	switch {
	case errors.As(err, &notFound):
		notFoundResponse(w, r, notFound)
	case errors.As(err, &verr):
		failedValidationResponse(w, r, verr)
	case errors.Is(err, services.ErrUnauthenticated):
		errorResponse(w, r, http.StatusUnauthorized, services.ErrUnauthenticated.Error())
	case errors.Is(err, services.ErrForbidden):
		errorResponse(w, r, http.StatusForbidden, services.ErrForbidden.Error())
	case errors.Is(err, services.ErrConflict):
		errorResponse(w, r, http.StatusConflict, "The record conflicts with an existing one.")
	default:
		serverErrorResponse(w, r, err, message, location, params...)
	}
}

// getIDFromURL parses a positive integer path parameter. Callers treat a
// malformed id as a missing resource.
func getIDFromURL(r *http.Request, paramName string) (int, bool) {
	id, err := strconv.Atoi(chi.URLParam(r, paramName))
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
