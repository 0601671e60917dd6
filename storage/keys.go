package storage

import (
	"fmt"
	"net/url"
	"path"
	"strings"

	"github.com/oklog/ulid/v2"
)

// NewKey returns "<prefix>/<ULID><ext>". ULIDs are 26 characters of Crockford
// base32 and sort by creation time.
func NewKey(prefix, ext string) string {
	name := ulid.Make().String() + ext
	prefix = strings.Trim(prefix, "/")
	if prefix == "" {
		return name
	}
	return prefix + "/" + name
}

// ExtensionForFormat maps an image.DecodeConfig format name to a file extension.
func ExtensionForFormat(format string) (string, error) {
	switch strings.ToLower(format) {
	case "jpeg", "jpg":
		return ".jpg", nil
	case "png":
		return ".png", nil
	case "gif":
		return ".gif", nil
	case "webp":
		return ".webp", nil
	case "bmp":
		return ".bmp", nil
	default:
		return "", fmt.Errorf("unsupported image format %q", format)
	}
}

// ContentTypeForExtension is the inverse used when the client did not send a usable Content-Type.
func ContentTypeForExtension(ext string) string {
	switch strings.ToLower(ext) {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	case ".gif":
		return "image/gif"
	case ".webp":
		return "image/webp"
	case ".bmp":
		return "image/bmp"
	default:
		return "application/octet-stream"
	}
}

// cleanKey normalises a stored path and rejects anything escaping the store root.
func cleanKey(key string) (string, error) {
	trimmed := strings.TrimSpace(key)
	if trimmed == "" {
		return "", ErrInvalidPath
	}
	cleaned := path.Clean("/" + trimmed)
	cleaned = strings.TrimPrefix(cleaned, "/")
	if cleaned == "" || cleaned == "." || strings.HasPrefix(cleaned, "..") {
		return "", fmt.Errorf("%w: %q", ErrInvalidPath, key)
	}
	return cleaned, nil
}

// joinPublicURL appends key to base, escaping each segment.
func joinPublicURL(base, key string) string {
	if base == "" || key == "" {
		return ""
	}
	segments := strings.Split(strings.TrimLeft(key, "/"), "/")
	for i, segment := range segments {
		segments[i] = url.PathEscape(segment)
	}
	return strings.TrimRight(base, "/") + "/" + strings.Join(segments, "/")
}
