package storage

import (
	"context"
	"errors"
	"io"
)

var ErrInvalidPath = errors.New("invalid storage path")

// File is an upload ready to be written to a BlobStore.
type File struct {
	Reader      io.Reader
	Size        int64
	ContentType string
	// Extension includes the leading dot, e.g. ".png".
	Extension string
}

// BlobStore keeps entity assets. Put never overwrites existing content: every
// call writes under a freshly generated key below prefix.
type BlobStore interface {
	Put(ctx context.Context, file File, prefix string) (string, error)
	Exists(ctx context.Context, path string) (bool, error)
	// Delete removes the given paths. Missing paths are not an error.
	Delete(ctx context.Context, paths ...string) error
	// URL derives the public URL of path without any I/O.
	URL(path string) string
}
