package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"golang.org/x/sync/errgroup"
)

const localDeleteConcurrency = 8

type LocalStoreConfig struct {
	// Root is the directory assets are written below.
	Root string
	// PublicBaseURL is the absolute URL Root is served from, e.g. http://localhost:8080/storage.
	PublicBaseURL string
}

type localStore struct {
	root          string
	publicBaseURL string
}

func NewLocalStore(cfg LocalStoreConfig) (BlobStore, error) {
	if cfg.Root == "" {
		return nil, errors.New("invalid local storage configuration: root is required")
	}
	root, err := filepath.Abs(cfg.Root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve storage root %q: %w", cfg.Root, err)
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create storage root %q: %w", root, err)
	}
	return &localStore{root: root, publicBaseURL: cfg.PublicBaseURL}, nil
}

func (s *localStore) fullPath(key string) (string, error) {
	cleaned, err := cleanKey(key)
	if err != nil {
		return "", err
	}
	return filepath.Join(s.root, filepath.FromSlash(cleaned)), nil
}

func (s *localStore) Put(ctx context.Context, file File, prefix string) (string, error) {
	if file.Reader == nil {
		return "", errors.New("file reader is required")
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	key := NewKey(prefix, file.Extension)
	target, err := s.fullPath(key)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return "", fmt.Errorf("failed to create directory for %s: %w", key, err)
	}

	// O_EXCL: an existing object is never overwritten.
	f, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", fmt.Errorf("failed to create file %s: %w", key, err)
	}
	if _, err := io.Copy(f, file.Reader); err != nil {
		_ = f.Close()
		_ = os.Remove(target)
		return "", fmt.Errorf("failed to write file %s: %w", key, err)
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		_ = os.Remove(target)
		return "", fmt.Errorf("failed to sync file %s: %w", key, err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(target)
		return "", fmt.Errorf("failed to close file %s: %w", key, err)
	}
	return key, nil
}

func (s *localStore) Exists(ctx context.Context, key string) (bool, error) {
	target, err := s.fullPath(key)
	if err != nil {
		return false, err
	}
	info, err := os.Stat(target)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("failed to stat %s: %w", key, err)
	}
	return !info.IsDir(), nil
}

func (s *localStore) Delete(ctx context.Context, keys ...string) error {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(localDeleteConcurrency)

	for _, key := range keys {
		if key == "" {
			continue
		}
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			target, err := s.fullPath(key)
			if err != nil {
				return err
			}
			if err := os.Remove(target); err != nil && !errors.Is(err, os.ErrNotExist) {
				return fmt.Errorf("failed to delete %s: %w", key, err)
			}
			return nil
		})
	}
	return g.Wait()
}

func (s *localStore) URL(key string) string {
	return joinPublicURL(s.publicBaseURL, key)
}
