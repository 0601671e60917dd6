package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Dosada05/team-roster/db"
	"github.com/Dosada05/team-roster/repositories"
	"github.com/Dosada05/team-roster/storage"
)

// AssetManager couples a row mutation with the blob it references. The row is
// the source of truth: blobs are written before the transaction and removed
// only after it has committed, so a rolled back mutation never leaves a row
// pointing at a missing file. Orphaned blobs are possible and only logged.
type AssetManager struct {
	tx     db.Transactor
	blobs  storage.BlobStore
	logger *slog.Logger
}

func NewAssetManager(tx db.Transactor, blobs storage.BlobStore, logger *slog.Logger) *AssetManager {
	if logger == nil {
		logger = slog.Default()
	}
	return &AssetManager{tx: tx, blobs: blobs, logger: logger}
}

// Blobs exposes the underlying store, mainly for URL derivation.
func (m *AssetManager) Blobs() storage.BlobStore {
	return m.blobs
}

type execFunc func(ctx context.Context, exec repositories.SQLExecutor) error

// createWithAsset stores file (if any) under prefix and then runs insert with
// the resulting path inside a transaction. If the transaction fails the new
// blob is deleted again.
func createWithAsset[T any](
	ctx context.Context,
	m *AssetManager,
	location string,
	file *storage.File,
	prefix string,
	insert func(ctx context.Context, exec repositories.SQLExecutor, assetPath string) (T, error),
) (T, error) {
	var zero T

	var newPath string
	if file != nil {
		path, err := m.blobs.Put(ctx, *file, prefix)
		if err != nil {
			return zero, fmt.Errorf("failed to store asset: %w", err)
		}
		newPath = path
	}

	var entity T
	err := m.tx.WithinTx(ctx, func(ctx context.Context, exec repositories.SQLExecutor) error {
		var err error
		entity, err = insert(ctx, exec, newPath)
		return err
	})
	if err != nil {
		m.discard(ctx, location, newPath)
		return zero, err
	}
	return entity, nil
}

// updateWithAsset loads the current row (returning its asset path) and applies
// the update in one transaction. A replacement file is written inside the
// transaction and handed to apply; apply receives nil when the asset is kept.
// The superseded blob is removed only after commit.
func updateWithAsset[T any](
	ctx context.Context,
	m *AssetManager,
	location string,
	file *storage.File,
	prefix string,
	load func(ctx context.Context, exec repositories.SQLExecutor) (string, error),
	apply func(ctx context.Context, exec repositories.SQLExecutor, assetPath *string) (T, error),
) (T, error) {
	var zero T

	var oldPath, newPath string
	var entity T
	err := m.tx.WithinTx(ctx, func(ctx context.Context, exec repositories.SQLExecutor) error {
		var err error
		oldPath, err = load(ctx, exec)
		if err != nil {
			return err
		}

		var assetPath *string
		if file != nil {
			newPath, err = m.blobs.Put(ctx, *file, prefix)
			if err != nil {
				return fmt.Errorf("failed to store asset: %w", err)
			}
			assetPath = &newPath
		}

		entity, err = apply(ctx, exec, assetPath)
		return err
	})
	if err != nil {
		m.discard(ctx, location, newPath)
		return zero, err
	}

	if newPath != "" && newPath != oldPath {
		m.discard(ctx, location, oldPath)
	}
	return entity, nil
}

// deleteWithAssets collects the asset paths of everything about to go, deletes
// the rows in one transaction and, once committed, removes the collected
// blobs. collect runs inside the same transaction so a NotFound aborts the
// whole operation before anything is touched.
func deleteWithAssets(
	ctx context.Context,
	m *AssetManager,
	location string,
	collect func(ctx context.Context, exec repositories.SQLExecutor) ([]string, error),
	remove execFunc,
) error {
	var paths []string
	err := m.tx.WithinTx(ctx, func(ctx context.Context, exec repositories.SQLExecutor) error {
		var err error
		paths, err = collect(ctx, exec)
		if err != nil {
			return err
		}
		return remove(ctx, exec)
	})
	if err != nil {
		return err
	}

	m.discard(ctx, location, paths...)
	return nil
}

// discard removes blobs best-effort. Failures are logged and never returned:
// by the time it runs the outcome of the row mutation is already decided.
func (m *AssetManager) discard(ctx context.Context, location string, paths ...string) {
	keys := make([]string, 0, len(paths))
	for _, p := range paths {
		if p != "" {
			keys = append(keys, p)
		}
	}
	if len(keys) == 0 {
		return
	}

	if err := m.blobs.Delete(context.WithoutCancel(ctx), keys...); err != nil {
		m.logger.WarnContext(ctx, "failed to delete assets",
			slog.String("location", location),
			slog.Any("paths", keys),
			slog.String("error", err.Error()),
		)
	}
}
