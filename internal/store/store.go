package store

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("export not found")

// Store keeps the history of produced BVH documents.
type Store interface {
	Close(ctx context.Context) error
	EnsureSchema(ctx context.Context) error

	RecordExport(ctx context.Context, e Export) error
	GetExport(ctx context.Context, id string) (*Export, error)
	ListExports(ctx context.Context, limit int) ([]Export, error)

	GetSourceHashes(ctx context.Context) (map[string]string, error)
	RemoveStaleExports(ctx context.Context, currentSourceFiles []string) (int64, error)
}
