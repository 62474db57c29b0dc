package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"posebvh/internal/store"
)

func (c *Client) RecordExport(ctx context.Context, e store.Export) error {
	query := `
INSERT INTO exports (id, file_name, frames, bytes, sha256, source, source_file, source_hash, created_at, document)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
`

	_, err := c.pool.Exec(ctx, query,
		e.ID,
		e.FileName,
		e.Frames,
		e.Bytes,
		e.SHA256,
		e.Source,
		e.SourceFile,
		e.SourceHash,
		e.CreatedAt,
		e.Document,
	)
	if err != nil {
		return fmt.Errorf("recording export: %w", err)
	}
	return nil
}

func (c *Client) GetExport(ctx context.Context, id string) (*store.Export, error) {
	query := `
SELECT id::text, file_name, frames, bytes, sha256, source, source_file, source_hash, created_at, document
FROM exports
WHERE id::text = $1
`

	var e store.Export
	err := c.pool.QueryRow(ctx, query, id).Scan(
		&e.ID,
		&e.FileName,
		&e.Frames,
		&e.Bytes,
		&e.SHA256,
		&e.Source,
		&e.SourceFile,
		&e.SourceHash,
		&e.CreatedAt,
		&e.Document,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting export: %w", err)
	}
	return &e, nil
}

func (c *Client) ListExports(ctx context.Context, limit int) ([]store.Export, error) {
	query := `
SELECT id::text, file_name, frames, bytes, sha256, source, source_file, source_hash, created_at
FROM exports
ORDER BY created_at DESC, id
LIMIT $1
`
	var limitArg any
	if limit > 0 {
		limitArg = limit
	}

	rows, err := c.pool.Query(ctx, query, limitArg)
	if err != nil {
		return nil, fmt.Errorf("listing exports: %w", err)
	}
	defer rows.Close()

	exports := make([]store.Export, 0)
	for rows.Next() {
		var e store.Export
		if err := rows.Scan(&e.ID, &e.FileName, &e.Frames, &e.Bytes, &e.SHA256, &e.Source, &e.SourceFile, &e.SourceHash, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning export: %w", err)
		}
		exports = append(exports, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating exports: %w", err)
	}
	return exports, nil
}
