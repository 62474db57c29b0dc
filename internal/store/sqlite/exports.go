package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"posebvh/internal/store"
)

// Fixed width so that created_at sorts lexically in time order.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

func (c *Client) RecordExport(ctx context.Context, e store.Export) error {
	query := `
	INSERT INTO exports (id, file_name, frames, bytes, sha256, source, source_file, source_hash, created_at, document)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := c.db.ExecContext(ctx, query,
		e.ID,
		e.FileName,
		e.Frames,
		e.Bytes,
		e.SHA256,
		e.Source,
		e.SourceFile,
		e.SourceHash,
		e.CreatedAt.UTC().Format(timeLayout),
		e.Document,
	)
	if err != nil {
		return fmt.Errorf("recording export: %w", err)
	}
	return nil
}

func (c *Client) GetExport(ctx context.Context, id string) (*store.Export, error) {
	query := `
	SELECT id, file_name, frames, bytes, sha256, source, source_file, source_hash, created_at, document
	FROM exports
	WHERE id = ?
	`

	var e store.Export
	var createdAt string
	err := c.db.QueryRowContext(ctx, query, id).Scan(
		&e.ID,
		&e.FileName,
		&e.Frames,
		&e.Bytes,
		&e.SHA256,
		&e.Source,
		&e.SourceFile,
		&e.SourceHash,
		&createdAt,
		&e.Document,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting export: %w", err)
	}
	if e.CreatedAt, err = time.Parse(timeLayout, createdAt); err != nil {
		return nil, fmt.Errorf("parsing created_at: %w", err)
	}
	return &e, nil
}

func (c *Client) ListExports(ctx context.Context, limit int) ([]store.Export, error) {
	if limit <= 0 {
		limit = -1
	}

	query := `
	SELECT id, file_name, frames, bytes, sha256, source, source_file, source_hash, created_at
	FROM exports
	ORDER BY created_at DESC, id
	LIMIT ?
	`

	rows, err := c.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("listing exports: %w", err)
	}
	defer rows.Close()

	exports := make([]store.Export, 0)
	for rows.Next() {
		var e store.Export
		var createdAt string
		if err := rows.Scan(&e.ID, &e.FileName, &e.Frames, &e.Bytes, &e.SHA256, &e.Source, &e.SourceFile, &e.SourceHash, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning export: %w", err)
		}
		if e.CreatedAt, err = time.Parse(timeLayout, createdAt); err != nil {
			return nil, fmt.Errorf("parsing created_at: %w", err)
		}
		exports = append(exports, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating exports: %w", err)
	}
	return exports, nil
}
