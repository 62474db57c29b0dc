package postgres

import (
	"context"
	"fmt"
)

func (c *Client) EnsureSchema(ctx context.Context) error {
	// Executed as one implicit transaction; IF NOT EXISTS keeps reruns idempotent.
	ddl := `
CREATE TABLE IF NOT EXISTS exports (
    id          UUID PRIMARY KEY,
    file_name   TEXT NOT NULL,
    frames      INTEGER NOT NULL,
    bytes       BIGINT NOT NULL,
    sha256      TEXT NOT NULL,
    source      TEXT NOT NULL,
    source_file TEXT NOT NULL DEFAULT '',
    source_hash TEXT NOT NULL DEFAULT '',
    created_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
    document    BYTEA NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_exports_created ON exports (created_at DESC);
CREATE INDEX IF NOT EXISTS idx_exports_source_file ON exports (source_file) WHERE source_file <> '';
`
	_, err := c.pool.Exec(ctx, ddl)
	if err != nil {
		return fmt.Errorf("ensuring schema: %w", err)
	}
	return nil
}
