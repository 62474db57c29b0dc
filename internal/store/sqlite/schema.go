package sqlite

import (
	"context"
	"fmt"
)

func (c *Client) EnsureSchema(ctx context.Context) error {
	ddl := `
	CREATE TABLE IF NOT EXISTS exports (
		id          TEXT PRIMARY KEY,
		file_name   TEXT NOT NULL,
		frames      INTEGER NOT NULL,
		bytes       INTEGER NOT NULL,
		sha256      TEXT NOT NULL,
		source      TEXT NOT NULL,
		source_file TEXT NOT NULL DEFAULT '',
		source_hash TEXT NOT NULL DEFAULT '',
		created_at  TEXT NOT NULL,
		document    BLOB NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_exports_created ON exports (created_at);
	CREATE INDEX IF NOT EXISTS idx_exports_source_file ON exports (source_file) WHERE source_file <> '';
	`

	if _, err := c.db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("ensuring schema: %w", err)
	}
	return nil
}
