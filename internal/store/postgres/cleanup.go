package postgres

import (
	"context"
	"fmt"
)

func (c *Client) RemoveStaleExports(ctx context.Context, currentSourceFiles []string) (int64, error) {
	if len(currentSourceFiles) == 0 {
		return 0, nil
	}

	query := `
DELETE FROM exports
WHERE source_file <> ''
  AND NOT (source_file = ANY($1))
`

	tag, err := c.pool.Exec(ctx, query, currentSourceFiles)
	if err != nil {
		return 0, fmt.Errorf("removing stale exports: %w", err)
	}
	return tag.RowsAffected(), nil
}

// GetSourceHashes returns the hash of the most recent conversion of each
// source file.
func (c *Client) GetSourceHashes(ctx context.Context) (map[string]string, error) {
	query := `
SELECT DISTINCT ON (source_file) source_file, source_hash
FROM exports
WHERE source_file <> ''
ORDER BY source_file, created_at DESC
`

	rows, err := c.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query source hashes: %w", err)
	}
	defer rows.Close()

	hashes := make(map[string]string)
	for rows.Next() {
		var sourceFile, sourceHash string
		if err := rows.Scan(&sourceFile, &sourceHash); err != nil {
			return nil, fmt.Errorf("scanning source hash: %w", err)
		}
		hashes[sourceFile] = sourceHash
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating source hashes: %w", err)
	}
	return hashes, nil
}
