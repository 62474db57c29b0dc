package store

import "time"

const (
	SourceHTTP    = "http"
	SourceCLI     = "cli"
	SourceMCP     = "mcp"
	SourceConvert = "convert"
)

// Export is one produced document. ListExports leaves Document nil.
// SourceFile and SourceHash are only set for batch conversions.
type Export struct {
	ID         string    `json:"id"`
	FileName   string    `json:"file_name"`
	Frames     int       `json:"frames"`
	Bytes      int64     `json:"bytes"`
	SHA256     string    `json:"sha256"`
	Source     string    `json:"source"`
	SourceFile string    `json:"source_file,omitempty"`
	SourceHash string    `json:"source_hash,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	Document   []byte    `json:"-"`
}
