package mcp

import (
	"context"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"posebvh/internal/bvh"
	"posebvh/internal/export"
	"posebvh/internal/store"
)

// Builder encodes frames and records the export.
type Builder interface {
	Build(ctx context.Context, frames []bvh.Frame, source string) (*export.Result, error)
}

// ExportLister is the read side of the export history.
type ExportLister interface {
	ListExports(ctx context.Context, limit int) ([]store.Export, error)
}

type Server struct {
	builder Builder
	db      ExportLister
	mcp     *sdk.Server
}

// NewServer registers the BVH tools. db may be nil when history is disabled.
func NewServer(builder Builder, db ExportLister, version string) *Server {
	s := &Server{
		builder: builder,
		db:      db,
		mcp: sdk.NewServer(&sdk.Implementation{
			Name:    "posebvh",
			Version: version,
		}, nil),
	}
	s.registerTools()
	return s
}

func (s *Server) Run(ctx context.Context, transport sdk.Transport) error {
	return s.mcp.Run(ctx, transport)
}
