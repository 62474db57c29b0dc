package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"posebvh/internal/bvh"
	"posebvh/internal/parser"
	"posebvh/internal/store"
	"posebvh/internal/validate"
)

type BuildBVHInput struct {
	Frames []map[string]any `json:"frames" jsonschema:"list of frames, each an object keyed by joint name with x, y, z values"`
}

type BuildBVHOutput struct {
	ID       string `json:"id"`
	FileName string `json:"file_name"`
	Frames   int    `json:"frames"`
	Document string `json:"document"`
}

type GetSkeletonInput struct{}

type JointOutput struct {
	Name     string     `json:"name"`
	Parent   string     `json:"parent,omitempty"`
	Offset   [3]float64 `json:"offset"`
	Channels []string   `json:"channels"`
}

type GetSkeletonOutput struct {
	Joints    []JointOutput `json:"joints"`
	Hierarchy string        `json:"hierarchy"`
}

type ListExportsInput struct {
	Limit int `json:"limit,omitempty" jsonschema:"maximum number of exports, newest first"`
}

type ExportOutput struct {
	ID         string `json:"id"`
	FileName   string `json:"file_name"`
	Frames     int    `json:"frames"`
	Bytes      int64  `json:"bytes"`
	Source     string `json:"source"`
	SourceFile string `json:"source_file,omitempty"`
	CreatedAt  string `json:"created_at"`
}

type ListExportsOutput struct {
	Exports []ExportOutput `json:"exports"`
}

type CheckFramesInput struct {
	Frames []map[string]any `json:"frames" jsonschema:"list of frames to check"`
}

type CheckFramesOutput struct {
	Frames    int              `json:"frames"`
	HasErrors bool             `json:"has_errors"`
	Issues    []validate.Issue `json:"issues"`
}

func (s *Server) registerTools() {
	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "build_bvh",
		Description: "Encode joint position frames into a BVH document",
	}, s.handleBuildBVH)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "get_skeleton",
		Description: "Return the fixed skeleton: joints, parents, offsets and channels",
	}, s.handleGetSkeleton)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "list_exports",
		Description: "List recently produced BVH exports",
	}, s.handleListExports)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "check_frames",
		Description: "Report missing, unknown or out-of-range joints in a capture",
	}, s.handleCheckFrames)
}

func (s *Server) handleBuildBVH(ctx context.Context, req *sdk.CallToolRequest, input BuildBVHInput) (*sdk.CallToolResult, BuildBVHOutput, error) {
	frames, err := decodeFrames(input.Frames)
	if err != nil {
		return nil, BuildBVHOutput{}, err
	}
	result, err := s.builder.Build(ctx, frames, store.SourceMCP)
	if err != nil {
		return nil, BuildBVHOutput{}, err
	}
	return nil, BuildBVHOutput{
		ID:       result.ID,
		FileName: result.FileName,
		Frames:   result.Frames,
		Document: string(result.Document),
	}, nil
}

func (s *Server) handleGetSkeleton(ctx context.Context, req *sdk.CallToolRequest, input GetSkeletonInput) (*sdk.CallToolResult, GetSkeletonOutput, error) {
	skeleton := bvh.Skeleton()
	joints := make([]JointOutput, 0, len(skeleton))
	for _, joint := range skeleton {
		out := JointOutput{
			Name:     joint.Name,
			Offset:   [3]float64{joint.Offset.X, joint.Offset.Y, joint.Offset.Z},
			Channels: append([]string{}, joint.Channels...),
		}
		if joint.Parent >= 0 {
			out.Parent = skeleton[joint.Parent].Name
		}
		joints = append(joints, out)
	}
	return nil, GetSkeletonOutput{Joints: joints, Hierarchy: bvh.Hierarchy()}, nil
}

func (s *Server) handleListExports(ctx context.Context, req *sdk.CallToolRequest, input ListExportsInput) (*sdk.CallToolResult, ListExportsOutput, error) {
	if s.db == nil {
		return nil, ListExportsOutput{}, fmt.Errorf("export history is not configured")
	}
	limit := input.Limit
	if limit <= 0 {
		limit = 20
	}
	exports, err := s.db.ListExports(ctx, limit)
	if err != nil {
		return nil, ListExportsOutput{}, err
	}

	output := make([]ExportOutput, 0, len(exports))
	for _, e := range exports {
		output = append(output, ExportOutput{
			ID:         e.ID,
			FileName:   e.FileName,
			Frames:     e.Frames,
			Bytes:      e.Bytes,
			Source:     e.Source,
			SourceFile: e.SourceFile,
			CreatedAt:  e.CreatedAt.UTC().Format("2006-01-02T15:04:05Z07:00"),
		})
	}
	return nil, ListExportsOutput{Exports: output}, nil
}

func (s *Server) handleCheckFrames(ctx context.Context, req *sdk.CallToolRequest, input CheckFramesInput) (*sdk.CallToolResult, CheckFramesOutput, error) {
	frames, err := decodeFrames(input.Frames)
	if err != nil {
		return nil, CheckFramesOutput{}, err
	}
	report, err := validate.Run(frames)
	if err != nil {
		return nil, CheckFramesOutput{}, err
	}
	return nil, CheckFramesOutput{
		Frames:    report.Frames,
		HasErrors: report.HasErrors(),
		Issues:    report.Issues,
	}, nil
}

// decodeFrames re-reads tool arguments through the capture parser so joint
// values get the same lenient treatment as uploaded captures.
func decodeFrames(frames []map[string]any) ([]bvh.Frame, error) {
	if len(frames) == 0 {
		return nil, fmt.Errorf("frames is required: %w", bvh.ErrEmptyInput)
	}
	raw, err := json.Marshal(frames)
	if err != nil {
		return nil, fmt.Errorf("encoding frames: %w", err)
	}
	capture, err := parser.Parse(raw)
	if err != nil {
		return nil, err
	}
	return capture.Frames, nil
}
