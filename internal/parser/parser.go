package parser

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"posebvh/internal/bvh"
)

// Capture is a decoded frame sequence, either from a request body or a file
// on disk.
type Capture struct {
	Frames     []bvh.Frame
	SourceFile string
}

var (
	ErrInvalidJSON = errors.New("invalid capture JSON")
	ErrNoFrames    = fmt.Errorf("%w in capture", bvh.ErrEmptyInput)
)

func ParseFile(path string) (*Capture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	capture, err := Parse(data)
	if err != nil {
		return nil, err
	}
	capture.SourceFile = path
	return capture, nil
}

// Parse accepts either {"frames": [...]} or a bare array of frames. Frames and
// joint entries are decoded leniently; see bvh.Frame and bvh.Sample.
func Parse(content []byte) (*Capture, error) {
	trimmed := bytes.TrimLeft(content, "\ufeff\n\r\t ")
	if len(trimmed) == 0 {
		return nil, ErrInvalidJSON
	}

	raw := json.RawMessage(trimmed)
	if trimmed[0] == '{' {
		var envelope struct {
			Frames json.RawMessage `json:"frames"`
		}
		if err := json.Unmarshal(trimmed, &envelope); err != nil {
			return nil, ErrInvalidJSON
		}
		raw = bytes.TrimSpace(envelope.Frames)
		if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
			return nil, ErrNoFrames
		}
	}

	if raw[0] != '[' {
		return nil, ErrInvalidJSON
	}

	var frames []bvh.Frame
	if err := json.Unmarshal(raw, &frames); err != nil {
		return nil, ErrInvalidJSON
	}
	if len(frames) == 0 {
		return nil, ErrNoFrames
	}

	return &Capture{Frames: frames}, nil
}
