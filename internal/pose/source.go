package pose

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"posebvh/internal/bvh"
)

// Source yields the landmarks detected in successive video frames. Next
// returns io.EOF once the stream is exhausted. A nil or empty slice means the
// model found no pose in that frame.
type Source interface {
	Next(ctx context.Context) ([]Landmark, error)
}

// Record drains src into frames. It stops at io.EOF, when limit frames have
// been collected (limit <= 0 means no limit), or when ctx is done, in which
// case the frames gathered so far are returned with ctx.Err().
func Record(ctx context.Context, src Source, m LandmarkMap, limit int) ([]bvh.Frame, error) {
	var frames []bvh.Frame
	for limit <= 0 || len(frames) < limit {
		if err := ctx.Err(); err != nil {
			return frames, err
		}
		landmarks, err := src.Next(ctx)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return frames, fmt.Errorf("reading landmarks for frame %d: %w", len(frames), err)
		}
		if len(landmarks) == 0 {
			continue
		}
		frames = append(frames, FrameFromLandmarks(landmarks, m))
	}
	return frames, nil
}

type jsonlSource struct {
	scanner *bufio.Scanner
	line    int
}

// NewJSONLSource reads one JSON array of landmarks per line. Blank lines are
// skipped; a line holding null is a frame with no detection.
func NewJSONLSource(r io.Reader) Source {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	return &jsonlSource{scanner: scanner}
}

func (s *jsonlSource) Next(ctx context.Context) ([]Landmark, error) {
	for s.scanner.Scan() {
		s.line++
		line := bytes.TrimSpace(s.scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		var landmarks []Landmark
		if err := json.Unmarshal(line, &landmarks); err != nil {
			return nil, fmt.Errorf("line %d: %w", s.line, err)
		}
		if landmarks == nil {
			landmarks = []Landmark{}
		}
		return landmarks, nil
	}
	if err := s.scanner.Err(); err != nil {
		return nil, err
	}
	return nil, io.EOF
}
