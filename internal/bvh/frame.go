package bvh

import (
	"bytes"
	"encoding/json"
)

// Sample is a joint position with x and y in screen-normalized [0,1] and z a
// signed relative depth.
type Sample struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// DefaultSample stands in for any joint a frame does not carry: screen
// center, zero depth.
var DefaultSample = Sample{X: 0.5, Y: 0.5, Z: 0}

// UnmarshalJSON never fails. A value that is not an object decodes to
// DefaultSample, and a missing or non-numeric coordinate takes its default.
func (s *Sample) UnmarshalJSON(data []byte) error {
	*s = DefaultSample

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil || fields == nil {
		return nil
	}
	s.X = numberOr(fields["x"], DefaultSample.X)
	s.Y = numberOr(fields["y"], DefaultSample.Y)
	s.Z = numberOr(fields["z"], DefaultSample.Z)
	return nil
}

func numberOr(raw json.RawMessage, fallback float64) float64 {
	if len(raw) == 0 || bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return fallback
	}
	var v float64
	if err := json.Unmarshal(raw, &v); err != nil {
		return fallback
	}
	return v
}

// Frame maps joint names to samples for one time step. It may be sparse, and
// may carry names outside the skeleton; those are ignored when encoding.
type Frame map[string]Sample

// Sample returns the sample for joint, or DefaultSample when the frame has
// none.
func (f Frame) Sample(joint string) Sample {
	if s, ok := f[joint]; ok {
		return s
	}
	return DefaultSample
}

// UnmarshalJSON decodes anything other than an object as an empty frame.
func (f *Frame) UnmarshalJSON(data []byte) error {
	var raw map[string]Sample
	if err := json.Unmarshal(data, &raw); err != nil {
		*f = Frame{}
		return nil
	}
	*f = Frame(raw)
	return nil
}
