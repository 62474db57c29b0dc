package pose

import (
	"fmt"

	"posebvh/internal/bvh"
)

// Landmark is one keypoint reported by a pose model, in the model's
// screen-normalized convention.
type Landmark struct {
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	Z          float64 `json:"z"`
	Visibility float64 `json:"visibility,omitempty"`
}

// LandmarkMap selects, for each skeleton joint, the landmark index that
// supplies its position.
type LandmarkMap map[string]int

// DefaultLandmarkMap follows the 33-point BlazePose layout. Hips and Spine
// share the right hip point, and Chest and Neck reuse the shoulders.
func DefaultLandmarkMap() LandmarkMap {
	return LandmarkMap{
		bvh.Hips:          24,
		bvh.Spine:         24,
		bvh.Chest:         12,
		bvh.Neck:          11,
		bvh.Head:          0,
		bvh.LeftShoulder:  11,
		bvh.RightShoulder: 12,
		bvh.LeftElbow:     13,
		bvh.RightElbow:    14,
		bvh.LeftWrist:     15,
		bvh.RightWrist:    16,
	}
}

func (m LandmarkMap) Validate() error {
	for _, joint := range bvh.Joints {
		idx, ok := m[joint]
		if !ok {
			return fmt.Errorf("landmark map is missing joint %s", joint)
		}
		if idx < 0 {
			return fmt.Errorf("landmark map joint %s has negative index %d", joint, idx)
		}
	}
	for joint := range m {
		if !bvh.IsJoint(joint) {
			return fmt.Errorf("landmark map names unknown joint %s", joint)
		}
	}
	return nil
}

// FrameFromLandmarks builds a frame holding every skeleton joint. A joint whose
// landmark index is out of range gets bvh.DefaultSample, and zero coordinates
// are treated as undetected and replaced by their defaults.
func FrameFromLandmarks(landmarks []Landmark, m LandmarkMap) bvh.Frame {
	frame := make(bvh.Frame, len(bvh.Joints))
	for _, joint := range bvh.Joints {
		idx, ok := m[joint]
		if !ok || idx < 0 || idx >= len(landmarks) {
			frame[joint] = bvh.DefaultSample
			continue
		}
		lm := landmarks[idx]
		frame[joint] = bvh.Sample{
			X: orDefault(lm.X, bvh.DefaultSample.X),
			Y: orDefault(lm.Y, bvh.DefaultSample.Y),
			Z: orDefault(lm.Z, bvh.DefaultSample.Z),
		}
	}
	return frame
}

func orDefault(v, fallback float64) float64 {
	if v == 0 {
		return fallback
	}
	return v
}
