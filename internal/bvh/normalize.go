package bvh

import "gonum.org/v1/gonum/spatial/r3"

// Normalize maps a screen-normalized sample (top-left origin, Y down) into
// BVH world units: centered on 0.5, Y up, depth negated, scaled.
func Normalize(s Sample, scale float64) r3.Vec {
	return r3.Vec{
		X: (s.X - 0.5) * scale,
		Y: (0.5 - s.Y) * scale,
		Z: -s.Z * scale,
	}
}
