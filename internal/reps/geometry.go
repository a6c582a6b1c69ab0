package reps

import "math"

// Point is a normalized 2D landmark position, as produced by the pose estimator.
// Visibility is optional and not used by the counters.
type Point struct {
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	Visibility float64 `json:"visibility,omitempty"`
}

// AngleBetween returns the interior angle at vertex b, formed by a-b-c, in degrees [0, 180].
// Collinear points give 0 or 180, never an error.
func AngleBetween(a, b, c Point) float64 {
	radians := math.Atan2(c.Y-b.Y, c.X-b.X) - math.Atan2(a.Y-b.Y, a.X-b.X)
	angle := math.Abs(radians * 180.0 / math.Pi)
	if angle > 180.0 {
		angle = 360 - angle
	}
	return angle
}
