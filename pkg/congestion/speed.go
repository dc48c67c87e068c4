package congestion

import (
	"image"
	"math"
)

// EstimateSpeed returns the instantaneous speed in pixels per second between two
// consecutive positions of the same track. There is no calibration, the value
// only makes sense relative to the scene it was measured in.
func EstimateSpeed(current, previous image.Point, fps float64) float64 {
	dx := float64(current.X - previous.X)
	dy := float64(current.Y - previous.Y)
	return math.Sqrt(dx*dx+dy*dy) * fps
}
