package congestion

import "gonum.org/v1/gonum/stat"

// IsCongested returns the scene verdict for one frame. Without any speed
// reading the scene is never congested, whatever the vehicle count. Both
// comparisons are strict.
func IsCongested(vehicleCount int, instantSpeeds []float64, vehicleThreshold int, speedThreshold float64) bool {
	if len(instantSpeeds) == 0 {
		return false
	}

	return vehicleCount > vehicleThreshold && stat.Mean(instantSpeeds, nil) < speedThreshold
}

// meanSpeed is the overlay value: the mean instantaneous speed, 0 when there is none.
func meanSpeed(speeds []float64) float64 {
	if len(speeds) == 0 {
		return 0
	}
	return stat.Mean(speeds, nil)
}
