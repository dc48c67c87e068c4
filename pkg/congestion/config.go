package congestion

import (
	"errors"
	"fmt"
	"math"
)

const (
	DefaultVehicleThreshold = 6
	DefaultSpeedThreshold   = 75.0 //pixels per second
	DefaultSpeedWindow      = 30   //frames
)

// ErrInvalidConfig is wrapped by every configuration validation failure.
var ErrInvalidConfig = errors.New("invalid congestion config")

// Config holds the static thresholds of the analyzer.
type Config struct {
	// VehicleThreshold is exceeded (strictly) by the frame's vehicle count in a congested scene.
	VehicleThreshold int

	// SpeedThreshold in pixels per second, the mean instantaneous speed must be strictly below it.
	SpeedThreshold float64

	// SpeedWindow is how many instantaneous speeds each track keeps for smoothing.
	SpeedWindow int

	// TrackTTLFrames drops tracks not seen for that many frames. 0 keeps tracks forever.
	TrackTTLFrames int
}

// DefaultConfig returns the thresholds the detector ships with.
func DefaultConfig() Config {
	return Config{
		VehicleThreshold: DefaultVehicleThreshold,
		SpeedThreshold:   DefaultSpeedThreshold,
		SpeedWindow:      DefaultSpeedWindow,
	}
}

// Validate reports the first unusable value.
func (c Config) Validate() error {
	if c.SpeedWindow <= 0 {
		return fmt.Errorf("%w: speed window must be positive, got %d", ErrInvalidConfig, c.SpeedWindow)
	}
	if c.VehicleThreshold < 0 {
		return fmt.Errorf("%w: vehicle threshold must not be negative, got %d", ErrInvalidConfig, c.VehicleThreshold)
	}
	if math.IsNaN(c.SpeedThreshold) || math.IsInf(c.SpeedThreshold, 0) || c.SpeedThreshold <= 0 {
		return fmt.Errorf("%w: speed threshold must be a positive number, got %v", ErrInvalidConfig, c.SpeedThreshold)
	}
	if c.TrackTTLFrames < 0 {
		return fmt.Errorf("%w: track ttl must not be negative, got %d", ErrInvalidConfig, c.TrackTTLFrames)
	}

	return nil
}
