package congestion

import "image"

// Detection is one box reported by the detector/tracker for a frame.
type Detection struct {
	// TrackID is nil when the tracker could not associate the box with a track.
	TrackID   *int
	ClassID   int
	ClassName string
	Center    image.Point
	Box       image.Rectangle
}

// TrackInfo is what the renderer needs to annotate one tracked box.
type TrackInfo struct {
	ID        int             `json:"id"`
	ClassID   int             `json:"class_id"`
	ClassName string          `json:"class_name"`
	Position  image.Point     `json:"position"`
	Box       image.Rectangle `json:"box"`

	// InstantSpeed is only meaningful when HasInstantSpeed is set (not on first sighting).
	InstantSpeed    float64 `json:"instant_speed"`
	HasInstantSpeed bool    `json:"has_instant_speed"`
	SmoothedSpeed   float64 `json:"smoothed_speed"`
}

// FrameResult is the analysis of a single frame.
type FrameResult struct {
	Frame  int         `json:"frame"`
	Tracks []TrackInfo `json:"tracks"`

	// VehicleCount counts every box the detector reported, with or without a track id.
	VehicleCount     int          `json:"vehicle_count"`
	InstantSpeeds    []float64    `json:"instant_speeds"`
	MeanInstantSpeed float64      `json:"mean_instant_speed"`
	IsCongested      bool         `json:"is_congested"`
	UniqueTotal      int          `json:"unique_total"`
	UniqueCounts     []ClassCount `json:"unique_counts"`
}
