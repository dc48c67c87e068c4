package detect

import (
	"image"

	"github.com/trafficlens/congestion/pkg/congestion"
)

// Box is one detection line printed by the tracker process. X and Y are the
// box center, W and H its size, all in frame pixels (YOLO xywh).
type Box struct {
	ID    *int    `json:"ID"`
	Class int     `json:"Class"`
	Name  string  `json:"Name"`
	X     float64 `json:"X"`
	Y     float64 `json:"Y"`
	W     float64 `json:"W"`
	H     float64 `json:"H"`
}

// Center returns the box center truncated to whole pixels.
func (b *Box) Center() image.Point {
	return image.Pt(int(b.X), int(b.Y))
}

// Rect returns the integer bounding rectangle of the box.
func (b *Box) Rect() image.Rectangle {
	return image.Rect(int(b.X-b.W/2), int(b.Y-b.H/2), int(b.X+b.W/2), int(b.Y+b.H/2))
}

// Frame is every box the tracker reported for one video frame.
type Frame struct {
	Number int
	Boxes  []*Box
}

func newFrame(number int) *Frame {
	return &Frame{
		Number: number,
		Boxes:  make([]*Box, 0),
	}
}

// Detections converts the frame's boxes to analyzer input, keeping their order.
func (f *Frame) Detections() []congestion.Detection {
	dets := make([]congestion.Detection, 0, len(f.Boxes))
	for _, b := range f.Boxes {
		dets = append(dets, congestion.Detection{
			TrackID:   b.ID,
			ClassID:   b.Class,
			ClassName: b.Name,
			Center:    b.Center(),
			Box:       b.Rect(),
		})
	}

	return dets
}
