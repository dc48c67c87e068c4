package utils

import (
	"fmt"

	"github.com/trafficlens/congestion/pkg/congestion"
)

//TrackLabel returns the text printed above a tracked box: class name, followed by its smoothed speed once there is one
func TrackLabel(info congestion.TrackInfo) string {
	if info.SmoothedSpeed > 0 {
		return fmt.Sprintf("%s %.1f%s", info.ClassName, info.SmoothedSpeed, UnitSuffix)
	}

	return info.ClassName
}

//UniqueLines returns the unique objects panel, total first then one line per class in first-seen order
func UniqueLines(res *congestion.FrameResult) []string {
	lines := make([]string, 0, len(res.UniqueCounts)+1)
	lines = append(lines, fmt.Sprintf("Total Unique Objects: %d", res.UniqueTotal))
	for _, c := range res.UniqueCounts {
		lines = append(lines, fmt.Sprintf("%s: %d", c.ClassName, c.Count))
	}

	return lines
}

//StatusLines returns the congestion verdict line and the average speed line
func StatusLines(res *congestion.FrameResult) (verdict string, avgSpeed string) {
	answer := "NO"
	if res.IsCongested {
		answer = "YES"
	}

	return "Congestion: " + answer, fmt.Sprintf("Avg Speed: %.2f %s", res.MeanInstantSpeed, UnitSuffix)
}
