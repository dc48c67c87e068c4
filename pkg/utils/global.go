package utils

import "image/color"

//UnitSuffix is appended to every speed printed on a frame
const UnitSuffix = "px/s"

//DefaultClassColor is used for any class missing from ClassColors
var DefaultClassColor = color.RGBA{255, 255, 255, 0}

//ClassColors maps a detector class id to the color its boxes are drawn with
var ClassColors = map[int]color.RGBA{
	0: {0, 255, 0, 0},
	1: {0, 0, 255, 0},
	2: {255, 255, 0, 0},
	3: {0, 255, 255, 0},
	4: {255, 0, 255, 0},
	5: {100, 100, 0, 0},
}

//CongestedColor and FlowingColor paint the congestion status line
var (
	CongestedColor = color.RGBA{255, 0, 0, 0}
	FlowingColor   = color.RGBA{0, 255, 0, 0}
)

//PanelTextColor and PanelBackgroundColor are used by the overlay panels
var (
	PanelTextColor       = color.RGBA{255, 255, 255, 0}
	PanelBackgroundColor = color.RGBA{0, 0, 0, 0}
)

//ClassColor returns the box color of given class id
func ClassColor(classID int) color.RGBA {
	if c, ok := ClassColors[classID]; ok {
		return c
	}

	return DefaultClassColor
}
