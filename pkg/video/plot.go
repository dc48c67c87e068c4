package video

import (
	"image"
	"image/color"

	"github.com/trafficlens/congestion/pkg/congestion"
	"github.com/trafficlens/congestion/pkg/utils"
	"gocv.io/x/gocv"
)

const (
	panelMargin     = 10
	panelTop        = 30
	panelLineHeight = 30
	panelPad        = 5
	statusPanelW    = 250 //status panel starts this far from the right edge
)

//plotResult draws everything the analysis produced for one frame
func plotResult(frame *gocv.Mat, res *congestion.FrameResult) {
	for _, info := range res.Tracks {
		plotVehicleOnFrame(frame, info)
	}

	plotUniqueCounts(frame, res)
	plotStatus(frame, res)
}

//plotVehicleOnFrame plots a tracked box in its class color and writes its class and smoothed speed above it
func plotVehicleOnFrame(frame *gocv.Mat, info congestion.TrackInfo) {
	plotColor := utils.ClassColor(info.ClassID)

	gocv.Rectangle(frame, info.Box, plotColor, 2)
	gocv.PutText(frame, utils.TrackLabel(info), image.Pt(info.Box.Min.X, info.Box.Min.Y-5), gocv.FontHersheySimplex, 0.5, plotColor, 2)
}

//plotUniqueCounts writes the cumulative unique objects panel at the top left corner
func plotUniqueCounts(frame *gocv.Mat, res *congestion.FrameResult) {
	for i, line := range utils.UniqueLines(res) {
		scale := 0.5
		if i == 0 { //total line is bigger
			scale = 0.7
		}
		plotPanelText(frame, line, image.Pt(panelMargin, panelTop+i*panelLineHeight), scale, utils.PanelTextColor)
	}
}

//plotStatus writes congestion verdict and average speed at the top right corner
func plotStatus(frame *gocv.Mat, res *congestion.FrameResult) {
	statusColor := utils.FlowingColor
	if res.IsCongested {
		statusColor = utils.CongestedColor
	}

	verdict, avgSpeed := utils.StatusLines(res)
	x := frame.Cols() - statusPanelW

	plotPanelText(frame, verdict, image.Pt(x, panelTop), 0.7, statusColor)
	plotPanelText(frame, avgSpeed, image.Pt(x, panelTop+panelLineHeight), 0.7, utils.PanelTextColor)
}

//plotPanelText puts text on a filled background box so it stays readable over any scene
func plotPanelText(frame *gocv.Mat, text string, org image.Point, scale float64, textColor color.RGBA) {
	size := gocv.GetTextSize(text, gocv.FontHersheySimplex, scale, 2)
	background := image.Rect(org.X-panelPad, org.Y-size.Y-panelPad, org.X+size.X+panelPad, org.Y+panelPad)

	gocv.Rectangle(frame, background, utils.PanelBackgroundColor, -1) //thickness -1 == filled rectangle
	gocv.PutText(frame, text, org, gocv.FontHersheySimplex, scale, textColor, 2)
}
