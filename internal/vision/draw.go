package vision

import (
	"image"
	"image/color"

	"gocv.io/x/gocv"

	"github.com/banshee-data/fiducial/internal/aruco"
	"github.com/banshee-data/fiducial/internal/pose"
)

var (
	outlineColor = color.RGBA{R: 255, G: 255, B: 0, A: 0}
	axisColors   = [3]color.RGBA{
		{R: 255, G: 0, B: 0, A: 0},
		{R: 0, G: 255, B: 0, A: 0},
		{R: 0, G: 0, B: 255, A: 0},
	}
	counterColor = color.RGBA{R: 0, G: 255, B: 0, A: 0}
)

// DrawAnnotation draws a marker outline, centroid dot and ID label.
func DrawAnnotation(img *gocv.Mat, a aruco.Annotation) {
	for _, e := range a.Edges() {
		gocv.Line(img, e[0], e[1], aruco.EdgeColor, aruco.EdgeThickness)
	}
	gocv.Circle(img, a.Centroid, aruco.CentroidRadius, aruco.CentroidColor, -1)
	gocv.PutText(img, a.Label, a.LabelAt, gocv.FontHersheySimplex, aruco.LabelScale, aruco.LabelColor, aruco.LabelThickness)
}

// DrawOverlay draws a pose outline, its three axes and the distance label.
func DrawOverlay(img *gocv.Mat, ov pose.Overlay) {
	for i := range ov.Outline {
		gocv.Line(img, ov.Outline[i], ov.Outline[(i+1)%4], outlineColor, pose.OutlineThickness)
	}
	for i := 1; i < 4; i++ {
		gocv.Line(img, ov.Axes[0], ov.Axes[i], axisColors[i-1], pose.AxisThickness)
	}
	gocv.PutText(img, ov.Label, ov.LabelAt, gocv.FontHersheyPlain, 1.3, outlineColor, 2)
}

// DrawCounter writes a status line in the top-left corner.
func DrawCounter(img *gocv.Mat, text string) {
	gocv.PutText(img, text, image.Pt(30, 40), gocv.FontHersheyPlain, 1.4, counterColor, 2)
}
