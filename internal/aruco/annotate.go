package aruco

import (
	"image"
	"image/color"
	"strconv"
)

// Colours and sizes used when drawing annotations.
var (
	EdgeColor     = color.RGBA{R: 0, G: 255, B: 0, A: 0}
	CentroidColor = color.RGBA{R: 0, G: 0, B: 255, A: 0}
	LabelColor    = color.RGBA{R: 255, G: 0, B: 0, A: 0}
)

const (
	EdgeThickness  = 2
	CentroidRadius = 4
	LabelScale     = 1.0
	LabelThickness = 3
)

// Annotation is everything needed to draw one marker: a closed 4-edge
// polygon, a centroid dot and the ID label.
type Annotation struct {
	Corners  [4]image.Point
	Centroid image.Point
	Label    string
	LabelAt  image.Point
}

// Edges returns the four polygon edges TL→TR→BR→BL→TL.
func (a Annotation) Edges() [4][2]image.Point {
	var edges [4][2]image.Point
	for i := range a.Corners {
		edges[i] = [2]image.Point{a.Corners[i], a.Corners[(i+1)%4]}
	}
	return edges
}

// Annotate converts a detected marker into drawing primitives. Corners are
// truncated to integer pixels first; the centroid is the truncated midpoint
// of the top-left and bottom-right corners and the label sits at
// (centroid.X, bottomRight.Y).
func Annotate(m Marker) Annotation {
	var a Annotation
	for i, c := range m.Corners {
		a.Corners[i] = image.Pt(int(c.X), int(c.Y))
	}
	a.Centroid = Centroid(a.Corners[TopLeft], a.Corners[BottomRight])
	a.Label = strconv.Itoa(m.ID)
	a.LabelAt = image.Pt(a.Centroid.X, a.Corners[BottomRight].Y)
	return a
}

// Centroid returns int((tl+br)/2) per axis.
func Centroid(tl, br image.Point) image.Point {
	return image.Pt(
		int(float64(tl.X+br.X)/2),
		int(float64(tl.Y+br.Y)/2),
	)
}
