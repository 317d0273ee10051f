package aruco

import "fmt"

// Point is an image-plane coordinate in pixels.
type Point struct {
	X, Y float64
}

// Corner indices, in the order the detector reports them.
const (
	TopLeft = iota
	TopRight
	BottomRight
	BottomLeft
)

// Marker is one detected marker: its ID and four ordered corners.
type Marker struct {
	ID      int
	Corners [4]Point
}

// Detection is the result of running the detector on one frame.
type Detection struct {
	Markers []Marker
	// Rejected counts candidate quads that failed identification. They are
	// reported for diagnostics only and never drawn.
	Rejected int
}

// IDs returns the marker IDs in detection order.
func (d Detection) IDs() []int {
	ids := make([]int, len(d.Markers))
	for i, m := range d.Markers {
		ids[i] = m.ID
	}
	return ids
}

// Summary renders the diagnostic lines printed after each detection.
func (d Detection) Summary(width, height int) []string {
	return []string{
		fmt.Sprintf("Within the image of size (%d, %d):", height, width),
		fmt.Sprintf("    %d tags are detected, with IDs %v.", len(d.Markers), d.IDs()),
		fmt.Sprintf("    %d tags are rejected.", d.Rejected),
	}
}
