package pose

import (
	"fmt"
	"image"

	"github.com/banshee-data/fiducial/internal/aruco"
	"github.com/banshee-data/fiducial/internal/calib"
)

// Estimate is the pose of one detected marker.
type Estimate struct {
	MarkerID int
	Corners  [4]calib.Point2
	RVec     [3]float64
	TVec     [3]float64
	Distance float64
}

// Estimator solves single-marker poses against one calibration.
type Estimator struct {
	Camera     calib.Camera
	MarkerSize float64
}

// NewEstimator builds an Estimator from a loaded calibration.
func NewEstimator(r calib.Result, markerSize float64) *Estimator {
	return &Estimator{Camera: r.Camera(), MarkerSize: markerSize}
}

// Estimate solves every marker in detection order; estimate i always belongs
// to marker i. Markers whose corners are degenerate are skipped.
func (e *Estimator) Estimate(markers []aruco.Marker) []Estimate {
	out := make([]Estimate, 0, len(markers))
	for _, m := range markers {
		est, err := e.EstimateOne(m)
		if err != nil {
			continue
		}
		out = append(out, est)
	}
	return out
}

// EstimateOne solves the pose of a single marker.
func (e *Estimator) EstimateOne(m aruco.Marker) (Estimate, error) {
	var corners [4]calib.Point2
	for i, c := range m.Corners {
		corners[i] = calib.Point2{X: c.X, Y: c.Y}
	}
	rvec, tvec, err := Solve(e.Camera, corners, e.MarkerSize)
	if err != nil {
		return Estimate{}, fmt.Errorf("marker %d: %w", m.ID, err)
	}
	return Estimate{
		MarkerID: m.ID,
		Corners:  corners,
		RVec:     rvec,
		TVec:     tvec,
		Distance: Distance(tvec),
	}, nil
}

// Overlay drawing parameters.
const (
	OutlineThickness = 4
	AxisLength       = 4
	AxisThickness    = 4
)

// Overlay is the set of pixel primitives drawn for one estimate.
type Overlay struct {
	Outline [4]image.Point
	// Axes holds the projected origin followed by the X, Y and Z axis tips.
	Axes    [4]image.Point
	Label   string
	LabelAt image.Point
}

// AxisPoints projects the marker origin and the tips of its three axes.
func AxisPoints(cam calib.Camera, rvec, tvec [3]float64, length float64) [4]calib.Point2 {
	pts := [4]calib.Point3{{}, {X: length}, {Y: length}, {Z: length}}
	var out [4]calib.Point2
	for i, p := range pts {
		out[i] = cam.Project(p, rvec, tvec)
	}
	return out
}

// BuildOverlay converts an estimate into drawing primitives. unit is appended
// to the distance text.
func (e *Estimator) BuildOverlay(est Estimate, unit string) Overlay {
	var ov Overlay
	for i, c := range est.Corners {
		ov.Outline[i] = image.Pt(int(c.X), int(c.Y))
	}
	for i, p := range AxisPoints(e.Camera, est.RVec, est.TVec, AxisLength) {
		ov.Axes[i] = image.Pt(int(p.X), int(p.Y))
	}
	ov.Label = fmt.Sprintf("id: %d Dist: %.2f %s", est.MarkerID, est.Distance, unit)
	ov.LabelAt = ov.Outline[aruco.TopRight]
	return ov
}
