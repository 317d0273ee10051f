package pose

import (
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/fiducial/internal/aruco"
	"github.com/banshee-data/fiducial/internal/calib"
	"github.com/banshee-data/fiducial/internal/testutil"
)

func markerAt(id int, rvec, tvec [3]float64) aruco.Marker {
	m := aruco.Marker{ID: id}
	for i, c := range project(rvec, tvec, 13.5) {
		m.Corners[i] = aruco.Point{X: c.X, Y: c.Y}
	}
	return m
}

func TestEstimator_IndexAligned(t *testing.T) {
	e := &Estimator{Camera: cam, MarkerSize: 13.5}
	near := [3]float64{-20, 0, 200}
	far := [3]float64{30, 10, 500}
	markers := []aruco.Marker{
		markerAt(7, [3]float64{3.1, 0, 0}, far),
		markerAt(2, [3]float64{3.1, 0, 0}, near),
	}

	got := e.Estimate(markers)
	require.Len(t, got, 2)
	assert.Equal(t, 7, got[0].MarkerID)
	assert.Equal(t, 2, got[1].MarkerID)
	testutil.AssertVec3Near(t, "far", got[0].TVec, far, 1e-3)
	testutil.AssertVec3Near(t, "near", got[1].TVec, near, 1e-3)
	testutil.AssertNear(t, "distance", got[1].Distance, Distance(near), 1e-3)
}

func TestEstimator_SkipsDegenerate(t *testing.T) {
	e := &Estimator{Camera: cam, MarkerSize: 0}
	assert.Empty(t, e.Estimate([]aruco.Marker{{ID: 1}}))
}

func TestNewEstimator(t *testing.T) {
	r := calib.Result{CameraMatrix: cam.Matrix(), Distortion: cam.Dist}
	e := NewEstimator(r, 13.5)
	assert.Equal(t, cam, e.Camera)
	assert.Equal(t, 13.5, e.MarkerSize)
}

func TestBuildOverlay(t *testing.T) {
	e := &Estimator{Camera: calib.Camera{Fx: 1000, Fy: 1000, Cx: 500, Cy: 400}, MarkerSize: 13.5}
	est := Estimate{
		MarkerID: 4,
		Corners:  [4]calib.Point2{{X: 10.7, Y: 20.2}, {X: 60.9, Y: 20.1}, {X: 61.5, Y: 70.3}, {X: 10.2, Y: 70.8}},
		RVec:     [3]float64{},
		TVec:     [3]float64{0, 0, 100},
		Distance: 100,
	}
	ov := e.BuildOverlay(est, "mm")

	assert.Equal(t, [4]image.Point{{10, 20}, {60, 20}, {61, 70}, {10, 70}}, ov.Outline)
	assert.Equal(t, image.Pt(500, 400), ov.Axes[0])
	assert.Equal(t, image.Pt(540, 400), ov.Axes[1])
	assert.Equal(t, image.Pt(500, 440), ov.Axes[2])
	assert.Equal(t, "id: 4 Dist: 100.00 mm", ov.Label)
	assert.Equal(t, image.Pt(60, 20), ov.LabelAt)
}
