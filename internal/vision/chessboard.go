package vision

import (
	"fmt"
	"image"

	"gocv.io/x/gocv"

	"github.com/banshee-data/fiducial/internal/calib"
)

// ChessboardFinder locates checkerboard corners with OpenCV and refines
// them to sub-pixel accuracy.
type ChessboardFinder struct{}

// FindCorners implements calib.CornerFinder for an image file.
func (f ChessboardFinder) FindCorners(path string, board calib.Board) ([]calib.Point2, image.Point, error) {
	img, err := ReadImage(path)
	if err != nil {
		return nil, image.Point{}, err
	}
	defer img.Close()

	gray := Gray(img)
	defer gray.Close()

	corners, err := f.FindInGray(gray, board)
	if err != nil {
		return nil, image.Point{}, err
	}
	defer corners.Close()

	return cornerPoints(corners), image.Pt(gray.Cols(), gray.Rows()), nil
}

// FindInGray searches a grayscale frame and returns the refined corners as
// an N×1 two-channel float Mat owned by the caller.
func (ChessboardFinder) FindInGray(gray gocv.Mat, board calib.Board) (gocv.Mat, error) {
	corners := gocv.NewMat()
	found := gocv.FindChessboardCorners(gray, board.PatternSize(), &corners,
		gocv.CalibCBAdaptiveThresh|gocv.CalibCBNormalizeImage)
	if !found || corners.Rows() != board.Corners() {
		corners.Close()
		return gocv.NewMat(), calib.ErrBoardNotFound
	}

	criteria := gocv.NewTermCriteria(gocv.Count|gocv.EPS, calib.SubPixIterations, calib.SubPixEpsilon)
	win := image.Pt(calib.SubPixWindow, calib.SubPixWindow)
	gocv.CornerSubPix(gray, &corners, win, image.Pt(-1, -1), criteria)
	return corners, nil
}

// DrawCorners renders the detected pattern onto img.
func DrawCorners(img *gocv.Mat, board calib.Board, corners gocv.Mat) {
	gocv.DrawChessboardCorners(img, board.PatternSize(), corners, true)
}

func cornerPoints(m gocv.Mat) []calib.Point2 {
	pts := make([]calib.Point2, m.Rows())
	for i := range pts {
		v := m.GetVecfAt(i, 0)
		pts[i] = calib.Point2{X: float64(v[0]), Y: float64(v[1])}
	}
	return pts
}

// CalibrationSolver runs OpenCV's calibrateCamera.
type CalibrationSolver struct{}

// Calibrate implements calib.Solver.
func (CalibrationSolver) Calibrate(objectPoints [][]calib.Point3, imagePoints [][]calib.Point2, size image.Point) (calib.Result, error) {
	if len(objectPoints) == 0 || len(objectPoints) != len(imagePoints) {
		return calib.Result{}, calib.ErrNoViews
	}

	obj := gocv.NewPoints3fVector()
	defer obj.Close()
	img := gocv.NewPoints2fVector()
	defer img.Close()
	for v := range objectPoints {
		op := make([]gocv.Point3f, len(objectPoints[v]))
		for i, p := range objectPoints[v] {
			op[i] = gocv.Point3f{X: float32(p.X), Y: float32(p.Y), Z: float32(p.Z)}
		}
		ov := gocv.NewPoint3fVectorFromPoints(op)
		obj.Append(ov)
		ov.Close()

		ip := make([]gocv.Point2f, len(imagePoints[v]))
		for i, p := range imagePoints[v] {
			ip[i] = gocv.Point2f{X: float32(p.X), Y: float32(p.Y)}
		}
		iv := gocv.NewPoint2fVectorFromPoints(ip)
		img.Append(iv)
		iv.Close()
	}

	cam := gocv.NewMat()
	defer cam.Close()
	dist := gocv.NewMat()
	defer dist.Close()
	rvecs := gocv.NewMat()
	defer rvecs.Close()
	tvecs := gocv.NewMat()
	defer tvecs.Close()

	rms := gocv.CalibrateCamera(obj, img, size, &cam, &dist, &rvecs, &tvecs, gocv.CalibFlag(0))
	if cam.Empty() || dist.Empty() {
		return calib.Result{}, fmt.Errorf("calibrateCamera produced no intrinsics")
	}

	var r calib.Result
	r.RMS = rms
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			r.CameraMatrix[i][j] = cam.GetDoubleAt(i, j)
		}
	}
	for j := 0; j < 5 && j < dist.Cols()*dist.Rows(); j++ {
		if dist.Rows() == 1 {
			r.Distortion[j] = dist.GetDoubleAt(0, j)
		} else {
			r.Distortion[j] = dist.GetDoubleAt(j, 0)
		}
	}
	r.RVecs = vec3s(rvecs)
	r.TVecs = vec3s(tvecs)
	return r, nil
}

func vec3s(m gocv.Mat) [][3]float64 {
	out := make([][3]float64, m.Rows())
	for i := range out {
		v := m.GetVecdAt(i, 0)
		out[i] = [3]float64{v[0], v[1], v[2]}
	}
	return out
}
