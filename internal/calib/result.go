package calib

import "math"

// Result is the outcome of one calibration solve.
type Result struct {
	CameraMatrix [3][3]float64
	// Distortion holds k1, k2, p1, p2, k3.
	Distortion [5]float64
	// RVecs and TVecs hold one board pose per usable view.
	RVecs [][3]float64
	TVecs [][3]float64
	// RMS is the solver's overall reprojection error in pixels. It is not
	// persisted.
	RMS float64
}

// Camera extracts the projection model from the result.
func (r Result) Camera() Camera {
	return Camera{
		Fx:   r.CameraMatrix[0][0],
		Fy:   r.CameraMatrix[1][1],
		Cx:   r.CameraMatrix[0][2],
		Cy:   r.CameraMatrix[1][2],
		Skew: r.CameraMatrix[0][1],
		Dist: r.Distortion,
	}
}

// Views returns the number of board poses in the result.
func (r Result) Views() int {
	return len(r.RVecs)
}

// ReprojectionErrors returns the RMS pixel error for each view.
func (r Result) ReprojectionErrors(objectPoints [][]Point3, imagePoints [][]Point2) []float64 {
	cam := r.Camera()
	n := min(len(objectPoints), len(imagePoints), len(r.RVecs), len(r.TVecs))
	errs := make([]float64, n)
	for v := 0; v < n; v++ {
		obj, img := objectPoints[v], imagePoints[v]
		var sum float64
		m := min(len(obj), len(img))
		for i := 0; i < m; i++ {
			p := cam.Project(obj[i], r.RVecs[v], r.TVecs[v])
			dx, dy := p.X-img[i].X, p.Y-img[i].Y
			sum += dx*dx + dy*dy
		}
		if m > 0 {
			errs[v] = math.Sqrt(sum / float64(m))
		}
	}
	return errs
}
