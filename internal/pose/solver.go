// Package pose recovers the rigid transform of a square marker relative to a
// calibrated camera from its four image corners.
package pose

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/diff/fd"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize"

	"github.com/banshee-data/fiducial/internal/calib"
)

// ErrDegenerate is returned when the corners do not define a usable plane.
var ErrDegenerate = errors.New("degenerate marker corners")

// ObjectPoints returns the marker corners in marker coordinates for a square
// of side length size, in detector order TL, TR, BR, BL.
func ObjectPoints(size float64) [4]calib.Point3 {
	h := size / 2
	return [4]calib.Point3{
		{X: -h, Y: h},
		{X: h, Y: h},
		{X: h, Y: -h},
		{X: -h, Y: -h},
	}
}

// Solve estimates the pose of a square marker of side size whose corners
// were observed at the given pixels. It returns the rotation vector and the
// translation in the same units as size.
func Solve(cam calib.Camera, corners [4]calib.Point2, size float64) ([3]float64, [3]float64, error) {
	if size <= 0 {
		return [3]float64{}, [3]float64{}, fmt.Errorf("%w: marker size %g", ErrDegenerate, size)
	}
	obj := ObjectPoints(size)

	rvec, tvec, err := initialPose(cam, obj, corners)
	if err != nil {
		return [3]float64{}, [3]float64{}, err
	}
	rvec, tvec = refine(cam, obj, corners, rvec, tvec)
	return rvec, tvec, nil
}

// initialPose fits a plane-to-image homography on undistorted normalised
// coordinates and decomposes it into R|t.
func initialPose(cam calib.Camera, obj [4]calib.Point3, corners [4]calib.Point2) ([3]float64, [3]float64, error) {
	a := mat.NewDense(8, 9, nil)
	for i := 0; i < 4; i++ {
		X, Y := obj[i].X, obj[i].Y
		x, y := cam.Undistort(corners[i])
		a.SetRow(2*i, []float64{X, Y, 1, 0, 0, 0, -x * X, -x * Y, -x})
		a.SetRow(2*i+1, []float64{0, 0, 0, X, Y, 1, -y * X, -y * Y, -y})
	}

	var svd mat.SVD
	if ok := svd.Factorize(a, mat.SVDFull); !ok {
		return [3]float64{}, [3]float64{}, fmt.Errorf("%w: homography factorisation failed", ErrDegenerate)
	}
	var v mat.Dense
	svd.VTo(&v)
	h := mat.Col(nil, 8, &v)

	h1 := [3]float64{h[0], h[3], h[6]}
	h2 := [3]float64{h[1], h[4], h[7]}
	h3 := [3]float64{h[2], h[5], h[8]}

	n1, n2 := norm(h1), norm(h2)
	if n1 < 1e-12 || n2 < 1e-12 {
		return [3]float64{}, [3]float64{}, ErrDegenerate
	}
	lambda := 2 / (n1 + n2)
	if h3[2] < 0 {
		lambda = -lambda
	}

	r1 := scale(h1, lambda)
	r2 := scale(h2, lambda)
	t := scale(h3, lambda)
	r3 := cross(r1, r2)

	rot, err := orthonormalise([3][3]float64{
		{r1[0], r2[0], r3[0]},
		{r1[1], r2[1], r3[1]},
		{r1[2], r2[2], r3[2]},
	})
	if err != nil {
		return [3]float64{}, [3]float64{}, err
	}
	return calib.RotationVector(rot), t, nil
}

// orthonormalise returns the rotation closest to m in the Frobenius norm.
func orthonormalise(m [3][3]float64) ([3][3]float64, error) {
	d := mat.NewDense(3, 3, []float64{
		m[0][0], m[0][1], m[0][2],
		m[1][0], m[1][1], m[1][2],
		m[2][0], m[2][1], m[2][2],
	})
	var svd mat.SVD
	if ok := svd.Factorize(d, mat.SVDFull); !ok {
		return m, fmt.Errorf("%w: rotation factorisation failed", ErrDegenerate)
	}
	var u, v, r mat.Dense
	svd.UTo(&u)
	svd.VTo(&v)
	r.Mul(&u, v.T())
	if mat.Det(&r) < 0 {
		return m, fmt.Errorf("%w: reflected rotation", ErrDegenerate)
	}

	var out [3][3]float64
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			out[i][j] = r.At(i, j)
		}
	}
	return out, nil
}

// refine minimises pixel reprojection error starting from the homography
// estimate. The starting pose is kept when the optimiser does not improve it.
func refine(cam calib.Camera, obj [4]calib.Point3, corners [4]calib.Point2, rvec, tvec [3]float64) ([3]float64, [3]float64) {
	cost := func(x []float64) float64 {
		r := [3]float64{x[0], x[1], x[2]}
		t := [3]float64{x[3], x[4], x[5]}
		var sum float64
		for i, p := range obj {
			proj := cam.Project(p, r, t)
			dx, dy := proj.X-corners[i].X, proj.Y-corners[i].Y
			sum += dx*dx + dy*dy
		}
		return sum
	}
	x0 := []float64{rvec[0], rvec[1], rvec[2], tvec[0], tvec[1], tvec[2]}
	f0 := cost(x0)
	if f0 < 1e-18 {
		return rvec, tvec
	}

	problem := optimize.Problem{
		Func: cost,
		Grad: func(grad, x []float64) {
			fd.Gradient(grad, cost, x, &fd.Settings{Formula: fd.Central})
		},
	}
	settings := &optimize.Settings{
		MajorIterations: 200,
		Converger:       &optimize.FunctionConverge{Absolute: 1e-12, Iterations: 20},
	}
	res, err := optimize.Minimize(problem, x0, settings, &optimize.LBFGS{})
	if err != nil && res == nil {
		return rvec, tvec
	}
	if res.F >= f0 || math.IsNaN(res.F) {
		return rvec, tvec
	}
	return [3]float64{res.X[0], res.X[1], res.X[2]}, [3]float64{res.X[3], res.X[4], res.X[5]}
}

// Distance is the Euclidean norm of a translation vector.
func Distance(tvec [3]float64) float64 {
	return norm(tvec)
}

func norm(v [3]float64) float64 {
	return math.Sqrt(v[0]*v[0] + v[1]*v[1] + v[2]*v[2])
}

func scale(v [3]float64, s float64) [3]float64 {
	return [3]float64{v[0] * s, v[1] * s, v[2] * s}
}

func cross(a, b [3]float64) [3]float64 {
	return [3]float64{
		a[1]*b[2] - a[2]*b[1],
		a[2]*b[0] - a[0]*b[2],
		a[0]*b[1] - a[1]*b[0],
	}
}
