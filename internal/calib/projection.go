package calib

import "math"

// Camera is a pinhole camera with Brown-Conrady distortion.
type Camera struct {
	Fx, Fy float64
	Cx, Cy float64
	Skew   float64
	Dist   [5]float64
}

// Matrix returns the 3×3 intrinsic matrix.
func (c Camera) Matrix() [3][3]float64 {
	return [3][3]float64{
		{c.Fx, c.Skew, c.Cx},
		{0, c.Fy, c.Cy},
		{0, 0, 1},
	}
}

// Distort maps an ideal normalised image point to its distorted position.
func (c Camera) Distort(x, y float64) (float64, float64) {
	k1, k2, p1, p2, k3 := c.Dist[0], c.Dist[1], c.Dist[2], c.Dist[3], c.Dist[4]
	r2 := x*x + y*y
	radial := 1 + r2*(k1+r2*(k2+r2*k3))
	xd := x*radial + 2*p1*x*y + p2*(r2+2*x*x)
	yd := y*radial + p1*(r2+2*y*y) + 2*p2*x*y
	return xd, yd
}

// Undistort maps a pixel to ideal normalised coordinates by fixed-point
// iteration on the distortion model.
func (c Camera) Undistort(p Point2) (float64, float64) {
	k1, k2, p1, p2, k3 := c.Dist[0], c.Dist[1], c.Dist[2], c.Dist[3], c.Dist[4]
	y0 := (p.Y - c.Cy) / c.Fy
	x0 := (p.X - c.Cx - c.Skew*y0) / c.Fx
	x, y := x0, y0
	for i := 0; i < 20; i++ {
		r2 := x*x + y*y
		icdist := 1 / (1 + r2*(k1+r2*(k2+r2*k3)))
		dx := 2*p1*x*y + p2*(r2+2*x*x)
		dy := p1*(r2+2*y*y) + 2*p2*x*y
		x = (x0 - dx) * icdist
		y = (y0 - dy) * icdist
	}
	return x, y
}

// Project maps an object point through the pose (rvec, tvec) to pixels.
func (c Camera) Project(p Point3, rvec, tvec [3]float64) Point2 {
	cp := Transform(p, rvec, tvec)
	x, y := cp.X/cp.Z, cp.Y/cp.Z
	xd, yd := c.Distort(x, y)
	return Point2{
		X: c.Fx*xd + c.Skew*yd + c.Cx,
		Y: c.Fy*yd + c.Cy,
	}
}

// Transform applies R(rvec)·p + tvec.
func Transform(p Point3, rvec, tvec [3]float64) Point3 {
	r := Rodrigues(rvec)
	return Point3{
		X: r[0][0]*p.X + r[0][1]*p.Y + r[0][2]*p.Z + tvec[0],
		Y: r[1][0]*p.X + r[1][1]*p.Y + r[1][2]*p.Z + tvec[1],
		Z: r[2][0]*p.X + r[2][1]*p.Y + r[2][2]*p.Z + tvec[2],
	}
}

// Rodrigues converts an axis-angle vector to a rotation matrix.
func Rodrigues(rvec [3]float64) [3][3]float64 {
	theta := math.Sqrt(rvec[0]*rvec[0] + rvec[1]*rvec[1] + rvec[2]*rvec[2])
	if theta < 1e-12 {
		return [3][3]float64{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}}
	}
	kx, ky, kz := rvec[0]/theta, rvec[1]/theta, rvec[2]/theta
	s, c := math.Sincos(theta)
	v := 1 - c
	return [3][3]float64{
		{c + kx*kx*v, kx*ky*v - kz*s, kx*kz*v + ky*s},
		{ky*kx*v + kz*s, c + ky*ky*v, ky*kz*v - kx*s},
		{kz*kx*v - ky*s, kz*ky*v + kx*s, c + kz*kz*v},
	}
}

// RotationVector converts a rotation matrix to an axis-angle vector.
func RotationVector(r [3][3]float64) [3]float64 {
	cosTheta := (r[0][0] + r[1][1] + r[2][2] - 1) / 2
	cosTheta = math.Max(-1, math.Min(1, cosTheta))
	theta := math.Acos(cosTheta)

	if theta < 1e-12 {
		return [3]float64{}
	}
	if math.Pi-theta > 1e-6 {
		s := 2 * math.Sin(theta)
		return [3]float64{
			(r[2][1] - r[1][2]) / s * theta,
			(r[0][2] - r[2][0]) / s * theta,
			(r[1][0] - r[0][1]) / s * theta,
		}
	}

	// theta ≈ π: axis from the diagonal of (R+I)/2.
	ax := math.Sqrt(math.Max(0, (r[0][0]+1)/2))
	ay := math.Sqrt(math.Max(0, (r[1][1]+1)/2))
	az := math.Sqrt(math.Max(0, (r[2][2]+1)/2))
	switch {
	case ax >= ay && ax >= az:
		ay = math.Copysign(ay, r[0][1]+r[1][0])
		az = math.Copysign(az, r[0][2]+r[2][0])
	case ay >= az:
		ax = math.Copysign(ax, r[0][1]+r[1][0])
		az = math.Copysign(az, r[1][2]+r[2][1])
	default:
		ax = math.Copysign(ax, r[0][2]+r[2][0])
		ay = math.Copysign(ay, r[1][2]+r[2][1])
	}
	return [3]float64{ax * theta, ay * theta, az * theta}
}
