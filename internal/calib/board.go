// Package calib builds checkerboard correspondences, drives the camera
// calibration solve, persists the result as MultiMatrix.npz and provides the
// pinhole projection model shared with the pose estimator.
package calib

import "image"

// Point2 is an image-plane point in pixels.
type Point2 struct {
	X, Y float64
}

// Point3 is a point in board or marker coordinates.
type Point3 struct {
	X, Y, Z float64
}

// Board describes a checkerboard by its inner corner counts and square size.
type Board struct {
	Cols       int
	Rows       int
	SquareSize float64
}

// DefaultBoard is the 9×6 board with 13.5 mm squares.
var DefaultBoard = Board{Cols: 9, Rows: 6, SquareSize: 13.5}

// PatternSize returns the inner-corner grid as (cols, rows).
func (b Board) PatternSize() image.Point {
	return image.Pt(b.Cols, b.Rows)
}

// Corners returns the number of inner corners on the board.
func (b Board) Corners() int {
	return b.Cols * b.Rows
}

// ObjectPoints returns the board corners in board coordinates. X varies
// fastest: point k is ((k mod Cols)·s, (k div Cols)·s, 0).
func (b Board) ObjectPoints() []Point3 {
	pts := make([]Point3, 0, b.Corners())
	for r := 0; r < b.Rows; r++ {
		for c := 0; c < b.Cols; c++ {
			pts = append(pts, Point3{
				X: float64(c) * b.SquareSize,
				Y: float64(r) * b.SquareSize,
			})
		}
	}
	return pts
}
