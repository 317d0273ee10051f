package calib

import (
	"context"
	"errors"
	"fmt"
	"image"
	"path/filepath"
	"strings"

	"github.com/banshee-data/fiducial/internal/fsutil"
	"github.com/banshee-data/fiducial/internal/monitoring"
)

// ErrNoViews is returned when no image yielded a usable board.
var ErrNoViews = errors.New("no checkerboard views found")

// ErrBoardNotFound is returned by a CornerFinder when the image is readable
// but holds no complete board.
var ErrBoardNotFound = errors.New("checkerboard not found")

// Sub-pixel refinement parameters.
const (
	SubPixWindow     = 3
	SubPixIterations = 30
	SubPixEpsilon    = 0.001
)

// CornerFinder locates and sub-pixel refines the inner corners of board in
// the image at path. It returns ErrBoardNotFound when the board is absent.
type CornerFinder interface {
	FindCorners(path string, board Board) (corners []Point2, size image.Point, err error)
}

// Solver runs the nonlinear calibration over every accumulated view.
type Solver interface {
	Calibrate(objectPoints [][]Point3, imagePoints [][]Point2, size image.Point) (Result, error)
}

// View is one image that contributed correspondences.
type View struct {
	Name    string
	Corners []Point2
}

// Calibrator accumulates views from a directory and solves once.
type Calibrator struct {
	FS     fsutil.FileSystem
	Finder CornerFinder
	Solver Solver
	Board  Board
}

// Run processes every file in dir in lexical order. Files that cannot be
// read or that hold no board are skipped.
func (c *Calibrator) Run(ctx context.Context, dir string) (Result, []View, error) {
	defer monitoring.Timed("calibrate")()

	names, err := c.FS.ReadDir(dir)
	if err != nil {
		return Result{}, nil, fmt.Errorf("list %s: %w", dir, err)
	}

	objp := c.Board.ObjectPoints()
	var (
		views        []View
		objectPoints [][]Point3
		imagePoints  [][]Point2
		size         image.Point
	)
	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return Result{}, nil, err
		}
		if !IsImageFile(name) {
			continue
		}
		path := filepath.Join(dir, name)
		corners, sz, err := c.Finder.FindCorners(path, c.Board)
		if err != nil {
			monitoring.Logf("skipping %s: %v", name, err)
			continue
		}
		if len(corners) != len(objp) {
			monitoring.Logf("skipping %s: found %d corners, want %d", name, len(corners), len(objp))
			continue
		}
		size = sz
		views = append(views, View{Name: name, Corners: corners})
		objectPoints = append(objectPoints, objp)
		imagePoints = append(imagePoints, corners)
	}
	if len(views) == 0 {
		return Result{}, nil, fmt.Errorf("%w in %s", ErrNoViews, dir)
	}

	res, err := c.Solver.Calibrate(objectPoints, imagePoints, size)
	if err != nil {
		return Result{}, views, fmt.Errorf("calibration solve: %w", err)
	}
	if res.Views() != len(views) {
		return Result{}, views, fmt.Errorf("solver returned %d poses for %d views", res.Views(), len(views))
	}
	monitoring.Logf("calibrated from %d views, rms %.4f px", len(views), res.RMS)
	return res, views, nil
}

// ObjectPointsFor returns one copy of the board's object points per view.
func (c *Calibrator) ObjectPointsFor(views []View) [][]Point3 {
	objp := c.Board.ObjectPoints()
	out := make([][]Point3, len(views))
	for i := range out {
		out[i] = objp
	}
	return out
}

// ImagePointsFor returns the refined corners of each view.
func ImagePointsFor(views []View) [][]Point2 {
	out := make([][]Point2, len(views))
	for i, v := range views {
		out[i] = v.Corners
	}
	return out
}

var imageExts = map[string]bool{
	".png": true, ".jpg": true, ".jpeg": true, ".bmp": true,
	".tif": true, ".tiff": true, ".webp": true, ".ppm": true, ".pgm": true,
}

// IsImageFile reports whether name has an extension OpenCV can decode.
func IsImageFile(name string) bool {
	return imageExts[strings.ToLower(filepath.Ext(name))]
}
