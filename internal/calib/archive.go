package calib

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/sbinet/npyio/npz"
	"gonum.org/v1/gonum/mat"

	"github.com/banshee-data/fiducial/internal/fsutil"
)

// ArchiveName is the file the calibrator writes and the pose estimator reads.
const ArchiveName = "MultiMatrix.npz"

// Array names inside the archive.
const (
	KeyCameraMatrix = "camMatrix"
	KeyDistortion   = "distCoef"
	KeyRotations    = "rVector"
	KeyTranslations = "tVector"
)

var (
	// ErrMissingArray is returned when an archive lacks one of the four arrays.
	ErrMissingArray = errors.New("calibration archive missing array")
	// ErrBadShape is returned when an array has the wrong dimensions.
	ErrBadShape = errors.New("calibration array has unexpected shape")
)

// SaveArchive writes r to path as an npz archive of four float64 arrays:
// camMatrix (3×3), distCoef (1×5), rVector (N×3) and tVector (N×3).
func SaveArchive(fs fsutil.FileSystem, path string, r Result) error {
	if len(r.RVecs) == 0 || len(r.RVecs) != len(r.TVecs) {
		return fmt.Errorf("%w: %d rotations, %d translations", ErrNoViews, len(r.RVecs), len(r.TVecs))
	}

	w, err := fs.Create(path)
	if err != nil {
		return fmt.Errorf("create archive: %w", err)
	}
	zw := npz.NewWriter(w)

	arrays := []struct {
		key string
		m   *mat.Dense
	}{
		{KeyCameraMatrix, matrixDense(r.CameraMatrix)},
		{KeyDistortion, mat.NewDense(1, 5, r.Distortion[:])},
		{KeyRotations, vecsDense(r.RVecs)},
		{KeyTranslations, vecsDense(r.TVecs)},
	}
	for _, a := range arrays {
		if err := zw.Write(a.key, a.m); err != nil {
			zw.Close()
			w.Close()
			return fmt.Errorf("write %s: %w", a.key, err)
		}
	}
	if err := zw.Close(); err != nil {
		w.Close()
		return fmt.Errorf("finalise archive: %w", err)
	}
	return w.Close()
}

// LoadArchive reads a calibration archive written by SaveArchive or by
// numpy's savez. Entry names may carry a .npy suffix, and arrays are read in
// C order regardless of shape, so OpenCV's (N,3,1) pose vectors load as N×3.
func LoadArchive(fs fsutil.FileSystem, path string) (Result, error) {
	data, err := fs.ReadFile(path)
	if err != nil {
		return Result{}, fmt.Errorf("read archive: %w", err)
	}
	zr, err := npz.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return Result{}, fmt.Errorf("open archive %s: %w", path, err)
	}
	defer zr.Close()

	entries := make(map[string]string)
	for _, k := range zr.Keys() {
		entries[strings.TrimSuffix(k, ".npy")] = k
	}
	read := func(key string) ([]float64, error) {
		entry, ok := entries[key]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrMissingArray, key)
		}
		var v []float64
		if err := zr.Read(entry, &v); err != nil {
			return nil, fmt.Errorf("read %s: %w", key, err)
		}
		return v, nil
	}

	var r Result
	cm, err := read(KeyCameraMatrix)
	if err != nil {
		return Result{}, err
	}
	if len(cm) != 9 {
		return Result{}, fmt.Errorf("%w: %s has %d values, want 9", ErrBadShape, KeyCameraMatrix, len(cm))
	}
	for i := 0; i < 3; i++ {
		copy(r.CameraMatrix[i][:], cm[3*i:3*i+3])
	}

	dc, err := read(KeyDistortion)
	if err != nil {
		return Result{}, err
	}
	if len(dc) != 5 {
		return Result{}, fmt.Errorf("%w: %s has %d values, want 5", ErrBadShape, KeyDistortion, len(dc))
	}
	copy(r.Distortion[:], dc)

	if r.RVecs, err = readVecs(read, KeyRotations); err != nil {
		return Result{}, err
	}
	if r.TVecs, err = readVecs(read, KeyTranslations); err != nil {
		return Result{}, err
	}
	return r, nil
}

func readVecs(read func(string) ([]float64, error), key string) ([][3]float64, error) {
	v, err := read(key)
	if err != nil {
		return nil, err
	}
	if len(v)%3 != 0 {
		return nil, fmt.Errorf("%w: %s has %d values, not a multiple of 3", ErrBadShape, key, len(v))
	}
	out := make([][3]float64, len(v)/3)
	for i := range out {
		copy(out[i][:], v[3*i:3*i+3])
	}
	return out, nil
}

func matrixDense(m [3][3]float64) *mat.Dense {
	d := mat.NewDense(3, 3, nil)
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			d.Set(i, j, m[i][j])
		}
	}
	return d
}

func vecsDense(vs [][3]float64) *mat.Dense {
	d := mat.NewDense(len(vs), 3, nil)
	for i, v := range vs {
		d.SetRow(i, v[:])
	}
	return d
}
