package calib

import (
	"errors"
	"math"
	"testing"

	"github.com/sbinet/npyio/npz"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/banshee-data/fiducial/internal/fsutil"
)

func sampleResult() Result {
	return Result{
		CameraMatrix: [3][3]float64{
			{812.4452718838521, 0, 331.0094376312437},
			{0, 809.1300017003112, 245.86251802163702},
			{0, 0, 1},
		},
		Distortion: [5]float64{-0.4146, 0.2113, 0.000987, -0.00111, 1.0 / 3.0},
		RVecs: [][3]float64{
			{0.1, -0.2, 0.3},
			{-0.05, math.Pi / 7, 1e-17},
		},
		TVecs: [][3]float64{
			{-54.2, -38.7, 312.5},
			{12.125, math.SmallestNonzeroFloat64, 401.0},
		},
		RMS: 0.42,
	}
}

func TestArchive_RoundTripBitIdentical(t *testing.T) {
	mfs := fsutil.NewMemoryFileSystem()
	want := sampleResult()
	require.NoError(t, SaveArchive(mfs, ArchiveName, want))

	got, err := LoadArchive(mfs, ArchiveName)
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			assert.Equal(t, math.Float64bits(want.CameraMatrix[i][j]), math.Float64bits(got.CameraMatrix[i][j]))
		}
	}
	for i := range want.Distortion {
		assert.Equal(t, math.Float64bits(want.Distortion[i]), math.Float64bits(got.Distortion[i]))
	}
	assert.Equal(t, want.RVecs, got.RVecs)
	assert.Equal(t, want.TVecs, got.TVecs)
	assert.Equal(t, 0.0, got.RMS, "rms is not persisted")
}

func TestArchive_RequiresViews(t *testing.T) {
	mfs := fsutil.NewMemoryFileSystem()
	err := SaveArchive(mfs, ArchiveName, Result{})
	assert.True(t, errors.Is(err, ErrNoViews))

	r := sampleResult()
	r.TVecs = r.TVecs[:1]
	err = SaveArchive(mfs, ArchiveName, r)
	assert.True(t, errors.Is(err, ErrNoViews))
}

func TestArchive_MissingArray(t *testing.T) {
	mfs := fsutil.NewMemoryFileSystem()
	w, err := mfs.Create("partial.npz")
	require.NoError(t, err)
	zw := npz.NewWriter(w)
	require.NoError(t, zw.Write(KeyCameraMatrix, mat.NewDense(3, 3, []float64{1, 0, 0, 0, 1, 0, 0, 0, 1})))
	require.NoError(t, zw.Close())
	require.NoError(t, w.Close())

	_, err = LoadArchive(mfs, "partial.npz")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMissingArray))
	assert.Contains(t, err.Error(), KeyDistortion)
}

func TestArchive_BadShape(t *testing.T) {
	mfs := fsutil.NewMemoryFileSystem()
	w, err := mfs.Create("bad.npz")
	require.NoError(t, err)
	zw := npz.NewWriter(w)
	require.NoError(t, zw.Write(KeyCameraMatrix, mat.NewDense(2, 2, []float64{1, 0, 0, 1})))
	require.NoError(t, zw.Close())
	require.NoError(t, w.Close())

	_, err = LoadArchive(mfs, "bad.npz")
	assert.True(t, errors.Is(err, ErrBadShape))
}

func TestArchive_LoadsNumpyEntryNames(t *testing.T) {
	mfs := fsutil.NewMemoryFileSystem()
	w, err := mfs.Create("numpy.npz")
	require.NoError(t, err)
	zw := npz.NewWriter(w)
	want := sampleResult()
	require.NoError(t, zw.Write(KeyCameraMatrix+".npy", matrixDense(want.CameraMatrix)))
	require.NoError(t, zw.Write(KeyDistortion+".npy", mat.NewDense(1, 5, want.Distortion[:])))
	// savez stores OpenCV pose vectors as (N,3,1); the C-order values are the same as N×3.
	var rflat, tflat []float64
	for i := range want.RVecs {
		rflat = append(rflat, want.RVecs[i][:]...)
		tflat = append(tflat, want.TVecs[i][:]...)
	}
	require.NoError(t, zw.Write(KeyRotations+".npy", rflat))
	require.NoError(t, zw.Write(KeyTranslations+".npy", tflat))
	require.NoError(t, zw.Close())
	require.NoError(t, w.Close())

	got, err := LoadArchive(mfs, "numpy.npz")
	require.NoError(t, err)
	assert.Equal(t, want.CameraMatrix, got.CameraMatrix)
	assert.Equal(t, want.Distortion, got.Distortion)
	assert.Equal(t, want.RVecs, got.RVecs)
	assert.Equal(t, want.TVecs, got.TVecs)
}

func TestArchive_VectorCountNotMultipleOfThree(t *testing.T) {
	mfs := fsutil.NewMemoryFileSystem()
	w, err := mfs.Create("odd.npz")
	require.NoError(t, err)
	zw := npz.NewWriter(w)
	want := sampleResult()
	require.NoError(t, zw.Write(KeyCameraMatrix, matrixDense(want.CameraMatrix)))
	require.NoError(t, zw.Write(KeyDistortion, mat.NewDense(1, 5, want.Distortion[:])))
	require.NoError(t, zw.Write(KeyRotations, []float64{1, 2, 3, 4}))
	require.NoError(t, zw.Write(KeyTranslations, vecsDense(want.TVecs)))
	require.NoError(t, zw.Close())
	require.NoError(t, w.Close())

	_, err = LoadArchive(mfs, "odd.npz")
	assert.True(t, errors.Is(err, ErrBadShape))
}

func TestArchive_MissingFile(t *testing.T) {
	_, err := LoadArchive(fsutil.NewMemoryFileSystem(), "nope.npz")
	assert.Error(t, err)
}
