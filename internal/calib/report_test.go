package calib

import (
	"bytes"
	"image/png"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/fiducial/internal/fsutil"
)

func TestWriteReport(t *testing.T) {
	mfs := fsutil.NewMemoryFileSystem()
	views := []View{{Name: "image0.png"}, {Name: "image1.png"}, {Name: "image2.png"}}
	errs := ViewErrors(views, []float64{0.21, 0.35, 0.18})
	require.Len(t, errs, 3)

	paths, err := WriteReport(mfs, "report", 0.26, errs)
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join("report", ReportPNG), filepath.Join("report", ReportHTML)}, paths)

	data, err := mfs.ReadFile(paths[0])
	require.NoError(t, err)
	img, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Greater(t, img.Bounds().Dx(), 0)

	html, err := mfs.ReadFile(paths[1])
	require.NoError(t, err)
	assert.Contains(t, string(html), "Reprojection Error")
	assert.Contains(t, string(html), "image1.png")
}

func TestWriteReport_Empty(t *testing.T) {
	_, err := WriteReport(fsutil.NewMemoryFileSystem(), "report", 0, nil)
	assert.ErrorIs(t, err, ErrNoViews)
}

func TestViewErrors_Truncates(t *testing.T) {
	got := ViewErrors([]View{{Name: "a"}}, []float64{1, 2})
	assert.Equal(t, []ViewError{{Name: "a", RMS: 1}}, got)
}
