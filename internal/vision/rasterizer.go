package vision

import (
	"fmt"
	"image"

	"gocv.io/x/gocv"

	"github.com/banshee-data/fiducial/internal/aruco"
)

// Rasterizer renders markers with OpenCV's marker generator.
type Rasterizer struct{}

// Rasterize draws marker id of dict as a sidePixels square with a border of
// borderBits modules.
func (Rasterizer) Rasterize(dict aruco.Dictionary, id, sidePixels, borderBits int) (image.Image, error) {
	if err := dict.CheckRaster(sidePixels, borderBits); err != nil {
		return nil, err
	}
	if !dict.Valid(id) {
		return nil, fmt.Errorf("marker %d outside %s (0..%d)", id, dict.Name, dict.Size-1)
	}
	img := gocv.NewMatWithSize(sidePixels, sidePixels, gocv.MatTypeCV8UC1)
	defer img.Close()
	if err := gocv.ArucoGenerateImageMarker(gocv.ArucoDictionaryCode(dict.Code), id, sidePixels, img, borderBits); err != nil {
		return nil, fmt.Errorf("generate %s marker %d: %w", dict.Name, id, err)
	}
	return img.ToImage()
}
