package aruco

import (
	"fmt"
	"image"
	"image/png"
	"path/filepath"

	"github.com/banshee-data/fiducial/internal/fsutil"
	"github.com/banshee-data/fiducial/internal/monitoring"
	"github.com/banshee-data/fiducial/internal/security"
)

// Marker image defaults.
const (
	DefaultSidePixels = 300
	DefaultBorderBits = 1
)

// Rasterizer renders one marker of a dictionary as a square grayscale image.
type Rasterizer interface {
	Rasterize(dict Dictionary, id, sidePixels, borderBits int) (image.Image, error)
}

// Generator writes every marker of a dictionary as ID_<n>.png.
type Generator struct {
	FS         fsutil.FileSystem
	Rasterizer Rasterizer
	SidePixels int
	BorderBits int
}

// NewGenerator returns a Generator with the default marker geometry.
func NewGenerator(fs fsutil.FileSystem, r Rasterizer) *Generator {
	return &Generator{
		FS:         fs,
		Rasterizer: r,
		SidePixels: DefaultSidePixels,
		BorderBits: DefaultBorderBits,
	}
}

// Generate writes <outDir>/<dict.Name>/ID_<n>.png for n in 0..Size-1 and
// returns the paths in ID order.
func (g *Generator) Generate(dict Dictionary, outDir string) ([]string, error) {
	defer monitoring.Timed("generate " + dict.Name)()

	if err := dict.CheckRaster(g.SidePixels, g.BorderBits); err != nil {
		return nil, err
	}
	dir, err := security.OutputPath(outDir, dict.Name)
	if err != nil {
		return nil, err
	}
	if err := g.FS.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create output directory: %w", err)
	}

	paths := make([]string, 0, dict.Size)
	for _, id := range dict.IDs() {
		img, err := g.Rasterizer.Rasterize(dict, id, g.SidePixels, g.BorderBits)
		if err != nil {
			return paths, fmt.Errorf("rasterize marker %d: %w", id, err)
		}
		path := filepath.Join(dir, MarkerFilename(id))
		if err := g.writePNG(path, img); err != nil {
			return paths, err
		}
		paths = append(paths, path)
	}
	monitoring.Logf("wrote %d %s markers to %s", len(paths), dict.Name, dir)
	return paths, nil
}

// MarkerFilename returns the file name for marker id.
func MarkerFilename(id int) string {
	return fmt.Sprintf("ID_%d.png", id)
}

func (g *Generator) writePNG(path string, img image.Image) error {
	w, err := g.FS.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := png.Encode(w, img); err != nil {
		w.Close()
		return fmt.Errorf("encode %s: %w", path, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	return nil
}
