package vision

import (
	"gocv.io/x/gocv"

	"github.com/banshee-data/fiducial/internal/aruco"
	"github.com/banshee-data/fiducial/internal/monitoring"
)

// Detector finds markers of one dictionary with default parameters.
type Detector struct {
	dict     aruco.Dictionary
	detector gocv.ArucoDetector
}

// NewDetector builds a detector for dict.
func NewDetector(dict aruco.Dictionary) *Detector {
	d := gocv.GetPredefinedDictionary(gocv.ArucoDictionaryCode(dict.Code))
	params := gocv.NewArucoDetectorParameters()
	return &Detector{
		dict:     dict,
		detector: gocv.NewArucoDetectorWithParams(d, params),
	}
}

// Detect runs detection on img, which may be colour or grayscale.
func (d *Detector) Detect(img gocv.Mat) aruco.Detection {
	defer monitoring.Timed("detect markers")()

	corners, ids, rejected := d.detector.DetectMarkers(img)
	det := aruco.Detection{Rejected: len(rejected)}
	for i, id := range ids {
		if i >= len(corners) || len(corners[i]) < 4 {
			continue
		}
		m := aruco.Marker{ID: id}
		for j := 0; j < 4; j++ {
			m.Corners[j] = aruco.Point{X: float64(corners[i][j].X), Y: float64(corners[i][j].Y)}
		}
		det.Markers = append(det.Markers, m)
	}
	return det
}

// Close releases the detector.
func (d *Detector) Close() error {
	return d.detector.Close()
}
