// Package vision binds the fiducial tools to OpenCV through gocv: camera
// capture, marker detection and generation, chessboard search, calibration
// and on-screen drawing.
package vision

import (
	"errors"
	"fmt"
	"image"
	"time"

	"gocv.io/x/gocv"

	"github.com/banshee-data/fiducial/internal/monitoring"
	"github.com/banshee-data/fiducial/internal/timeutil"
)

// ErrEmptyFrame is returned when the capture device yields no image.
var ErrEmptyFrame = errors.New("empty frame from capture device")

// Camera is an open video capture device.
type Camera struct {
	device int
	cap    *gocv.VideoCapture
}

// OpenCamera opens device and sleeps for warmup so auto exposure settles.
func OpenCamera(device int, clock timeutil.Clock, warmup time.Duration) (*Camera, error) {
	vc, err := gocv.OpenVideoCapture(device)
	if err != nil {
		return nil, fmt.Errorf("open camera %d: %w", device, err)
	}
	monitoring.Logf("camera %d opened, warming up for %s", device, warmup)
	clock.Sleep(warmup)
	return &Camera{device: device, cap: vc}, nil
}

// Read grabs the next frame into dst.
func (c *Camera) Read(dst *gocv.Mat) error {
	if ok := c.cap.Read(dst); !ok || dst.Empty() {
		return fmt.Errorf("%w: device %d", ErrEmptyFrame, c.device)
	}
	return nil
}

// Close releases the device.
func (c *Camera) Close() error {
	return c.cap.Close()
}

// ReadImage loads a colour image from disk.
func ReadImage(path string) (gocv.Mat, error) {
	img := gocv.IMRead(path, gocv.IMReadColor)
	if img.Empty() {
		img.Close()
		return img, fmt.Errorf("could not read image %s", path)
	}
	return img, nil
}

// WriteImage saves img to path; the extension selects the codec.
func WriteImage(path string, img gocv.Mat) error {
	if ok := gocv.IMWrite(path, img); !ok {
		return fmt.Errorf("could not write image %s", path)
	}
	return nil
}

// Gray converts a BGR frame to a new grayscale Mat.
func Gray(src gocv.Mat) gocv.Mat {
	gray := gocv.NewMat()
	gocv.CvtColor(src, &gray, gocv.ColorBGRToGray)
	return gray
}

// ResizeToWidth scales img in place to width, keeping the aspect ratio.
// A width of zero leaves the frame untouched.
func ResizeToWidth(img *gocv.Mat, width int) {
	if width <= 0 || img.Cols() == 0 || img.Cols() == width {
		return
	}
	height := int(float64(img.Rows()) * float64(width) / float64(img.Cols()))
	interp := gocv.InterpolationArea
	if width > img.Cols() {
		interp = gocv.InterpolationLinear
	}
	resized := gocv.NewMat()
	gocv.Resize(*img, &resized, image.Pt(width, height), 0, 0, interp)
	img.Close()
	*img = resized
}
