// Command aruco-annotate detects ArUco markers in a still image or a live
// camera feed and draws their outline, centroid and ID.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os/signal"
	"syscall"

	"gocv.io/x/gocv"

	"github.com/banshee-data/fiducial/internal/aruco"
	"github.com/banshee-data/fiducial/internal/config"
	"github.com/banshee-data/fiducial/internal/timeutil"
	"github.com/banshee-data/fiducial/internal/version"
	"github.com/banshee-data/fiducial/internal/vision"
)

var (
	imagePath   string
	dictType    string
	video       = flag.Bool("video", false, "Annotate the live camera feed instead of an image")
	camera      = flag.Int("camera", -1, "Camera device index (default from config, 0)")
	width       = flag.Int("width", 0, "Resize video frames to this width (default from config, 1000)")
	configPath  = flag.String("config", "", "Optional JSON config file")
	showVersion = flag.Bool("version", false, "Print version and exit")
)

func init() {
	flag.StringVar(&imagePath, "image", "example2.png", "Path to image containing ArUco markers")
	flag.StringVar(&imagePath, "i", "example2.png", "Shorthand for --image")
	flag.StringVar(&dictType, "type", "", "Type of ArUco marker to detect (default DICT_6X6_50)")
	flag.StringVar(&dictType, "t", "", "Shorthand for --type")
}

func main() {
	flag.Parse()

	if *showVersion {
		fmt.Println(version.String("aruco-annotate"))
		return
	}

	cfg, err := config.LoadOrEmpty(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if dictType == "" {
		dictType = cfg.GetDictionary()
	}
	dict, err := aruco.Lookup(dictType)
	if err != nil {
		log.Fatalf("ArUco tag type %s is not supported", dictType)
	}

	if *camera < 0 {
		*camera = cfg.GetCameraDevice()
	}
	if *width == 0 {
		*width = cfg.GetResizeWidth()
	}

	if err := annotate(dict, cfg); err != nil {
		log.Fatal(err)
	}
}

func annotate(dict aruco.Dictionary, cfg *config.Config) error {
	detector := vision.NewDetector(dict)
	defer detector.Close()

	if !*video {
		return annotateImage(detector, imagePath)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	return annotateVideo(ctx, detector, *camera, cfg, *width)
}

func annotateImage(detector *vision.Detector, path string) error {
	img, err := vision.ReadImage(path)
	if err != nil {
		return err
	}
	defer img.Close()

	det := detector.Detect(img)
	if len(det.Markers) == 0 {
		log.Printf("no markers detected in %s (%d rejected)", path, det.Rejected)
		return nil
	}
	for _, line := range det.Summary(img.Cols(), img.Rows()) {
		fmt.Println(line)
	}
	for _, m := range det.Markers {
		vision.DrawAnnotation(&img, aruco.Annotate(m))
	}

	fmt.Println("Previewing image, waiting for input to terminate ...")
	window := vision.NewWindow("Image")
	defer window.Close()
	window.Show(img, 0)
	return nil
}

func annotateVideo(ctx context.Context, detector *vision.Detector, device int, cfg *config.Config, width int) error {
	cam, err := vision.OpenCamera(device, timeutil.RealClock{}, cfg.GetWarmup())
	if err != nil {
		return err
	}
	defer cam.Close()

	window := vision.NewWindow("frame")
	defer window.Close()

	frame := gocv.NewMat()
	defer frame.Close()

	for ctx.Err() == nil {
		if err := cam.Read(&frame); err != nil {
			return err
		}
		vision.ResizeToWidth(&frame, width)

		det := detector.Detect(frame)
		for _, m := range det.Markers {
			vision.DrawAnnotation(&frame, aruco.Annotate(m))
		}

		if vision.IsKey(window.Show(frame, 1), 'q') {
			break
		}
	}
	return nil
}
