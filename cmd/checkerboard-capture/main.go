// Command checkerboard-capture previews the camera, highlights a detected
// checkerboard and saves frames on demand for calibration.
//
// Keys: s saves the current frame when a board is visible, q quits.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os/signal"
	"path/filepath"
	"syscall"

	"gocv.io/x/gocv"

	"github.com/banshee-data/fiducial/internal/calib"
	"github.com/banshee-data/fiducial/internal/config"
	"github.com/banshee-data/fiducial/internal/fsutil"
	"github.com/banshee-data/fiducial/internal/timeutil"
	"github.com/banshee-data/fiducial/internal/version"
	"github.com/banshee-data/fiducial/internal/vision"
)

var (
	outDir      = flag.String("out", "camera_calibration/checkerboard_images", "Directory receiving image<n>.png")
	camera      = flag.Int("camera", -1, "Camera device index (default from config, 0)")
	configPath  = flag.String("config", "", "Optional JSON config file")
	showVersion = flag.Bool("version", false, "Print version and exit")
)

func main() {
	flag.Parse()

	if *showVersion {
		fmt.Println(version.String("checkerboard-capture"))
		return
	}

	cfg, err := config.LoadOrEmpty(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if *camera < 0 {
		*camera = cfg.GetCameraDevice()
	}
	board := calib.Board{Cols: cfg.GetBoardCols(), Rows: cfg.GetBoardRows(), SquareSize: cfg.GetSquareSize()}

	fs := fsutil.OSFileSystem{}
	if !fs.Exists(*outDir) {
		if err := fs.MkdirAll(*outDir, 0o755); err != nil {
			log.Fatalf("Failed to create %s: %v", *outDir, err)
		}
		log.Printf("%q directory is created", *outDir)
	} else {
		log.Printf("%q directory already exists", *outDir)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := capture(ctx, board, *camera, cfg); err != nil {
		log.Fatal(err)
	}
}

func capture(ctx context.Context, board calib.Board, device int, cfg *config.Config) error {
	cam, err := vision.OpenCamera(device, timeutil.RealClock{}, cfg.GetWarmup())
	if err != nil {
		return err
	}
	defer cam.Close()

	annotated := vision.NewWindow("Annotated Frame")
	defer annotated.Close()
	original := vision.NewWindow("Original Frame")
	defer original.Close()

	frame := gocv.NewMat()
	defer frame.Close()

	finder := vision.ChessboardFinder{}
	n := 0
	for ctx.Err() == nil {
		if err := cam.Read(&frame); err != nil {
			return err
		}
		clean := frame.Clone()

		gray := vision.Gray(frame)
		corners, err := finder.FindInGray(gray, board)
		gray.Close()
		detected := err == nil
		if detected {
			vision.DrawCorners(&frame, board, corners)
		}
		corners.Close()

		vision.DrawCounter(&frame, fmt.Sprintf("saved_img : %d", n))
		original.Show(clean, 1)
		key := annotated.Show(frame, 1)

		switch {
		case vision.IsKey(key, 'q'):
			clean.Close()
			return nil
		case vision.IsKey(key, 's') && detected:
			path := filepath.Join(*outDir, fmt.Sprintf("image%d.png", n))
			if err := vision.WriteImage(path, clean); err != nil {
				clean.Close()
				return err
			}
			log.Printf("saved image number %d", n)
			n++
		}
		clean.Close()
	}
	return nil
}
