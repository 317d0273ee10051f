// Command calibrate computes camera intrinsics from a directory of
// checkerboard images and saves them as MultiMatrix.npz.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/banshee-data/fiducial/internal/calib"
	"github.com/banshee-data/fiducial/internal/config"
	"github.com/banshee-data/fiducial/internal/fsutil"
	"github.com/banshee-data/fiducial/internal/version"
	"github.com/banshee-data/fiducial/internal/vision"
)

var (
	imageDir    = flag.String("images", "camera_calibration/checkerboard_images", "Directory of checkerboard images")
	outDir      = flag.String("out", "camera_calibration", "Directory receiving "+calib.ArchiveName)
	reportDir   = flag.String("report", "", "Optional directory for the reprojection error report")
	cols        = flag.Int("cols", 0, "Inner corners per row (default from config, 9)")
	rows        = flag.Int("rows", 0, "Inner corners per column (default from config, 6)")
	square      = flag.Float64("square", 0, "Square side length (default from config, 13.5)")
	configPath  = flag.String("config", "", "Optional JSON config file")
	showVersion = flag.Bool("version", false, "Print version and exit")
)

func main() {
	flag.Parse()

	if *showVersion {
		fmt.Println(version.String("calibrate"))
		return
	}

	cfg, err := config.LoadOrEmpty(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	board := calib.Board{Cols: cfg.GetBoardCols(), Rows: cfg.GetBoardRows(), SquareSize: cfg.GetSquareSize()}
	if *cols > 0 {
		board.Cols = *cols
	}
	if *rows > 0 {
		board.Rows = *rows
	}
	if *square > 0 {
		board.SquareSize = *square
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	fs := fsutil.OSFileSystem{}
	c := &calib.Calibrator{
		FS:     fs,
		Finder: vision.ChessboardFinder{},
		Solver: vision.CalibrationSolver{},
		Board:  board,
	}
	result, views, err := c.Run(ctx, *imageDir)
	if err != nil {
		log.Fatalf("Calibration failed: %v", err)
	}

	if err := fs.MkdirAll(*outDir, 0o755); err != nil {
		log.Fatalf("Failed to create %s: %v", *outDir, err)
	}
	archive := filepath.Join(*outDir, calib.ArchiveName)
	fmt.Println("Saving camera matrix, distortion coefficients, rotation and translation vectors to", archive)
	if err := calib.SaveArchive(fs, archive, result); err != nil {
		log.Fatalf("Failed to save calibration: %v", err)
	}

	loaded, err := calib.LoadArchive(fs, archive)
	if err != nil {
		log.Fatalf("Failed to reload calibration: %v", err)
	}
	for _, row := range loaded.CameraMatrix {
		fmt.Printf("%12.4f %12.4f %12.4f\n", row[0], row[1], row[2])
	}
	fmt.Println("Loaded calibration data successfully")

	if *reportDir == "" {
		return
	}
	errs := result.ReprojectionErrors(c.ObjectPointsFor(views), calib.ImagePointsFor(views))
	paths, err := calib.WriteReport(fs, *reportDir, result.RMS, calib.ViewErrors(views, errs))
	if err != nil {
		log.Fatalf("Failed to write report: %v", err)
	}
	for _, p := range paths {
		log.Printf("wrote %s", p)
	}
}
