// Command pose estimates the distance and orientation of ArUco markers in
// the live camera feed using a saved calibration.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os/signal"
	"syscall"
	"time"

	"gocv.io/x/gocv"

	"github.com/banshee-data/fiducial/internal/aruco"
	"github.com/banshee-data/fiducial/internal/calib"
	"github.com/banshee-data/fiducial/internal/config"
	"github.com/banshee-data/fiducial/internal/db"
	"github.com/banshee-data/fiducial/internal/fsutil"
	"github.com/banshee-data/fiducial/internal/pose"
	"github.com/banshee-data/fiducial/internal/timeutil"
	"github.com/banshee-data/fiducial/internal/units"
	"github.com/banshee-data/fiducial/internal/version"
	"github.com/banshee-data/fiducial/internal/vision"
)

var (
	dictType     string
	calibration  = flag.String("calibration", "camera_calibration/"+calib.ArchiveName, "Calibration archive")
	markerSize   = flag.Float64("marker-size", 0, "Marker side length (default from config, 13.5)")
	markerUnits  = flag.String("units", "", "Units of --marker-size: "+units.GetValidLengthUnitsString())
	displayUnits = flag.String("display-units", "", "Units for the distance label (default: marker units)")
	camera       = flag.Int("camera", -1, "Camera device index (default from config, 0)")
	record       = flag.String("record", "", "Optional sqlite file logging every estimate")
	configPath   = flag.String("config", "", "Optional JSON config file")
	showVersion  = flag.Bool("version", false, "Print version and exit")
)

func init() {
	flag.StringVar(&dictType, "type", "", "Type of ArUco marker to track (default DICT_6X6_50)")
	flag.StringVar(&dictType, "t", "", "Shorthand for --type")
}

func main() {
	flag.Parse()

	if *showVersion {
		fmt.Println(version.String("pose"))
		return
	}

	cfg, err := config.LoadOrEmpty(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if dictType == "" {
		dictType = cfg.GetDictionary()
	}
	if *markerSize <= 0 {
		*markerSize = cfg.GetMarkerSize()
	}
	if *markerUnits == "" {
		*markerUnits = cfg.GetMarkerUnits()
	}
	if *displayUnits == "" {
		*displayUnits = *markerUnits
	}
	if *camera < 0 {
		*camera = cfg.GetCameraDevice()
	}
	for _, u := range []string{*markerUnits, *displayUnits} {
		if !units.IsValidLength(u) {
			log.Fatalf("Invalid units %q, expected one of %s", u, units.GetValidLengthUnitsString())
		}
	}

	dict, err := aruco.Lookup(dictType)
	if err != nil {
		log.Fatalf("ArUco tag type %s is not supported", dictType)
	}
	result, err := calib.LoadArchive(fsutil.OSFileSystem{}, *calibration)
	if err != nil {
		log.Fatalf("Failed to load calibration: %v", err)
	}

	// Errors from here on return through track so the pose log is
	// summarised and closed before exiting.
	if err := track(dict, result, cfg); err != nil {
		log.Fatal(err)
	}
}

func track(dict aruco.Dictionary, result calib.Result, cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var rec *db.Recorder
	if *record != "" {
		var err error
		rec, err = db.OpenRecorder(ctx, *record, db.Session{
			Dictionary:  dict.Name,
			MarkerSize:  *markerSize,
			Units:       *markerUnits,
			Calibration: *calibration,
		})
		if err != nil {
			return fmt.Errorf("open pose log: %w", err)
		}
		defer rec.Close()
	}

	detector := vision.NewDetector(dict)
	defer detector.Close()
	est := pose.NewEstimator(result, *markerSize)

	return run(ctx, detector, est, cfg, rec)
}

func run(ctx context.Context, detector *vision.Detector, est *pose.Estimator, cfg *config.Config, rec *db.Recorder) error {
	cam, err := vision.OpenCamera(*camera, timeutil.RealClock{}, cfg.GetWarmup())
	if err != nil {
		return err
	}
	defer cam.Close()

	window := vision.NewWindow("Coloured Frame")
	defer window.Close()

	frame := gocv.NewMat()
	defer frame.Close()

	for n := int64(0); ctx.Err() == nil; n++ {
		if err := cam.Read(&frame); err != nil {
			return err
		}
		gray := vision.Gray(frame)
		det := detector.Detect(gray)
		gray.Close()

		estimates := est.Estimate(det.Markers)
		for _, e := range estimates {
			shown := e
			if d, err := units.ConvertLength(e.Distance, *markerUnits, *displayUnits); err == nil {
				shown.Distance = d
			}
			vision.DrawOverlay(&frame, est.BuildOverlay(shown, *displayUnits))
		}
		if rec != nil {
			if err := rec.Record(ctx, n, time.Now(), estimates); err != nil {
				log.Printf("failed to record frame %d: %v", n, err)
			}
		}

		if vision.IsKey(window.Show(frame, 1), 'q') {
			break
		}
	}
	return nil
}
