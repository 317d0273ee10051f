// Command aruco-generate writes every marker of an ArUco dictionary as a PNG.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/banshee-data/fiducial/internal/aruco"
	"github.com/banshee-data/fiducial/internal/config"
	"github.com/banshee-data/fiducial/internal/fsutil"
	"github.com/banshee-data/fiducial/internal/version"
	"github.com/banshee-data/fiducial/internal/vision"
)

var (
	dictType    string
	outDir      = flag.String("out", "aruco_tags", "Directory receiving <dictionary>/ID_<n>.png")
	sidePixels  = flag.Int("side", aruco.DefaultSidePixels, "Marker image side in pixels")
	configPath  = flag.String("config", "", "Optional JSON config file")
	listDicts   = flag.Bool("list", false, "List supported dictionaries and exit")
	showVersion = flag.Bool("version", false, "Print version and exit")
)

func init() {
	flag.StringVar(&dictType, "type", "", "Type of ArUco marker to generate (default DICT_6X6_50)")
	flag.StringVar(&dictType, "t", "", "Shorthand for --type")
}

func main() {
	flag.Parse()

	if *showVersion {
		fmt.Println(version.String("aruco-generate"))
		return
	}
	if *listDicts {
		for _, name := range aruco.Names() {
			fmt.Println(name)
		}
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
		fmt.Printf("ArUco tag type %s is not supported.\n", dictType)
		os.Exit(0)
	}

	gen := aruco.NewGenerator(fsutil.OSFileSystem{}, vision.Rasterizer{})
	gen.SidePixels = *sidePixels
	paths, err := gen.Generate(dict, *outDir)
	if err != nil {
		log.Fatalf("Failed to generate markers: %v", err)
	}
	log.Printf("wrote %d markers of %s", len(paths), dict.Name)
	fmt.Println("All images saved.")
}
