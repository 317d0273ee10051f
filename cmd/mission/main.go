// Command mission flies a single-waypoint guided mission over MAVLink:
// take off, fly to the waypoint, hold, then return to launch.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os/signal"
	"syscall"

	"github.com/banshee-data/fiducial/internal/autopilot"
	"github.com/banshee-data/fiducial/internal/config"
	"github.com/banshee-data/fiducial/internal/seriallink"
	"github.com/banshee-data/fiducial/internal/version"
)

var (
	connect     = flag.String("connect", "", "Vehicle connection: udpin:HOST:PORT, udpout:HOST:PORT, tcp:HOST:PORT, tcpin:HOST:PORT or DEVICE[,BAUD]")
	altitude    = flag.Float64("altitude", 0, "Takeoff altitude in metres (default from config, 10)")
	configPath  = flag.String("config", "", "Optional JSON config file")
	listPorts   = flag.Bool("list-ports", false, "List serial ports and exit")
	showVersion = flag.Bool("version", false, "Print version and exit")
)

func main() {
	flag.Parse()

	if *showVersion {
		fmt.Println(version.String("mission"))
		return
	}
	if *listPorts {
		ports, err := seriallink.ListPorts()
		if err != nil {
			log.Fatalf("Failed to list serial ports: %v", err)
		}
		for _, p := range ports {
			fmt.Println(p)
		}
		return
	}

	cfg, err := config.LoadOrEmpty(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if *connect == "" {
		*connect = cfg.GetConnection()
	}
	conn, err := autopilot.ParseConnection(*connect)
	if err != nil {
		log.Fatalf("Invalid connection string: %v", err)
	}

	lat, lon, alt := cfg.GetWaypoint()
	plan := autopilot.Plan{
		TargetAltitude: cfg.GetTargetAltitude(),
		Airspeed:       cfg.GetAirspeed(),
		Waypoint:       autopilot.Waypoint{Lat: lat, Lon: lon, Alt: alt},
		HoldTime:       cfg.GetHoldTime(),
		ReturnWait:     cfg.GetReturnWait(),
		PollInterval:   cfg.GetPollInterval(),
	}
	if *altitude > 0 {
		plan.TargetAltitude = *altitude
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Printf("connecting to vehicle on %s", conn)
	m := autopilot.NewMission(autopilot.Connect(conn, seriallink.RealFactory{}, cfg.GetConnectTimeout()), plan)
	if err := m.Run(ctx); err != nil {
		log.Fatalf("Mission aborted in state %s: %v", m.State(), err)
	}
	log.Printf("mission complete")
}
