// Package autopilot flies a scripted waypoint mission against a MAVLink
// flight controller.
package autopilot

import (
	"context"
	"errors"
)

// ErrNoHeartbeat is returned when the vehicle does not answer within the
// connect timeout.
var ErrNoHeartbeat = errors.New("no heartbeat from vehicle")

// Mode is a flight-controller mode name.
type Mode string

// Modes used by the mission.
const (
	ModeGuided Mode = "GUIDED"
	ModeRTL    Mode = "RTL"
	ModeLand   Mode = "LAND"
)

// Waypoint is a global position with altitude relative to home.
type Waypoint struct {
	Lat float64
	Lon float64
	Alt float64
}

// Vehicle is the telemetry and command surface the mission needs.
type Vehicle interface {
	Armable(ctx context.Context) (bool, error)
	SetMode(ctx context.Context, mode Mode) error
	Arm(ctx context.Context) error
	Takeoff(ctx context.Context, altitude float64) error
	RelativeAltitude(ctx context.Context) (float64, error)
	SetAirspeed(ctx context.Context, mps float64) error
	Goto(ctx context.Context, wp Waypoint) error
	Close() error
}

// Connector opens a Vehicle and blocks until it is ready.
type Connector func(ctx context.Context) (Vehicle, error)
