// Package config loads the optional JSON file shared by the fiducial tools.
// Every field is a pointer so a partial file only overrides what it names;
// the Get* methods supply defaults for the rest.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/banshee-data/fiducial/internal/aruco"
	"github.com/banshee-data/fiducial/internal/units"
)

// DefaultConfigPath is the checked-in file holding every default value.
const DefaultConfigPath = "config/defaults.json"

const maxFileSize = 1 * 1024 * 1024

// Config holds vision and mission settings. Command-line flags override it.
type Config struct {
	// Markers
	Dictionary  *string  `json:"dictionary,omitempty"`
	MarkerSize  *float64 `json:"marker_size,omitempty"`
	MarkerUnits *string  `json:"marker_units,omitempty"`

	// Checkerboard (inner corners)
	BoardCols  *int     `json:"board_cols,omitempty"`
	BoardRows  *int     `json:"board_rows,omitempty"`
	SquareSize *float64 `json:"square_size,omitempty"`

	// Camera
	CameraDevice *int    `json:"camera_device,omitempty"`
	Warmup       *string `json:"warmup,omitempty"` // duration string like "2s"
	ResizeWidth  *int    `json:"resize_width,omitempty"`

	// Mission
	Connection     *string  `json:"connection,omitempty"`
	TargetAltitude *float64 `json:"target_altitude,omitempty"`
	Airspeed       *float64 `json:"airspeed,omitempty"`
	WaypointLat    *float64 `json:"waypoint_lat,omitempty"`
	WaypointLon    *float64 `json:"waypoint_lon,omitempty"`
	WaypointAlt    *float64 `json:"waypoint_alt,omitempty"`
	HoldTime       *string  `json:"hold_time,omitempty"`
	ReturnWait     *string  `json:"return_wait,omitempty"`
	PollInterval   *string  `json:"poll_interval,omitempty"`
	ConnectTimeout *string  `json:"connect_timeout,omitempty"`
}

// Empty returns a Config with every field unset.
func Empty() *Config {
	return &Config{}
}

// Load reads a Config from a .json file no larger than 1MB and validates it.
func Load(path string) (*Config, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Empty()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// LoadOrEmpty loads path, or returns an empty Config when path is "".
func LoadOrEmpty(path string) (*Config, error) {
	if path == "" {
		return Empty(), nil
	}
	return Load(path)
}

// Validate checks that every set field is usable.
func (c *Config) Validate() error {
	if c.Dictionary != nil {
		if _, err := aruco.Lookup(*c.Dictionary); err != nil {
			return err
		}
	}
	if c.MarkerSize != nil && *c.MarkerSize <= 0 {
		return fmt.Errorf("marker_size must be positive, got %f", *c.MarkerSize)
	}
	if c.MarkerUnits != nil && !units.IsValidLength(*c.MarkerUnits) {
		return fmt.Errorf("marker_units must be one of %s, got %q", units.GetValidLengthUnitsString(), *c.MarkerUnits)
	}
	if c.BoardCols != nil && *c.BoardCols < 2 {
		return fmt.Errorf("board_cols must be at least 2, got %d", *c.BoardCols)
	}
	if c.BoardRows != nil && *c.BoardRows < 2 {
		return fmt.Errorf("board_rows must be at least 2, got %d", *c.BoardRows)
	}
	if c.SquareSize != nil && *c.SquareSize <= 0 {
		return fmt.Errorf("square_size must be positive, got %f", *c.SquareSize)
	}
	if c.CameraDevice != nil && *c.CameraDevice < 0 {
		return fmt.Errorf("camera_device must be non-negative, got %d", *c.CameraDevice)
	}
	if c.ResizeWidth != nil && *c.ResizeWidth < 0 {
		return fmt.Errorf("resize_width must be non-negative, got %d", *c.ResizeWidth)
	}
	if c.TargetAltitude != nil && *c.TargetAltitude <= 1 {
		return fmt.Errorf("target_altitude must exceed 1 m, got %f", *c.TargetAltitude)
	}
	if c.Airspeed != nil && *c.Airspeed <= 0 {
		return fmt.Errorf("airspeed must be positive, got %f", *c.Airspeed)
	}
	if c.WaypointLat != nil && (*c.WaypointLat < -90 || *c.WaypointLat > 90) {
		return fmt.Errorf("waypoint_lat out of range: %f", *c.WaypointLat)
	}
	if c.WaypointLon != nil && (*c.WaypointLon < -180 || *c.WaypointLon > 180) {
		return fmt.Errorf("waypoint_lon out of range: %f", *c.WaypointLon)
	}
	durations := map[string]*string{
		"warmup":          c.Warmup,
		"hold_time":       c.HoldTime,
		"return_wait":     c.ReturnWait,
		"poll_interval":   c.PollInterval,
		"connect_timeout": c.ConnectTimeout,
	}
	for name, v := range durations {
		if v == nil || *v == "" {
			continue
		}
		d, err := time.ParseDuration(*v)
		if err != nil {
			return fmt.Errorf("invalid %s '%s': %w", name, *v, err)
		}
		if d < 0 {
			return fmt.Errorf("%s must be non-negative, got %s", name, *v)
		}
	}
	if c.PollInterval != nil && *c.PollInterval != "" {
		if d, _ := time.ParseDuration(*c.PollInterval); d == 0 {
			return fmt.Errorf("poll_interval must be positive")
		}
	}
	return nil
}

func durationOr(v *string, def time.Duration) time.Duration {
	if v == nil || *v == "" {
		return def
	}
	d, err := time.ParseDuration(*v)
	if err != nil {
		return def
	}
	return d
}

// GetDictionary returns the marker dictionary name.
func (c *Config) GetDictionary() string {
	if c.Dictionary == nil {
		return aruco.DefaultDictionary
	}
	return *c.Dictionary
}

// GetMarkerSize returns the printed marker side length.
func (c *Config) GetMarkerSize() float64 {
	if c.MarkerSize == nil {
		return 13.5
	}
	return *c.MarkerSize
}

// GetMarkerUnits returns the unit of MarkerSize.
func (c *Config) GetMarkerUnits() string {
	if c.MarkerUnits == nil {
		return units.MM
	}
	return *c.MarkerUnits
}

// GetBoardCols returns the inner-corner column count.
func (c *Config) GetBoardCols() int {
	if c.BoardCols == nil {
		return 9
	}
	return *c.BoardCols
}

// GetBoardRows returns the inner-corner row count.
func (c *Config) GetBoardRows() int {
	if c.BoardRows == nil {
		return 6
	}
	return *c.BoardRows
}

// GetSquareSize returns the checkerboard square side in millimetres.
func (c *Config) GetSquareSize() float64 {
	if c.SquareSize == nil {
		return 13.5
	}
	return *c.SquareSize
}

// GetCameraDevice returns the capture device index.
func (c *Config) GetCameraDevice() int {
	if c.CameraDevice == nil {
		return 0
	}
	return *c.CameraDevice
}

// GetWarmup returns how long to wait after opening the camera.
func (c *Config) GetWarmup() time.Duration {
	return durationOr(c.Warmup, 2*time.Second)
}

// GetResizeWidth returns the live-video frame width; 0 disables resizing.
func (c *Config) GetResizeWidth() int {
	if c.ResizeWidth == nil {
		return 1000
	}
	return *c.ResizeWidth
}

// GetConnection returns the vehicle connection string.
func (c *Config) GetConnection() string {
	if c.Connection == nil {
		return "udpin:0.0.0.0:14550"
	}
	return *c.Connection
}

// GetTargetAltitude returns the takeoff altitude in metres.
func (c *Config) GetTargetAltitude() float64 {
	if c.TargetAltitude == nil {
		return 10
	}
	return *c.TargetAltitude
}

// GetAirspeed returns the cruise airspeed in m/s.
func (c *Config) GetAirspeed() float64 {
	if c.Airspeed == nil {
		return 7
	}
	return *c.Airspeed
}

// GetWaypoint returns the mission waypoint as lat, lon, relative altitude.
func (c *Config) GetWaypoint() (lat, lon, alt float64) {
	lat, lon, alt = 35.9872609, -95.8753037, 10
	if c.WaypointLat != nil {
		lat = *c.WaypointLat
	}
	if c.WaypointLon != nil {
		lon = *c.WaypointLon
	}
	if c.WaypointAlt != nil {
		alt = *c.WaypointAlt
	}
	return lat, lon, alt
}

// GetHoldTime returns how long the vehicle loiters at the waypoint.
func (c *Config) GetHoldTime() time.Duration {
	return durationOr(c.HoldTime, 15*time.Second)
}

// GetReturnWait returns how long to wait after commanding RTL.
func (c *Config) GetReturnWait() time.Duration {
	return durationOr(c.ReturnWait, 15*time.Second)
}

// GetPollInterval returns the armable and altitude poll interval.
func (c *Config) GetPollInterval() time.Duration {
	return durationOr(c.PollInterval, time.Second)
}

// GetConnectTimeout returns how long to wait for the first heartbeat.
func (c *Config) GetConnectTimeout() time.Duration {
	return durationOr(c.ConnectTimeout, 300*time.Second)
}
