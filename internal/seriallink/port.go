// Package seriallink opens the serial telemetry link that carries MAVLink
// between the ground station and the flight controller.
package seriallink

import (
	"fmt"
	"io"

	"go.bug.st/serial"
)

// Port is the minimal surface the MAVLink node needs from a serial port.
type Port interface {
	io.ReadWriteCloser
}

// Factory opens serial ports.
type Factory interface {
	Open(path string, opts PortOptions) (Port, error)
}

// RealFactory opens hardware ports through go.bug.st/serial.
type RealFactory struct{}

// Open opens path with the given options.
func (RealFactory) Open(path string, opts PortOptions) (Port, error) {
	mode, err := opts.SerialMode()
	if err != nil {
		return nil, err
	}
	port, err := serial.Open(path, mode)
	if err != nil {
		return nil, fmt.Errorf("open serial port %s: %w", path, err)
	}
	return port, nil
}

// ListPorts returns the serial devices visible to the OS.
func ListPorts() ([]string, error) {
	return serial.GetPortsList()
}
