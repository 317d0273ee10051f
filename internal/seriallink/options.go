package seriallink

import (
	"fmt"
	"strconv"
	"strings"

	"go.bug.st/serial"
)

// DefaultBaudRate is the telemetry radio rate used when a connection string
// names only a device.
const DefaultBaudRate = 57600

// PortOptions describes the serial parameters used to open a telemetry link.
type PortOptions struct {
	BaudRate int    `json:"baud_rate"`
	DataBits int    `json:"data_bits"`
	StopBits int    `json:"stop_bits"`
	Parity   string `json:"parity"`
}

// Normalize validates the options and applies defaults for any unset values.
func (o PortOptions) Normalize() (PortOptions, error) {
	opts := o

	if opts.BaudRate <= 0 {
		opts.BaudRate = DefaultBaudRate
	}

	if opts.DataBits == 0 {
		opts.DataBits = 8
	}
	if opts.DataBits < 5 || opts.DataBits > 8 {
		return opts, fmt.Errorf("invalid data bits %d: must be between 5 and 8", opts.DataBits)
	}

	if opts.StopBits == 0 {
		opts.StopBits = 1
	}
	if opts.StopBits != 1 && opts.StopBits != 2 {
		return opts, fmt.Errorf("invalid stop bits %d: supported values are 1 or 2", opts.StopBits)
	}

	switch strings.TrimSpace(strings.ToUpper(opts.Parity)) {
	case "", "N", "NONE":
		opts.Parity = "N"
	case "E", "EVEN":
		opts.Parity = "E"
	case "O", "ODD":
		opts.Parity = "O"
	default:
		return opts, fmt.Errorf("unsupported parity %q: expected N, E, or O", opts.Parity)
	}
	return opts, nil
}

// SerialMode converts the options into the go.bug.st/serial mode.
func (o PortOptions) SerialMode() (*serial.Mode, error) {
	opts, err := o.Normalize()
	if err != nil {
		return nil, err
	}

	mode := &serial.Mode{
		BaudRate: opts.BaudRate,
		DataBits: opts.DataBits,
		StopBits: serial.OneStopBit,
		Parity:   serial.NoParity,
	}
	if opts.StopBits == 2 {
		mode.StopBits = serial.TwoStopBits
	}
	switch opts.Parity {
	case "E":
		mode.Parity = serial.EvenParity
	case "O":
		mode.Parity = serial.OddParity
	}
	return mode, nil
}

// ParseDevice splits a "DEVICE[,BAUD]" connection string.
func ParseDevice(s string) (string, PortOptions, error) {
	device, baud, hasBaud := strings.Cut(strings.TrimSpace(s), ",")
	device = strings.TrimSpace(device)
	if device == "" {
		return "", PortOptions{}, fmt.Errorf("empty serial device in %q", s)
	}
	opts := PortOptions{BaudRate: DefaultBaudRate}
	if hasBaud {
		b, err := strconv.Atoi(strings.TrimSpace(baud))
		if err != nil || b <= 0 {
			return "", PortOptions{}, fmt.Errorf("invalid baud rate %q", baud)
		}
		opts.BaudRate = b
	}
	return device, opts, nil
}
