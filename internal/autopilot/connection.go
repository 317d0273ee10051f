package autopilot

import (
	"fmt"
	"net"
	"strconv"
	"strings"

	"github.com/banshee-data/fiducial/internal/seriallink"
)

// Transport is the link type named by a connection string.
type Transport int

const (
	TransportUDPServer Transport = iota
	TransportUDPClient
	TransportTCPClient
	TransportTCPServer
	TransportSerial
)

func (t Transport) String() string {
	switch t {
	case TransportUDPServer:
		return "udpin"
	case TransportUDPClient:
		return "udpout"
	case TransportTCPClient:
		return "tcp"
	case TransportTCPServer:
		return "tcpin"
	case TransportSerial:
		return "serial"
	default:
		return fmt.Sprintf("transport(%d)", int(t))
	}
}

// Connection is a parsed vehicle connection string.
type Connection struct {
	Transport Transport
	// Address is HOST:PORT for network transports.
	Address string
	// Device and Serial are set for serial links.
	Device string
	Serial seriallink.PortOptions
}

func (c Connection) String() string {
	if c.Transport == TransportSerial {
		return fmt.Sprintf("%s,%d", c.Device, c.Serial.BaudRate)
	}
	return c.Transport.String() + ":" + c.Address
}

// ParseConnection accepts udp:HOST:PORT or udpin:HOST:PORT (listen),
// udpout:HOST:PORT, tcp:HOST:PORT, tcpin:HOST:PORT, a bare HOST:PORT (UDP
// listen) or a serial device DEVICE[,BAUD].
func ParseConnection(s string) (Connection, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Connection{}, fmt.Errorf("empty connection string")
	}

	prefixes := []struct {
		prefix    string
		transport Transport
	}{
		{"udpin:", TransportUDPServer},
		{"udpout:", TransportUDPClient},
		{"udp:", TransportUDPServer},
		{"tcpin:", TransportTCPServer},
		{"tcp:", TransportTCPClient},
	}
	for _, p := range prefixes {
		if rest, ok := strings.CutPrefix(s, p.prefix); ok {
			if err := validateAddress(rest); err != nil {
				return Connection{}, fmt.Errorf("connection %q: %w", s, err)
			}
			return Connection{Transport: p.transport, Address: rest}, nil
		}
	}

	if !strings.ContainsAny(s, "/\\,") && validateAddress(s) == nil {
		return Connection{Transport: TransportUDPServer, Address: s}, nil
	}

	device, opts, err := seriallink.ParseDevice(s)
	if err != nil {
		return Connection{}, fmt.Errorf("connection %q: %w", s, err)
	}
	return Connection{Transport: TransportSerial, Device: device, Serial: opts}, nil
}

func validateAddress(addr string) error {
	_, port, err := net.SplitHostPort(addr)
	if err != nil {
		return err
	}
	p, err := strconv.Atoi(port)
	if err != nil || p <= 0 || p > 65535 {
		return fmt.Errorf("invalid port %q", port)
	}
	return nil
}
