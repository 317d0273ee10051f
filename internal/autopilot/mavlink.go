package autopilot

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/bluenviron/gomavlib/v3"
	"github.com/bluenviron/gomavlib/v3/pkg/dialects/common"
	"github.com/bluenviron/gomavlib/v3/pkg/message"

	"github.com/banshee-data/fiducial/internal/monitoring"
	"github.com/banshee-data/fiducial/internal/seriallink"
)

// ArduCopter custom mode numbers.
var copterModes = map[Mode]uint32{
	"STABILIZE": 0,
	"AUTO":      3,
	ModeGuided:  4,
	"LOITER":    5,
	ModeRTL:     6,
	ModeLand:    9,
}

const (
	groundStationID = 255
	autopilotComp   = 1
	ackTimeout      = 3 * time.Second
	// streamRate is the telemetry rate requested from the autopilot, in Hz.
	streamRate = 4
)

// telemetry is the latest vehicle state decoded from the event stream.
type telemetry struct {
	mu           sync.Mutex
	systemID     uint8
	heartbeat    bool
	systemStatus common.MAV_STATE
	armed        bool
	customMode   uint32
	fixType      common.GPS_FIX_TYPE
	relAltMM     int32
	haveAltitude bool
}

// update folds one message from sysID into the state. Messages from other
// systems are ignored once a vehicle has been seen.
func (t *telemetry) update(sysID uint8, msg message.Message) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if hb, ok := msg.(*common.MessageHeartbeat); ok {
		if hb.Type == common.MAV_TYPE_GCS || hb.Autopilot == common.MAV_AUTOPILOT_INVALID {
			return
		}
		if !t.heartbeat {
			t.systemID = sysID
			t.heartbeat = true
		}
	}
	if !t.heartbeat || sysID != t.systemID {
		return
	}

	switch m := msg.(type) {
	case *common.MessageHeartbeat:
		t.systemStatus = m.SystemStatus
		t.armed = m.BaseMode&common.MAV_MODE_FLAG_SAFETY_ARMED != 0
		t.customMode = m.CustomMode
	case *common.MessageGpsRawInt:
		t.fixType = m.FixType
	case *common.MessageGlobalPositionInt:
		t.relAltMM = m.RelativeAlt
		t.haveAltitude = true
	}
}

// armable mirrors the usual ground-station check: booted, not calibrating
// and holding a 3D fix.
func (t *telemetry) armable() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.heartbeat {
		return false
	}
	switch t.systemStatus {
	case common.MAV_STATE_STANDBY, common.MAV_STATE_ACTIVE:
	default:
		return false
	}
	return t.fixType >= common.GPS_FIX_TYPE_3D_FIX
}

func (t *telemetry) relativeAltitude() (float64, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return float64(t.relAltMM) / 1000, t.haveAltitude
}

func (t *telemetry) target() (uint8, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.systemID, t.heartbeat
}

// MAVLinkVehicle drives an ArduCopter over a gomavlib node.
type MAVLinkVehicle struct {
	node  *gomavlib.Node
	out   messageWriter
	state telemetry

	ackMu sync.Mutex
	acks  map[common.MAV_CMD]chan common.MAV_RESULT

	heartbeat chan struct{}
	closeOnce sync.Once
}

type messageWriter interface {
	WriteMessageAll(m message.Message) error
}

// nodeConf configures a ground-station node on ep. Stream requests make the
// autopilot send heartbeat, GPS and position telemetry even when its stream
// rates are zero.
func nodeConf(ep gomavlib.EndpointConf) gomavlib.NodeConf {
	return gomavlib.NodeConf{
		Endpoints:              []gomavlib.EndpointConf{ep},
		Dialect:                common.Dialect,
		OutVersion:             gomavlib.V2,
		OutSystemID:            groundStationID,
		StreamRequestEnable:    true,
		StreamRequestFrequency: streamRate,
	}
}

// Endpoint converts a Connection into a gomavlib endpoint. Serial devices
// are opened through factory.
func (c Connection) Endpoint(factory seriallink.Factory) (gomavlib.EndpointConf, seriallink.Port, error) {
	switch c.Transport {
	case TransportUDPServer:
		return gomavlib.EndpointUDPServer{Address: c.Address}, nil, nil
	case TransportUDPClient:
		return gomavlib.EndpointUDPClient{Address: c.Address}, nil, nil
	case TransportTCPClient:
		return gomavlib.EndpointTCPClient{Address: c.Address}, nil, nil
	case TransportTCPServer:
		return gomavlib.EndpointTCPServer{Address: c.Address}, nil, nil
	case TransportSerial:
		port, err := factory.Open(c.Device, c.Serial)
		if err != nil {
			return nil, nil, err
		}
		return gomavlib.EndpointCustom{ReadWriteCloser: port}, port, nil
	default:
		return nil, nil, fmt.Errorf("unsupported transport %s", c.Transport)
	}
}

// Dial connects to the vehicle and waits for its first heartbeat.
func Dial(ctx context.Context, conn Connection, factory seriallink.Factory, timeout time.Duration) (*MAVLinkVehicle, error) {
	monitoring.Logf("Connection to vehicle on %s", conn)

	ep, port, err := conn.Endpoint(factory)
	if err != nil {
		return nil, fmt.Errorf("open endpoint: %w", err)
	}
	node, err := gomavlib.NewNode(nodeConf(ep))
	if err != nil {
		if port != nil {
			port.Close()
		}
		return nil, fmt.Errorf("create mavlink node: %w", err)
	}

	v := &MAVLinkVehicle{
		node:      node,
		out:       node,
		acks:      make(map[common.MAV_CMD]chan common.MAV_RESULT),
		heartbeat: make(chan struct{}),
	}
	go v.readLoop()

	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case <-v.heartbeat:
		sys, _ := v.state.target()
		monitoring.Logf("vehicle %d connected", sys)
		return v, nil
	case <-timer.C:
		v.Close()
		return nil, fmt.Errorf("%w after %s", ErrNoHeartbeat, timeout)
	case <-ctx.Done():
		v.Close()
		return nil, ctx.Err()
	}
}

// Connect returns a Connector that dials conn.
func Connect(conn Connection, factory seriallink.Factory, timeout time.Duration) Connector {
	return func(ctx context.Context) (Vehicle, error) {
		return Dial(ctx, conn, factory, timeout)
	}
}

func (v *MAVLinkVehicle) readLoop() {
	var once sync.Once
	for evt := range v.node.Events() {
		frm, ok := evt.(*gomavlib.EventFrame)
		if !ok {
			continue
		}
		msg := frm.Message()
		v.state.update(frm.SystemID(), msg)
		if _, seen := v.state.target(); seen {
			once.Do(func() { close(v.heartbeat) })
		}
		if ack, ok := msg.(*common.MessageCommandAck); ok {
			v.deliverAck(ack)
		}
	}
}

func (v *MAVLinkVehicle) deliverAck(ack *common.MessageCommandAck) {
	v.ackMu.Lock()
	ch, ok := v.acks[ack.Command]
	if ok {
		delete(v.acks, ack.Command)
	}
	v.ackMu.Unlock()
	if ok {
		ch <- ack.Result
	}
}

// command sends COMMAND_LONG and waits for its acknowledgement.
func (v *MAVLinkVehicle) command(ctx context.Context, cmd common.MAV_CMD, params [7]float32) error {
	sys, ok := v.state.target()
	if !ok {
		return ErrNoHeartbeat
	}

	ch := make(chan common.MAV_RESULT, 1)
	v.ackMu.Lock()
	v.acks[cmd] = ch
	v.ackMu.Unlock()
	defer func() {
		v.ackMu.Lock()
		if v.acks[cmd] == ch {
			delete(v.acks, cmd)
		}
		v.ackMu.Unlock()
	}()

	if err := v.out.WriteMessageAll(commandLong(sys, cmd, params)); err != nil {
		return fmt.Errorf("send command %v: %w", cmd, err)
	}

	timer := time.NewTimer(ackTimeout)
	defer timer.Stop()
	select {
	case res := <-ch:
		if res != common.MAV_RESULT_ACCEPTED && res != common.MAV_RESULT_IN_PROGRESS {
			return fmt.Errorf("command %v rejected: %v", cmd, res)
		}
		return nil
	case <-timer.C:
		return fmt.Errorf("command %v: no acknowledgement within %s", cmd, ackTimeout)
	case <-ctx.Done():
		return ctx.Err()
	}
}

func commandLong(sys uint8, cmd common.MAV_CMD, p [7]float32) *common.MessageCommandLong {
	return &common.MessageCommandLong{
		TargetSystem:    sys,
		TargetComponent: autopilotComp,
		Command:         cmd,
		Param1:          p[0],
		Param2:          p[1],
		Param3:          p[2],
		Param4:          p[3],
		Param5:          p[4],
		Param6:          p[5],
		Param7:          p[6],
	}
}

func positionTarget(sys uint8, wp Waypoint) *common.MessageSetPositionTargetGlobalInt {
	return &common.MessageSetPositionTargetGlobalInt{
		TargetSystem:    sys,
		TargetComponent: autopilotComp,
		CoordinateFrame: common.MAV_FRAME_GLOBAL_RELATIVE_ALT_INT,
		TypeMask: common.POSITION_TARGET_TYPEMASK_VX_IGNORE |
			common.POSITION_TARGET_TYPEMASK_VY_IGNORE |
			common.POSITION_TARGET_TYPEMASK_VZ_IGNORE |
			common.POSITION_TARGET_TYPEMASK_AX_IGNORE |
			common.POSITION_TARGET_TYPEMASK_AY_IGNORE |
			common.POSITION_TARGET_TYPEMASK_AZ_IGNORE |
			common.POSITION_TARGET_TYPEMASK_YAW_IGNORE |
			common.POSITION_TARGET_TYPEMASK_YAW_RATE_IGNORE,
		LatInt: int32(math.Round(wp.Lat * 1e7)),
		LonInt: int32(math.Round(wp.Lon * 1e7)),
		Alt:    float32(wp.Alt),
	}
}

// Armable reports whether the vehicle can be armed.
func (v *MAVLinkVehicle) Armable(ctx context.Context) (bool, error) {
	return v.state.armable(), ctx.Err()
}

// SetMode switches to an ArduCopter flight mode.
func (v *MAVLinkVehicle) SetMode(ctx context.Context, mode Mode) error {
	custom, ok := copterModes[mode]
	if !ok {
		return fmt.Errorf("unknown mode %q", mode)
	}
	return v.command(ctx, common.MAV_CMD_DO_SET_MODE, [7]float32{
		float32(common.MAV_MODE_FLAG_CUSTOM_MODE_ENABLED), float32(custom),
	})
}

// Arm arms the motors.
func (v *MAVLinkVehicle) Arm(ctx context.Context) error {
	return v.command(ctx, common.MAV_CMD_COMPONENT_ARM_DISARM, [7]float32{1})
}

// Takeoff climbs to altitude metres above home.
func (v *MAVLinkVehicle) Takeoff(ctx context.Context, altitude float64) error {
	return v.command(ctx, common.MAV_CMD_NAV_TAKEOFF, [7]float32{6: float32(altitude)})
}

// RelativeAltitude returns metres above home from GLOBAL_POSITION_INT.
func (v *MAVLinkVehicle) RelativeAltitude(ctx context.Context) (float64, error) {
	alt, _ := v.state.relativeAltitude()
	return alt, ctx.Err()
}

// SetAirspeed sets the cruise airspeed.
func (v *MAVLinkVehicle) SetAirspeed(ctx context.Context, mps float64) error {
	return v.command(ctx, common.MAV_CMD_DO_CHANGE_SPEED, [7]float32{0, float32(mps), -1})
}

// Goto sends a guided-mode position target. There is no acknowledgement.
func (v *MAVLinkVehicle) Goto(ctx context.Context, wp Waypoint) error {
	sys, ok := v.state.target()
	if !ok {
		return ErrNoHeartbeat
	}
	if err := v.out.WriteMessageAll(positionTarget(sys, wp)); err != nil {
		return fmt.Errorf("send position target: %w", err)
	}
	return ctx.Err()
}

// Close shuts the node, which also closes a serial port endpoint.
func (v *MAVLinkVehicle) Close() error {
	v.closeOnce.Do(v.node.Close)
	return nil
}
