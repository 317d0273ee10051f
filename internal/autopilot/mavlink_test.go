package autopilot

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/bluenviron/gomavlib/v3"
	"github.com/bluenviron/gomavlib/v3/pkg/dialects/common"
	"github.com/bluenviron/gomavlib/v3/pkg/message"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/fiducial/internal/seriallink"
)

func copterHeartbeat(status common.MAV_STATE, armed bool) *common.MessageHeartbeat {
	hb := &common.MessageHeartbeat{
		Type:         common.MAV_TYPE_QUADROTOR,
		Autopilot:    common.MAV_AUTOPILOT_ARDUPILOTMEGA,
		SystemStatus: status,
		CustomMode:   4,
	}
	if armed {
		hb.BaseMode = common.MAV_MODE_FLAG_SAFETY_ARMED
	}
	return hb
}

func TestTelemetry_Armable(t *testing.T) {
	var tel telemetry
	assert.False(t, tel.armable())

	tel.update(1, copterHeartbeat(common.MAV_STATE_BOOT, false))
	tel.update(1, &common.MessageGpsRawInt{FixType: common.GPS_FIX_TYPE_3D_FIX})
	assert.False(t, tel.armable(), "booting vehicle is not armable")

	tel.update(1, copterHeartbeat(common.MAV_STATE_STANDBY, false))
	assert.True(t, tel.armable())

	tel.update(1, &common.MessageGpsRawInt{FixType: common.GPS_FIX_TYPE_2D_FIX})
	assert.False(t, tel.armable(), "2D fix is not enough")

	tel.update(1, &common.MessageGpsRawInt{FixType: common.GPS_FIX_TYPE_RTK_FIXED})
	assert.True(t, tel.armable())
}

func TestTelemetry_IgnoresGroundStationsAndOtherSystems(t *testing.T) {
	var tel telemetry
	tel.update(200, &common.MessageHeartbeat{Type: common.MAV_TYPE_GCS, Autopilot: common.MAV_AUTOPILOT_INVALID})
	_, seen := tel.target()
	assert.False(t, seen)

	tel.update(1, copterHeartbeat(common.MAV_STATE_STANDBY, true))
	sys, seen := tel.target()
	require.True(t, seen)
	assert.Equal(t, uint8(1), sys)
	assert.True(t, tel.armed)

	tel.update(2, &common.MessageGlobalPositionInt{RelativeAlt: 50000})
	_, ok := tel.relativeAltitude()
	assert.False(t, ok, "altitude from another system is ignored")

	tel.update(1, &common.MessageGlobalPositionInt{RelativeAlt: 9420})
	alt, ok := tel.relativeAltitude()
	require.True(t, ok)
	assert.InDelta(t, 9.42, alt, 1e-9)
}

func TestCommandLong(t *testing.T) {
	msg := commandLong(1, common.MAV_CMD_NAV_TAKEOFF, [7]float32{6: 10})
	assert.Equal(t, uint8(1), msg.TargetSystem)
	assert.Equal(t, uint8(autopilotComp), msg.TargetComponent)
	assert.Equal(t, common.MAV_CMD_NAV_TAKEOFF, msg.Command)
	assert.Equal(t, float32(10), msg.Param7)
	assert.Equal(t, float32(0), msg.Param1)
}

func TestPositionTarget(t *testing.T) {
	msg := positionTarget(3, DefaultPlan.Waypoint)
	assert.Equal(t, uint8(3), msg.TargetSystem)
	assert.Equal(t, common.MAV_FRAME_GLOBAL_RELATIVE_ALT_INT, msg.CoordinateFrame)
	assert.Equal(t, int32(359872609), msg.LatInt)
	assert.Equal(t, int32(-958753037), msg.LonInt)
	assert.Equal(t, float32(10), msg.Alt)
	assert.NotZero(t, msg.TypeMask&common.POSITION_TARGET_TYPEMASK_VX_IGNORE)
	assert.Zero(t, msg.TypeMask&common.POSITION_TARGET_TYPEMASK_X_IGNORE)
}

func TestCopterModes(t *testing.T) {
	assert.Equal(t, uint32(4), copterModes[ModeGuided])
	assert.Equal(t, uint32(6), copterModes[ModeRTL])
}

func TestConnection_Endpoint(t *testing.T) {
	f := &seriallink.MockFactory{}

	c, err := ParseConnection("udpin:0.0.0.0:14550")
	require.NoError(t, err)
	ep, port, err := c.Endpoint(f)
	require.NoError(t, err)
	assert.Equal(t, gomavlib.EndpointUDPServer{Address: "0.0.0.0:14550"}, ep)
	assert.Nil(t, port)

	c, err = ParseConnection("tcp:127.0.0.1:5760")
	require.NoError(t, err)
	ep, _, err = c.Endpoint(f)
	require.NoError(t, err)
	assert.Equal(t, gomavlib.EndpointTCPClient{Address: "127.0.0.1:5760"}, ep)
	assert.Equal(t, 0, f.Calls)

	c, err = ParseConnection("/dev/ttyAMA0,115200")
	require.NoError(t, err)
	ep, port, err = c.Endpoint(f)
	require.NoError(t, err)
	assert.Equal(t, 1, f.Calls)
	assert.Equal(t, "/dev/ttyAMA0", f.Path)
	assert.Equal(t, 115200, f.Options.BaudRate)
	assert.Equal(t, gomavlib.EndpointCustom{ReadWriteCloser: port}, ep)
}

func TestConnection_EndpointSerialError(t *testing.T) {
	f := &seriallink.MockFactory{Err: errors.New("permission denied")}
	c, err := ParseConnection("/dev/ttyAMA0")
	require.NoError(t, err)
	_, _, err = c.Endpoint(f)
	assert.EqualError(t, err, "permission denied")
}

func TestConnect_ReturnsConnector(t *testing.T) {
	c, err := ParseConnection("/dev/ttyAMA0")
	require.NoError(t, err)
	f := &seriallink.MockFactory{Err: errors.New("no such device")}
	_, err = Connect(c, f, 0)(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no such device")
}

func TestNodeConf_RequestsStreams(t *testing.T) {
	ep := gomavlib.EndpointUDPServer{Address: "0.0.0.0:14550"}
	conf := nodeConf(ep)

	assert.True(t, conf.StreamRequestEnable)
	assert.Equal(t, streamRate, conf.StreamRequestFrequency)
	assert.Equal(t, []gomavlib.EndpointConf{ep}, conf.Endpoints)
	assert.Equal(t, uint8(groundStationID), conf.OutSystemID)
	assert.Equal(t, gomavlib.V2, conf.OutVersion)
}

type failingWriter struct {
	err  error
	sent []message.Message
}

func (w *failingWriter) WriteMessageAll(m message.Message) error {
	w.sent = append(w.sent, m)
	return w.err
}

func connectedVehicle(out messageWriter) *MAVLinkVehicle {
	v := &MAVLinkVehicle{
		out:  out,
		acks: make(map[common.MAV_CMD]chan common.MAV_RESULT),
	}
	v.state.update(1, copterHeartbeat(common.MAV_STATE_STANDBY, false))
	return v
}

func TestMAVLinkVehicle_WriteErrorsSurface(t *testing.T) {
	errClosed := errors.New("node closed")
	w := &failingWriter{err: errClosed}
	v := connectedVehicle(w)
	ctx := context.Background()

	start := time.Now()
	err := v.Arm(ctx)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errClosed))
	assert.Less(t, time.Since(start), ackTimeout, "write failure must not wait for an acknowledgement")
	assert.Empty(t, v.acks, "pending acknowledgement is cleared")

	err = v.Goto(ctx, DefaultPlan.Waypoint)
	assert.True(t, errors.Is(err, errClosed))
	assert.Len(t, w.sent, 2)
}

func TestMAVLinkVehicle_GotoSendsTarget(t *testing.T) {
	w := &failingWriter{}
	v := connectedVehicle(w)

	require.NoError(t, v.Goto(context.Background(), DefaultPlan.Waypoint))
	require.Len(t, w.sent, 1)
	target, ok := w.sent[0].(*common.MessageSetPositionTargetGlobalInt)
	require.True(t, ok)
	assert.Equal(t, uint8(1), target.TargetSystem)
}
