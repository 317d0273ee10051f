package autopilot

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/fiducial/internal/timeutil"
)

// mockVehicle reports armable after armablePolls calls and target altitude
// after altitudePolls calls.
type mockVehicle struct {
	armablePolls  int
	altitudePolls int
	target        float64

	armableCalls  int
	altitudeCalls int
	modes         []Mode
	armed         bool
	takeoffAlt    float64
	airspeed      float64
	goTo          []Waypoint
	closeCalls    int
	failArm       error
}

func (v *mockVehicle) Armable(ctx context.Context) (bool, error) {
	v.armableCalls++
	return v.armableCalls > v.armablePolls, nil
}

func (v *mockVehicle) SetMode(ctx context.Context, mode Mode) error {
	v.modes = append(v.modes, mode)
	return nil
}

func (v *mockVehicle) Arm(ctx context.Context) error {
	if v.failArm != nil {
		return v.failArm
	}
	v.armed = true
	return nil
}

func (v *mockVehicle) Takeoff(ctx context.Context, altitude float64) error {
	v.takeoffAlt = altitude
	return nil
}

func (v *mockVehicle) RelativeAltitude(ctx context.Context) (float64, error) {
	v.altitudeCalls++
	if v.altitudeCalls >= v.altitudePolls {
		return v.target - 0.6, nil
	}
	return float64(v.altitudeCalls), nil
}

func (v *mockVehicle) SetAirspeed(ctx context.Context, mps float64) error {
	v.airspeed = mps
	return nil
}

func (v *mockVehicle) Goto(ctx context.Context, wp Waypoint) error {
	v.goTo = append(v.goTo, wp)
	return nil
}

func (v *mockVehicle) Close() error {
	v.closeCalls++
	return nil
}

func countModes(modes []Mode, want Mode) int {
	n := 0
	for _, m := range modes {
		if m == want {
			n++
		}
	}
	return n
}

func TestMission_VisitsEveryStateOnce(t *testing.T) {
	const n = 5
	v := &mockVehicle{armablePolls: 0, altitudePolls: n, target: 10}
	clock := timeutil.NewMockClock(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))

	var states []State
	m := &Mission{
		Connect: func(ctx context.Context) (Vehicle, error) { return v, nil },
		Clock:   clock,
		Plan:    DefaultPlan,
		OnState: func(s State) { states = append(states, s) },
	}
	require.NoError(t, m.Run(context.Background()))

	assert.Equal(t, []State{
		StateDisconnected, StateConnected, StateArmableWait, StateArmed, StateTakingOff,
		StateAirborne, StateEnRoute, StateHolding, StateReturning, StateClosed,
	}, states)
	assert.Equal(t, StateClosed, m.State())

	assert.Equal(t, 1, countModes(v.modes, ModeGuided))
	assert.Equal(t, 1, countModes(v.modes, ModeRTL))
	assert.Equal(t, []Mode{ModeGuided, ModeRTL}, v.modes)
	assert.True(t, v.armed)
	assert.Equal(t, 10.0, v.takeoffAlt)
	assert.Equal(t, 7.0, v.airspeed)
	assert.Equal(t, []Waypoint{{Lat: 35.9872609, Lon: -95.8753037, Alt: 10}}, v.goTo)
	assert.Equal(t, 1, v.closeCalls)

	assert.Equal(t, 1, v.armableCalls)
	assert.Equal(t, n, v.altitudeCalls)

	// n-1 altitude polls sleep, then hold and return waits.
	want := []time.Duration{}
	for i := 0; i < n-1; i++ {
		want = append(want, time.Second)
	}
	want = append(want, 15*time.Second, 15*time.Second)
	assert.Equal(t, want, clock.Sleeps())
}

func TestMission_WaitsForArmable(t *testing.T) {
	v := &mockVehicle{armablePolls: 3, altitudePolls: 1, target: 10}
	clock := timeutil.NewMockClock(time.Unix(0, 0))
	m := &Mission{
		Connect: func(ctx context.Context) (Vehicle, error) { return v, nil },
		Clock:   clock,
		Plan:    DefaultPlan,
	}
	require.NoError(t, m.Run(context.Background()))
	assert.Equal(t, 4, v.armableCalls)
	assert.Equal(t, 1, v.altitudeCalls)
	assert.Equal(t, []time.Duration{time.Second, time.Second, time.Second, 15 * time.Second, 15 * time.Second}, clock.Sleeps())
}

func TestMission_ConnectError(t *testing.T) {
	m := &Mission{
		Connect: func(ctx context.Context) (Vehicle, error) { return nil, ErrNoHeartbeat },
		Clock:   timeutil.NewMockClock(time.Unix(0, 0)),
		Plan:    DefaultPlan,
	}
	err := m.Run(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNoHeartbeat))
	assert.Equal(t, StateDisconnected, m.State())
}

func TestMission_ArmErrorClosesVehicle(t *testing.T) {
	v := &mockVehicle{target: 10, failArm: errors.New("prearm check failed")}
	m := &Mission{
		Connect: func(ctx context.Context) (Vehicle, error) { return v, nil },
		Clock:   timeutil.NewMockClock(time.Unix(0, 0)),
		Plan:    DefaultPlan,
	}
	err := m.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "prearm check failed")
	assert.Equal(t, StateArmableWait, m.State())
	assert.Equal(t, 1, v.closeCalls)
}

func TestMission_CancelledDuringArmableWait(t *testing.T) {
	v := &mockVehicle{armablePolls: 1 << 30, target: 10}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	m := &Mission{
		Connect: func(ctx context.Context) (Vehicle, error) { return v, nil },
		Clock:   timeutil.NewMockClock(time.Unix(0, 0)),
		Plan:    DefaultPlan,
	}
	err := m.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, v.closeCalls)
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "armable-wait", StateArmableWait.String())
	assert.Equal(t, "closed", StateClosed.String())
	assert.Equal(t, "state(42)", State(42).String())
}
