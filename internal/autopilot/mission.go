package autopilot

import (
	"context"
	"fmt"
	"time"

	"github.com/banshee-data/fiducial/internal/monitoring"
	"github.com/banshee-data/fiducial/internal/timeutil"
)

// State is a mission phase.
type State int

const (
	StateDisconnected State = iota
	StateConnected
	StateArmableWait
	StateArmed
	StateTakingOff
	StateAirborne
	StateEnRoute
	StateHolding
	StateReturning
	StateClosed
)

var stateNames = [...]string{
	"disconnected",
	"connected",
	"armable-wait",
	"armed",
	"taking-off",
	"airborne",
	"en-route",
	"holding",
	"returning",
	"closed",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return fmt.Sprintf("state(%d)", int(s))
	}
	return stateNames[s]
}

// AltitudeMargin is how far below the target altitude counts as reached.
const AltitudeMargin = 1.0

// Plan holds the mission parameters.
type Plan struct {
	TargetAltitude float64
	Airspeed       float64
	Waypoint       Waypoint
	HoldTime       time.Duration
	ReturnWait     time.Duration
	PollInterval   time.Duration
}

// DefaultPlan is the single-waypoint survey flight.
var DefaultPlan = Plan{
	TargetAltitude: 10,
	Airspeed:       7,
	Waypoint:       Waypoint{Lat: 35.9872609, Lon: -95.8753037, Alt: 10},
	HoldTime:       15 * time.Second,
	ReturnWait:     15 * time.Second,
	PollInterval:   time.Second,
}

// Mission runs a Plan once. Polls have no timeout; only ctx interrupts them.
type Mission struct {
	Connect Connector
	Clock   timeutil.Clock
	Plan    Plan
	// OnState is called on every transition, including the initial state.
	OnState func(State)

	state State
}

// NewMission returns a Mission using the real clock.
func NewMission(connect Connector, plan Plan) *Mission {
	return &Mission{Connect: connect, Clock: timeutil.RealClock{}, Plan: plan}
}

// State returns the current phase.
func (m *Mission) State() State {
	return m.state
}

func (m *Mission) enter(s State) {
	m.state = s
	monitoring.Logf("mission: %s", s)
	if m.OnState != nil {
		m.OnState(s)
	}
}

// Run flies the mission to completion.
func (m *Mission) Run(ctx context.Context) error {
	m.enter(StateDisconnected)
	v, err := m.Connect(ctx)
	if err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	closed := false
	defer func() {
		if !closed {
			v.Close()
		}
	}()
	m.enter(StateConnected)

	monitoring.Logf("Arming motors")
	m.enter(StateArmableWait)
	for {
		ok, err := v.Armable(ctx)
		if err != nil {
			return fmt.Errorf("armable: %w", err)
		}
		if ok {
			break
		}
		if err := m.Clock.SleepContext(ctx, m.Plan.PollInterval); err != nil {
			return err
		}
	}

	if err := v.SetMode(ctx, ModeGuided); err != nil {
		return fmt.Errorf("set mode %s: %w", ModeGuided, err)
	}
	if err := v.Arm(ctx); err != nil {
		return fmt.Errorf("arm: %w", err)
	}
	m.enter(StateArmed)

	monitoring.Logf("Takeoff")
	if err := v.Takeoff(ctx, m.Plan.TargetAltitude); err != nil {
		return fmt.Errorf("takeoff: %w", err)
	}
	m.enter(StateTakingOff)
	for {
		alt, err := v.RelativeAltitude(ctx)
		if err != nil {
			return fmt.Errorf("altitude: %w", err)
		}
		if alt >= m.Plan.TargetAltitude-AltitudeMargin {
			monitoring.Logf("Altitude Reached")
			break
		}
		if err := m.Clock.SleepContext(ctx, m.Plan.PollInterval); err != nil {
			return err
		}
	}
	m.enter(StateAirborne)

	if err := v.SetAirspeed(ctx, m.Plan.Airspeed); err != nil {
		return fmt.Errorf("set airspeed: %w", err)
	}

	monitoring.Logf("Go to waypoint %.7f, %.7f at %.1f m", m.Plan.Waypoint.Lat, m.Plan.Waypoint.Lon, m.Plan.Waypoint.Alt)
	if err := v.Goto(ctx, m.Plan.Waypoint); err != nil {
		return fmt.Errorf("goto: %w", err)
	}
	m.enter(StateEnRoute)

	m.enter(StateHolding)
	if err := m.Clock.SleepContext(ctx, m.Plan.HoldTime); err != nil {
		return err
	}

	monitoring.Logf("Coming back")
	if err := v.SetMode(ctx, ModeRTL); err != nil {
		return fmt.Errorf("set mode %s: %w", ModeRTL, err)
	}
	m.enter(StateReturning)
	if err := m.Clock.SleepContext(ctx, m.Plan.ReturnWait); err != nil {
		return err
	}

	closed = true
	if err := v.Close(); err != nil {
		return fmt.Errorf("close: %w", err)
	}
	m.enter(StateClosed)
	return nil
}
