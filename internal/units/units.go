// Package units converts the lengths used for marker and checkerboard sizes
// and the speeds used for mission airspeed.
package units

import (
	"fmt"
	"strings"
)

// Length units. Pose translations come out in whatever unit the marker
// side length was given in.
const (
	MM   = "mm"
	CM   = "cm"
	M    = "m"
	Inch = "in"
)

// Speed units.
const (
	MPS  = "mps"
	MPH  = "mph"
	KMPH = "kmph"
	KPH  = "kph"
)

// ValidLengthUnits lists accepted length units.
var ValidLengthUnits = []string{MM, CM, M, Inch}

// ValidSpeedUnits lists accepted speed units.
var ValidSpeedUnits = []string{MPS, MPH, KMPH, KPH}

var metresPer = map[string]float64{
	MM:   0.001,
	CM:   0.01,
	M:    1,
	Inch: 0.0254,
}

// IsValidLength checks if unit is a known length unit.
func IsValidLength(unit string) bool {
	_, ok := metresPer[unit]
	return ok
}

// IsValidSpeed checks if unit is a known speed unit.
func IsValidSpeed(unit string) bool {
	for _, u := range ValidSpeedUnits {
		if unit == u {
			return true
		}
	}
	return false
}

// GetValidLengthUnitsString returns a comma-separated list for error messages.
func GetValidLengthUnitsString() string {
	return strings.Join(ValidLengthUnits, ", ")
}

// GetValidSpeedUnitsString returns a comma-separated list for error messages.
func GetValidSpeedUnitsString() string {
	return strings.Join(ValidSpeedUnits, ", ")
}

// ConvertLength converts v between two length units.
func ConvertLength(v float64, from, to string) (float64, error) {
	f, ok := metresPer[from]
	if !ok {
		return 0, fmt.Errorf("invalid length unit %q, want one of %s", from, GetValidLengthUnitsString())
	}
	t, ok := metresPer[to]
	if !ok {
		return 0, fmt.Errorf("invalid length unit %q, want one of %s", to, GetValidLengthUnitsString())
	}
	return v * f / t, nil
}

// ConvertSpeed converts a speed from metres per second to the target units.
// Unknown units return the input unchanged.
func ConvertSpeed(speedMPS float64, targetUnits string) float64 {
	switch targetUnits {
	case MPH:
		return speedMPS * 2.23694
	case KMPH, KPH:
		return speedMPS * 3.6
	default:
		return speedMPS
	}
}

// SpeedToMPS converts a speed in the given units to metres per second.
func SpeedToMPS(speed float64, fromUnits string) (float64, error) {
	switch fromUnits {
	case MPS:
		return speed, nil
	case MPH:
		return speed / 2.23694, nil
	case KMPH, KPH:
		return speed / 3.6, nil
	default:
		return 0, fmt.Errorf("invalid speed unit %q, want one of %s", fromUnits, GetValidSpeedUnitsString())
	}
}
