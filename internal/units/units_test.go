package units

import (
	"math"
	"testing"
)

func TestConvertSpeed(t *testing.T) {
	tests := []struct {
		name     string
		speedMPS float64
		units    string
		expected float64
	}{
		{"7 m/s to mph", 7.0, MPH, 15.65858},
		{"7 m/s to kmph", 7.0, KMPH, 25.2},
		{"7 m/s to kph", 7.0, KPH, 25.2},
		{"7 m/s to mps", 7.0, MPS, 7.0},
		{"unknown units default to mps", 7.0, "knots", 7.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := ConvertSpeed(tt.speedMPS, tt.units)
			if math.Abs(result-tt.expected) > 0.001 {
				t.Errorf("ConvertSpeed(%f, %s) = %f, want %f", tt.speedMPS, tt.units, result, tt.expected)
			}
		})
	}
}

func TestSpeedToMPS(t *testing.T) {
	for _, u := range ValidSpeedUnits {
		mps, err := SpeedToMPS(ConvertSpeed(7, u), u)
		if err != nil {
			t.Fatalf("SpeedToMPS(%s) error: %v", u, err)
		}
		if math.Abs(mps-7) > 1e-9 {
			t.Errorf("round trip via %s = %f, want 7", u, mps)
		}
	}
	if _, err := SpeedToMPS(1, "furlongs"); err == nil {
		t.Error("expected error for unknown unit")
	}
}

func TestConvertLength(t *testing.T) {
	tests := []struct {
		v        float64
		from, to string
		expected float64
	}{
		{13.5, MM, CM, 1.35},
		{8, CM, M, 0.08},
		{1, Inch, MM, 25.4},
		{2, M, M, 2},
	}
	for _, tt := range tests {
		got, err := ConvertLength(tt.v, tt.from, tt.to)
		if err != nil {
			t.Fatalf("ConvertLength(%v, %s, %s) error: %v", tt.v, tt.from, tt.to, err)
		}
		if math.Abs(got-tt.expected) > 1e-9 {
			t.Errorf("ConvertLength(%v, %s, %s) = %v, want %v", tt.v, tt.from, tt.to, got, tt.expected)
		}
	}
	if _, err := ConvertLength(1, "cubit", M); err == nil {
		t.Error("expected error for unknown source unit")
	}
	if _, err := ConvertLength(1, M, "cubit"); err == nil {
		t.Error("expected error for unknown target unit")
	}
}

func TestIsValid(t *testing.T) {
	if !IsValidLength(CM) || IsValidLength("CM") {
		t.Error("length validation should be case sensitive")
	}
	if !IsValidSpeed(MPS) || IsValidSpeed("") {
		t.Error("unexpected speed validation result")
	}
	if got := GetValidLengthUnitsString(); got != "mm, cm, m, in" {
		t.Errorf("GetValidLengthUnitsString() = %q", got)
	}
	if got := GetValidSpeedUnitsString(); got != "mps, mph, kmph, kph" {
		t.Errorf("GetValidSpeedUnitsString() = %q", got)
	}
}
