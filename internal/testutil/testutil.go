// Package testutil provides shared test utilities and fixtures.
//
// This package centralises common test helpers to reduce code duplication
// across the geometry, calibration and mission test files.
package testutil

import (
	"math"
	"testing"
)

// AssertNoError fails the test if err is not nil.
func AssertNoError(t testing.TB, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// AssertError fails the test if err is nil.
func AssertError(t testing.TB, err error) {
	t.Helper()
	if err == nil {
		t.Fatal("expected error, got nil")
	}
}

// AssertNear fails the test when got and want differ by more than tol.
func AssertNear(t testing.TB, name string, got, want, tol float64) {
	t.Helper()
	if math.IsNaN(got) || math.Abs(got-want) > tol {
		t.Errorf("%s = %.9g, want %.9g (±%g)", name, got, want, tol)
	}
}

// AssertVec3Near compares two 3-vectors component-wise.
func AssertVec3Near(t testing.TB, name string, got, want [3]float64, tol float64) {
	t.Helper()
	for i := range got {
		if math.IsNaN(got[i]) || math.Abs(got[i]-want[i]) > tol {
			t.Errorf("%s = %v, want %v (±%g)", name, got, want, tol)
			return
		}
	}
}

// AssertMat3Near compares two 3×3 matrices element-wise.
func AssertMat3Near(t testing.TB, name string, got, want [3][3]float64, tol float64) {
	t.Helper()
	for i := range got {
		for j := range got[i] {
			if math.IsNaN(got[i][j]) || math.Abs(got[i][j]-want[i][j]) > tol {
				t.Errorf("%s[%d][%d] = %.9g, want %.9g (±%g)", name, i, j, got[i][j], want[i][j], tol)
				return
			}
		}
	}
}
