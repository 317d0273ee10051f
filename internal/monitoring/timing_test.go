package monitoring

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func captureLogs(t *testing.T) *[]string {
	t.Helper()
	original := Logf
	t.Cleanup(func() { Logf = original })

	var lines []string
	SetLogger(func(format string, v ...interface{}) {
		lines = append(lines, fmt.Sprintf(format, v...))
	})
	return &lines
}

func fakeClock(t *testing.T, ticks ...time.Time) {
	t.Helper()
	original := now
	t.Cleanup(func() { now = original })

	i := 0
	now = func() time.Time {
		tick := ticks[i]
		if i < len(ticks)-1 {
			i++
		}
		return tick
	}
}

func TestTimed_LogsElapsedMilliseconds(t *testing.T) {
	lines := captureLogs(t)
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	fakeClock(t, base, base.Add(12340*time.Microsecond))

	done := Timed("detect markers")
	done()

	require.Len(t, *lines, 1)
	assert.Equal(t, "detect markers took 12.34 ms to execute", (*lines)[0])
}

func TestTimeFunc_PropagatesError(t *testing.T) {
	lines := captureLogs(t)
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	fakeClock(t, base, base.Add(time.Millisecond))

	sentinel := errors.New("calibration failed")
	err := TimeFunc("calibrate", func() error { return sentinel })

	assert.ErrorIs(t, err, sentinel)
	require.Len(t, *lines, 1)
	assert.Equal(t, "calibrate took 1.00 ms to execute", (*lines)[0])
}
