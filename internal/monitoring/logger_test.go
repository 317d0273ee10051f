package monitoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSetLogger(t *testing.T) {
	original := Logf
	defer func() { Logf = original }()

	var got []string
	SetLogger(func(format string, v ...interface{}) {
		got = append(got, format)
	})
	Logf("marker %d detected", 7)
	assert.Equal(t, []string{"marker %d detected"}, got)

	// nil installs a no-op; the previous capture must not see further lines
	SetLogger(nil)
	assert.NotPanics(t, func() { Logf("dropped") })
	assert.Len(t, got, 1)
}

func TestLogf_Default(t *testing.T) {
	assert.NotNil(t, Logf)
	assert.NotPanics(t, func() { Logf("test message: %s", "value") })
}
