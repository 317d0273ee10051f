package aruco

import (
	"errors"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookup(t *testing.T) {
	tests := []struct {
		name string
		code int
		size int
		bits int
	}{
		{"DICT_4X4_50", 0, 50, 4},
		{"DICT_5X5_1000", 7, 1000, 5},
		{"DICT_6X6_50", 8, 50, 6},
		{"DICT_7X7_250", 14, 250, 7},
		{"DICT_ARUCO_ORIGINAL", 16, 1024, 5},
		{"DICT_APRILTAG_36h11", 20, 587, 6},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := Lookup(tt.name)
			require.NoError(t, err)
			assert.Equal(t, tt.name, d.Name)
			assert.Equal(t, tt.code, d.Code)
			assert.Equal(t, tt.size, d.Size)
			assert.Equal(t, tt.bits, d.Bits)
		})
	}
}

func TestLookup_CaseInsensitive(t *testing.T) {
	d, err := Lookup("DICT_APRILTAG_36H11")
	require.NoError(t, err)
	assert.Equal(t, "DICT_APRILTAG_36h11", d.Name)
}

func TestLookup_Unknown(t *testing.T) {
	_, err := Lookup("DICT_8X8_50")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnknownDictionary))
	assert.Contains(t, err.Error(), "DICT_8X8_50")
}

func TestNames(t *testing.T) {
	names := Names()
	assert.Len(t, names, 21)
	assert.True(t, sort.StringsAreSorted(names))
	assert.Contains(t, names, DefaultDictionary)

	codes := make(map[int]bool)
	for _, n := range names {
		d, err := Lookup(n)
		require.NoError(t, err)
		assert.False(t, codes[d.Code], "duplicate code %d", d.Code)
		codes[d.Code] = true
	}
}

func TestDictionary_IDs(t *testing.T) {
	d, err := Lookup("DICT_6X6_50")
	require.NoError(t, err)
	ids := d.IDs()
	require.Len(t, ids, 50)
	assert.Equal(t, 0, ids[0])
	assert.Equal(t, 49, ids[49])
	assert.True(t, d.Valid(49))
	assert.False(t, d.Valid(50))
	assert.False(t, d.Valid(-1))
}

func TestDictionary_CheckRaster(t *testing.T) {
	dict, err := Lookup("DICT_4X4_50")
	require.NoError(t, err)

	assert.NoError(t, dict.CheckRaster(DefaultSidePixels, DefaultBorderBits))
	assert.NoError(t, dict.CheckRaster(6, 1))
	assert.Error(t, dict.CheckRaster(5, 1))
	assert.Error(t, dict.CheckRaster(300, 0))
	assert.Error(t, dict.CheckRaster(7, 2))
}
