// Package aruco models ArUco marker dictionaries, detected markers and the
// pure geometry used to annotate and generate them. Image processing itself
// lives in the vision package.
package aruco

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrUnknownDictionary is returned when a dictionary name is not supported.
var ErrUnknownDictionary = errors.New("unsupported ArUco dictionary")

// DefaultDictionary is used by every tool when no --type is given.
const DefaultDictionary = "DICT_6X6_50"

// Dictionary describes one predefined marker dictionary.
type Dictionary struct {
	// Name is the OpenCV identifier, e.g. DICT_6X6_50.
	Name string
	// Code is the OpenCV PredefinedDictionaryType value.
	Code int
	// Size is the number of valid marker IDs (0..Size-1).
	Size int
	// Bits is the side length of the inner bit grid.
	Bits int
}

var dictionaries = []Dictionary{
	{Name: "DICT_4X4_50", Code: 0, Size: 50, Bits: 4},
	{Name: "DICT_4X4_100", Code: 1, Size: 100, Bits: 4},
	{Name: "DICT_4X4_250", Code: 2, Size: 250, Bits: 4},
	{Name: "DICT_4X4_1000", Code: 3, Size: 1000, Bits: 4},
	{Name: "DICT_5X5_50", Code: 4, Size: 50, Bits: 5},
	{Name: "DICT_5X5_100", Code: 5, Size: 100, Bits: 5},
	{Name: "DICT_5X5_250", Code: 6, Size: 250, Bits: 5},
	{Name: "DICT_5X5_1000", Code: 7, Size: 1000, Bits: 5},
	{Name: "DICT_6X6_50", Code: 8, Size: 50, Bits: 6},
	{Name: "DICT_6X6_100", Code: 9, Size: 100, Bits: 6},
	{Name: "DICT_6X6_250", Code: 10, Size: 250, Bits: 6},
	{Name: "DICT_6X6_1000", Code: 11, Size: 1000, Bits: 6},
	{Name: "DICT_7X7_50", Code: 12, Size: 50, Bits: 7},
	{Name: "DICT_7X7_100", Code: 13, Size: 100, Bits: 7},
	{Name: "DICT_7X7_250", Code: 14, Size: 250, Bits: 7},
	{Name: "DICT_7X7_1000", Code: 15, Size: 1000, Bits: 7},
	{Name: "DICT_ARUCO_ORIGINAL", Code: 16, Size: 1024, Bits: 5},
	{Name: "DICT_APRILTAG_16h5", Code: 17, Size: 30, Bits: 4},
	{Name: "DICT_APRILTAG_25h9", Code: 18, Size: 35, Bits: 5},
	{Name: "DICT_APRILTAG_36h10", Code: 19, Size: 2320, Bits: 6},
	{Name: "DICT_APRILTAG_36h11", Code: 20, Size: 587, Bits: 6},
}

// Lookup returns the dictionary registered under name. Matching is exact
// first, then case-insensitive so DICT_APRILTAG_36H11 is accepted too.
func Lookup(name string) (Dictionary, error) {
	for _, d := range dictionaries {
		if d.Name == name {
			return d, nil
		}
	}
	for _, d := range dictionaries {
		if strings.EqualFold(d.Name, name) {
			return d, nil
		}
	}
	return Dictionary{}, fmt.Errorf("%w: %s", ErrUnknownDictionary, name)
}

// Names returns every supported dictionary name, sorted.
func Names() []string {
	names := make([]string, 0, len(dictionaries))
	for _, d := range dictionaries {
		names = append(names, d.Name)
	}
	sort.Strings(names)
	return names
}

// IDs returns every valid marker ID in the dictionary in ascending order.
func (d Dictionary) IDs() []int {
	ids := make([]int, d.Size)
	for i := range ids {
		ids[i] = i
	}
	return ids
}

// Valid reports whether id belongs to the dictionary.
func (d Dictionary) Valid(id int) bool {
	return id >= 0 && id < d.Size
}

// CheckRaster reports whether a marker image of sidePixels with a border of
// borderBits modules can hold the dictionary's bit grid.
func (d Dictionary) CheckRaster(sidePixels, borderBits int) error {
	if borderBits < 1 {
		return fmt.Errorf("border of %d bits, need at least 1", borderBits)
	}
	if min := d.Bits + 2*borderBits; sidePixels < min {
		return fmt.Errorf("side of %d pixels too small for %s, need at least %d", sidePixels, d.Name, min)
	}
	return nil
}
