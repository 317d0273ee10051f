package monitoring

import "time"

// now is swapped in tests.
var now = time.Now

// Timed starts a timing scope for name and returns the function that closes it.
// Closing the scope logs the elapsed wall time in milliseconds:
//
//	defer monitoring.Timed("detect markers")()
func Timed(name string) func() {
	start := now()
	return func() {
		elapsed := now().Sub(start)
		Logf("%s took %.2f ms to execute", name, float64(elapsed)/float64(time.Millisecond))
	}
}

// TimeFunc runs fn inside a Timed scope and returns its error.
func TimeFunc(name string, fn func() error) error {
	defer Timed(name)()
	return fn()
}
