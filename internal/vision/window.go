package vision

import "gocv.io/x/gocv"

// Window is an on-screen preview with key polling.
type Window struct {
	w *gocv.Window
}

// NewWindow opens a named preview window.
func NewWindow(name string) *Window {
	return &Window{w: gocv.NewWindow(name)}
}

// Show displays img and polls the keyboard for delayMS milliseconds. It
// returns the pressed key, or -1. A delay of 0 blocks until a key.
func (w *Window) Show(img gocv.Mat, delayMS int) int {
	w.w.IMShow(img)
	return w.w.WaitKey(delayMS)
}

// Close destroys the window.
func (w *Window) Close() error {
	return w.w.Close()
}

// IsKey reports whether a WaitKey result is the given ASCII key.
func IsKey(code int, key byte) bool {
	return code >= 0 && byte(code&0xff) == key
}
