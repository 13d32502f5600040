// Package capture grabs the pixel content of a single application window
// into a reusable frame buffer.
package capture

import (
	"strings"

	"github.com/Rangesa/Game-Translator/internal/errors"
)

// Window identifies a capturable top-level window.
type Window struct {
	Handle uintptr // HWND on Windows, X window id on Linux
	Title  string
}

// Rect is a window's client area in screen coordinates.
type Rect struct {
	X, Y          int
	Width, Height int
}

// Source captures one window repeatedly. The capture surface is reallocated
// only when the window size changes; each Capture hands back an independent
// copy of it, so frames stay valid while the surface is reused.
type Source interface {
	// Capture grabs the current window content. A zero-size client area
	// (minimized window) yields a nil frame and nil error; a destroyed
	// window yields errors.CodeWindowGone.
	Capture() (*Frame, error)
	// Alive reports whether the window still exists.
	Alive() bool
	// Rect returns the client area's position and size on screen.
	Rect() (Rect, error)
	// Scale returns the window's DPI scale factor (1.0 = 96 dpi).
	Scale() float64
	// Foreground reports whether the window currently has focus.
	Foreground() (bool, error)
	// Allocations returns how many times the frame buffer was allocated.
	Allocations() int
	Close() error
}

// Find returns the first listed window whose title contains substr,
// case-insensitively.
func Find(substr string) (Window, error) {
	wins, err := List()
	if err != nil {
		return Window{}, err
	}
	if w, ok := matchTitle(wins, substr); ok {
		return w, nil
	}
	return Window{}, errors.Newf(errors.CodeWindowGone, "no window matching %q", substr)
}

func matchTitle(wins []Window, substr string) (Window, bool) {
	needle := strings.ToLower(substr)
	for _, w := range wins {
		if strings.Contains(strings.ToLower(w.Title), needle) {
			return w, true
		}
	}
	return Window{}, false
}
