//go:build darwin

package capture

import "github.com/Rangesa/Game-Translator/internal/errors"

// Per-window capture on macOS needs ScreenCaptureKit bindings that are not
// wired up. The rest of the app degrades to an explicit error.

func Open(win Window) (Source, error) {
	return nil, errors.New(errors.CodeCaptureFailed, "window capture is not supported on darwin")
}

func List() ([]Window, error) {
	return nil, errors.New(errors.CodeInternal, "window enumeration is not supported on darwin")
}
