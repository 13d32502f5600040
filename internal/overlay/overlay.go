// Package overlay renders translated text on top of the target window in an
// always-on-top, click-through window. The device owning the native window
// lives on one OS thread; Draw, Clear and Run must be called from that
// thread, while Wake and RequestClose are safe from anywhere.
package overlay

import (
	"log/slog"

	"github.com/Rangesa/Game-Translator/internal/config"
	"github.com/Rangesa/Game-Translator/internal/errors"
)

// Text is one positioned block of translated text, in screen coordinates.
type Text struct {
	Body     string
	X, Y     int
	MaxWidth int     // wrap width hint taken from the recognized region
	FontSize float32 // pixel height taken from the recognized region
}

// Overlay wraps the per-OS render device with the recovery policy: a lost
// device is rebuilt once and the frame redrawn; a second failure propagates.
type Overlay struct {
	dev device
}

// New creates the overlay window on the calling thread. The caller must keep
// running Run on that same thread.
func New(cfg config.OverlayConfig) (*Overlay, error) {
	dev, err := newDevice(cfg)
	if err != nil {
		return nil, err
	}
	return &Overlay{dev: dev}, nil
}

// Run drives the native event loop until RequestClose. onWake runs on the
// loop thread for every Wake call.
func (o *Overlay) Run(onWake func()) {
	o.dev.run(onWake)
}

// Wake schedules onWake on the loop thread. Safe from any goroutine.
func (o *Overlay) Wake() {
	o.dev.wake()
}

// RequestClose makes Run return. Safe from any goroutine.
func (o *Overlay) RequestClose() {
	o.dev.requestClose()
}

// Draw replaces the overlay content with texts. An empty slice clears.
func (o *Overlay) Draw(texts []Text) error {
	if len(texts) == 0 {
		return o.Clear()
	}
	return o.withRecovery(func() error { return o.dev.draw(texts) })
}

// Clear hides all overlay content.
func (o *Overlay) Clear() error {
	return o.withRecovery(o.dev.clear)
}

// Close releases the native window and render resources. Call after Run has
// returned.
func (o *Overlay) Close() {
	o.dev.close()
}

func (o *Overlay) withRecovery(fn func() error) error {
	err := fn()
	if !errors.IsCode(err, errors.CodeDeviceLost) {
		return err
	}
	slog.Warn("render device lost, rebuilding", "error", err)
	if rerr := o.dev.reset(); rerr != nil {
		return errors.Wrap(rerr, errors.CodeRenderFailed, "rebuild render device")
	}
	return fn()
}
