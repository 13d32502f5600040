//go:build linux

package capture

import (
	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil"
	"github.com/BurntSushi/xgbutil/ewmh"
	"github.com/BurntSushi/xgbutil/icccm"

	"github.com/Rangesa/Game-Translator/internal/errors"
)

type linuxSource struct {
	xu   *xgbutil.XUtil
	win  xproto.Window
	surf surface
}

// Open attaches a Source to an existing window. Each source holds its own X
// connection so captures never contend with other X traffic.
func Open(win Window) (Source, error) {
	xu, err := xgbutil.NewConn()
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeCaptureFailed, "connect to X server")
	}
	return &linuxSource{xu: xu, win: xproto.Window(win.Handle)}, nil
}

func (s *linuxSource) Capture() (*Frame, error) {
	geom, err := xproto.GetGeometry(s.xu.Conn(), xproto.Drawable(s.win)).Reply()
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeWindowGone, "window geometry")
	}
	w, h := int(geom.Width), int(geom.Height)
	if w <= 0 || h <= 0 {
		return nil, nil
	}
	img, err := xproto.GetImage(s.xu.Conn(), xproto.ImageFormatZPixmap, xproto.Drawable(s.win),
		0, 0, geom.Width, geom.Height, 0xFFFFFFFF).Reply()
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeCaptureFailed, "get image")
	}

	frame := s.surf.acquire(w, h)
	n := copy(frame.Pixels, img.Data)
	// Common 24-bit visuals return BGRX; force the alpha byte opaque.
	for i := 3; i < n; i += 4 {
		frame.Pixels[i] = 0xFF
	}
	return frame.Copy(), nil
}

func (s *linuxSource) Alive() bool {
	_, err := xproto.GetWindowAttributes(s.xu.Conn(), s.win).Reply()
	return err == nil
}

func (s *linuxSource) Rect() (Rect, error) {
	geom, err := xproto.GetGeometry(s.xu.Conn(), xproto.Drawable(s.win)).Reply()
	if err != nil {
		return Rect{}, errors.Wrap(err, errors.CodeWindowGone, "window geometry")
	}
	translate, err := xproto.TranslateCoordinates(
		s.xu.Conn(),
		s.win,
		s.xu.RootWin(),
		0, 0,
	).Reply()
	if err != nil {
		return Rect{}, errors.Wrap(err, errors.CodeWindowGone, "translate coordinates")
	}
	return Rect{
		X:      int(translate.DstX),
		Y:      int(translate.DstY),
		Width:  int(geom.Width),
		Height: int(geom.Height),
	}, nil
}

func (s *linuxSource) Scale() float64 {
	return 1
}

func (s *linuxSource) Foreground() (bool, error) {
	active, err := ewmh.ActiveWindowGet(s.xu)
	if err != nil {
		return false, errors.Wrap(err, errors.CodeInternal, "active window")
	}
	return active == s.win, nil
}

func (s *linuxSource) Allocations() int {
	return s.surf.allocations()
}

func (s *linuxSource) Close() error {
	s.xu.Conn().Close()
	return nil
}

// List enumerates the window manager's client list.
func List() ([]Window, error) {
	xu, err := xgbutil.NewConn()
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "connect to X server")
	}
	defer xu.Conn().Close()

	clients, err := ewmh.ClientListGet(xu)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "client list")
	}
	wins := make([]Window, 0, len(clients))
	for _, id := range clients {
		title := windowName(xu, id)
		if title == "" {
			continue
		}
		wins = append(wins, Window{Handle: uintptr(id), Title: title})
	}
	return wins, nil
}

func windowName(xu *xgbutil.XUtil, id xproto.Window) string {
	if name, err := ewmh.WmNameGet(xu, id); err == nil && name != "" {
		return name
	}
	if name, err := icccm.WmNameGet(xu, id); err == nil {
		return name
	}
	return ""
}
