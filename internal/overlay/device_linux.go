//go:build linux

package overlay

import (
	"sync"

	"github.com/BurntSushi/xgb/shape"
	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil"

	"github.com/Rangesa/Game-Translator/internal/config"
	"github.com/Rangesa/Game-Translator/internal/errors"
)

const (
	lineHeight = 16
	cellWidth  = 8
)

// Core-font faces tried in order. The iso10646 face carries CJK glyphs on
// most installs; the short aliases are the usual fallbacks.
var overlayFonts = []string{
	"-misc-fixed-medium-r-normal--15-*-*-*-*-*-iso10646-1",
	"fixed",
	"9x15",
	"8x13",
	"6x13",
}

type panel struct {
	win    xproto.Window
	mapped bool
}

// linuxDevice draws each text block as its own override-redirect window with
// an emptied input shape, so clicks fall through to the game underneath.
// X core windows have no per-pixel alpha; the background is solid.
type linuxDevice struct {
	xu   *xgbutil.XUtil
	root xproto.Window
	gc   xproto.Gcontext
	font xproto.Font

	panels []*panel

	textPixel uint32
	backPixel uint32
	shaped    bool

	wakeCh    chan struct{}
	closeCh   chan struct{}
	closeOnce sync.Once
}

func newDevice(cfg config.OverlayConfig) (device, error) {
	xu, err := xgbutil.NewConn()
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeSurfaceInit, "connect to X server")
	}
	conn := xu.Conn()
	d := &linuxDevice{
		xu:        xu,
		root:      xu.RootWin(),
		textPixel: xPixel(cfg.TextColor),
		backPixel: xPixel(cfg.BackColor),
		wakeCh:    make(chan struct{}, 1),
		closeCh:   make(chan struct{}),
	}

	// Without the shape extension the panels would swallow clicks.
	if err := shape.Init(conn); err == nil {
		d.shaped = true
	}

	font, err := xproto.NewFontId(conn)
	if err != nil {
		conn.Close()
		return nil, errors.Wrap(err, errors.CodeSurfaceInit, "allocate font id")
	}
	opened := false
	for _, name := range overlayFonts {
		if err := xproto.OpenFontChecked(conn, font, uint16(len(name)), name).Check(); err == nil {
			opened = true
			break
		}
	}
	if !opened {
		conn.Close()
		return nil, errors.New(errors.CodeSurfaceInit, "no usable core font")
	}
	d.font = font

	gc, err := xproto.NewGcontextId(conn)
	if err != nil {
		conn.Close()
		return nil, errors.Wrap(err, errors.CodeSurfaceInit, "allocate gc id")
	}
	err = xproto.CreateGCChecked(conn, gc, xproto.Drawable(d.root),
		xproto.GcForeground|xproto.GcBackground|xproto.GcFont|xproto.GcGraphicsExposures,
		[]uint32{d.textPixel, d.backPixel, uint32(font), 0},
	).Check()
	if err != nil {
		conn.Close()
		return nil, errors.Wrap(err, errors.CodeSurfaceInit, "create gc")
	}
	d.gc = gc
	return d, nil
}

func (d *linuxDevice) draw(texts []Text) error {
	if err := d.ensurePanels(len(texts)); err != nil {
		return err
	}
	conn := d.xu.Conn()
	for i, t := range texts {
		p := d.panels[i]
		lines := wrapCells(t.Body, max(1, wrapWidth(t.MaxWidth)/cellWidth))
		w := textPadding * 2
		for _, line := range lines {
			if lw := lineCells(line)*cellWidth + 2*textPadding; lw > w {
				w = lw
			}
		}
		h := len(lines)*lineHeight + 2*textPadding

		xproto.ConfigureWindow(conn, p.win,
			xproto.ConfigWindowX|xproto.ConfigWindowY|xproto.ConfigWindowWidth|xproto.ConfigWindowHeight|xproto.ConfigWindowStackMode,
			[]uint32{uint32(t.X), uint32(t.Y), uint32(max(w, 1)), uint32(max(h, 1)), xproto.StackModeAbove})
		xproto.MapWindow(conn, p.win)
		xproto.ClearArea(conn, false, p.win, 0, 0, 0, 0)

		baseline := int16(textPadding + lineHeight - 4)
		for _, line := range lines {
			chars := char2bs(line)
			if len(chars) == 0 {
				baseline += lineHeight
				continue
			}
			xproto.ImageText16(conn, byte(len(chars)), xproto.Drawable(p.win), d.gc,
				int16(textPadding), baseline, chars)
			baseline += lineHeight
		}
		p.mapped = true
	}
	return nil
}

func (d *linuxDevice) clear() error {
	conn := d.xu.Conn()
	for _, p := range d.panels {
		if p.mapped {
			xproto.UnmapWindow(conn, p.win)
			p.mapped = false
		}
	}
	return nil
}

// reset drops the panel pool; the next draw recreates it. X connections do
// not lose render targets the way the Windows path does.
func (d *linuxDevice) reset() error {
	conn := d.xu.Conn()
	for _, p := range d.panels {
		xproto.DestroyWindow(conn, p.win)
	}
	d.panels = nil
	return nil
}

// ensurePanels grows the pool to n windows and hides any extras.
func (d *linuxDevice) ensurePanels(n int) error {
	conn := d.xu.Conn()
	for i := n; i < len(d.panels); i++ {
		if d.panels[i].mapped {
			xproto.UnmapWindow(conn, d.panels[i].win)
			d.panels[i].mapped = false
		}
	}
	for len(d.panels) < n {
		win, err := d.createPanelWindow()
		if err != nil {
			return err
		}
		d.panels = append(d.panels, &panel{win: win})
	}
	return nil
}

func (d *linuxDevice) createPanelWindow() (xproto.Window, error) {
	conn := d.xu.Conn()
	screen := d.xu.Screen()

	wid, err := xproto.NewWindowId(conn)
	if err != nil {
		return 0, errors.Wrap(err, errors.CodeRenderFailed, "allocate window id")
	}
	// Value list order follows the bit positions of the mask; CwBackPixel
	// comes before CwOverrideRedirect.
	err = xproto.CreateWindowChecked(conn, screen.RootDepth, wid, d.root,
		0, 0, 1, 1, 0,
		xproto.WindowClassInputOutput, screen.RootVisual,
		xproto.CwBackPixel|xproto.CwOverrideRedirect,
		[]uint32{d.backPixel, 1},
	).Check()
	if err != nil {
		return 0, errors.Wrap(err, errors.CodeRenderFailed, "create overlay window")
	}
	if d.shaped {
		// Empty input region: pointer events pass through.
		shape.Rectangles(conn, shape.SoSet, shape.SkInput, 0, wid, 0, 0, nil)
	}
	return wid, nil
}

func (d *linuxDevice) run(onWake func()) {
	for {
		select {
		case <-d.wakeCh:
			onWake()
		case <-d.closeCh:
			return
		}
	}
}

func (d *linuxDevice) wake() {
	select {
	case d.wakeCh <- struct{}{}:
	default:
	}
}

func (d *linuxDevice) requestClose() {
	d.closeOnce.Do(func() { close(d.closeCh) })
}

func (d *linuxDevice) close() {
	conn := d.xu.Conn()
	for _, p := range d.panels {
		xproto.DestroyWindow(conn, p.win)
	}
	d.panels = nil
	xproto.FreeGC(conn, d.gc)
	xproto.CloseFont(conn, d.font)
	conn.Close()
}

// xPixel maps an RGBA color to a TrueColor pixel; alpha is ignored.
func xPixel(c [4]float32) uint32 {
	r := uint32(c[0] * 255)
	g := uint32(c[1] * 255)
	b := uint32(c[2] * 255)
	return r<<16 | g<<8 | b
}

// lineCells counts display cells, with CJK and kana twice as wide.
func lineCells(s string) int {
	n := 0
	for _, r := range s {
		n += runeCells(r)
	}
	return n
}

func runeCells(r rune) int {
	if r >= 0x2E80 {
		return 2
	}
	return 1
}

// wrapCells greedily wraps s into lines of at most cols display cells,
// breaking at the last space when there is one.
func wrapCells(s string, cols int) []string {
	var lines []string
	var line []rune
	used := 0
	lastSpace := -1
	for _, r := range s {
		w := runeCells(r)
		if used+w > cols && len(line) > 0 {
			if r == ' ' {
				// The break lands on the space itself; drop it.
				lines = append(lines, string(line))
				line = nil
				used = 0
				lastSpace = -1
				continue
			}
			if lastSpace > 0 {
				lines = append(lines, string(line[:lastSpace]))
				line = append([]rune{}, line[lastSpace+1:]...)
			} else {
				lines = append(lines, string(line))
				line = nil
			}
			used = lineCells(string(line))
			lastSpace = -1
		}
		if r == ' ' {
			lastSpace = len(line)
		}
		line = append(line, r)
		used += w
	}
	if len(line) > 0 {
		lines = append(lines, string(line))
	}
	if len(lines) == 0 {
		lines = []string{""}
	}
	return lines
}

// char2bs converts to the two-byte form ImageText16 wants, clipped to the
// protocol's single-request limit. Runes outside the BMP have no core-font
// glyph and degrade to '?'.
func char2bs(s string) []xproto.Char2b {
	var out []xproto.Char2b
	for _, r := range s {
		if r > 0xFFFF {
			r = '?'
		}
		out = append(out, xproto.Char2b{Byte1: byte(r >> 8), Byte2: byte(r)})
		if len(out) == 255 {
			break
		}
	}
	return out
}
