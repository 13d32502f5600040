//go:build windows

package overlay

import (
	"sync/atomic"
	"syscall"
	"unsafe"

	"github.com/Rangesa/Game-Translator/internal/config"
	"github.com/Rangesa/Game-Translator/internal/errors"
)

var (
	user32   = syscall.NewLazyDLL("user32.dll")
	gdi32    = syscall.NewLazyDLL("gdi32.dll")
	kernel32 = syscall.NewLazyDLL("kernel32.dll")

	procRegisterClassExW     = user32.NewProc("RegisterClassExW")
	procCreateWindowExW      = user32.NewProc("CreateWindowExW")
	procDestroyWindow        = user32.NewProc("DestroyWindow")
	procDefWindowProcW       = user32.NewProc("DefWindowProcW")
	procShowWindow           = user32.NewProc("ShowWindow")
	procSetWindowPos         = user32.NewProc("SetWindowPos")
	procGetMessageW          = user32.NewProc("GetMessageW")
	procTranslateMessage     = user32.NewProc("TranslateMessage")
	procDispatchMessageW     = user32.NewProc("DispatchMessageW")
	procPostMessageW         = user32.NewProc("PostMessageW")
	procPostQuitMessage      = user32.NewProc("PostQuitMessage")
	procGetSystemMetrics     = user32.NewProc("GetSystemMetrics")
	procUpdateLayeredWindow  = user32.NewProc("UpdateLayeredWindow")
	procDrawTextW            = user32.NewProc("DrawTextW")
	procGetModuleHandleW     = kernel32.NewProc("GetModuleHandleW")

	procCreateCompatibleDC = gdi32.NewProc("CreateCompatibleDC")
	procCreateDIBSection   = gdi32.NewProc("CreateDIBSection")
	procCreateFontW        = gdi32.NewProc("CreateFontW")
	procSelectObject       = gdi32.NewProc("SelectObject")
	procDeleteObject       = gdi32.NewProc("DeleteObject")
	procDeleteDC           = gdi32.NewProc("DeleteDC")
	procSetTextColor       = gdi32.NewProc("SetTextColor")
	procSetBkMode          = gdi32.NewProc("SetBkMode")
	procGdiFlush           = gdi32.NewProc("GdiFlush")
)

const (
	wsPopup = 0x80000000

	// Layered + transparent + topmost + toolwindow + noactivate: visible
	// everywhere, hit-testing passes through, never steals focus, never
	// shows in the alt-tab list.
	wsExLayered     = 0x00080000
	wsExTransparent = 0x00000020
	wsExTopmost     = 0x00000008
	wsExToolWindow  = 0x00000080
	wsExNoActivate  = 0x08000000

	swShowNoActivate = 4

	hwndTopmost    = ^uintptr(0)
	swpNoSize      = 0x0001
	swpNoMove      = 0x0002
	swpNoActivate  = 0x0010
	swpShowWindow  = 0x0040

	wmDestroy       = 0x0002
	wmDisplayChange = 0x007E
	wmApp           = 0x8000
	wmWake          = wmApp + 1
	wmCloseReq      = wmApp + 2

	smXVirtualScreen  = 76
	smYVirtualScreen  = 77
	smCxVirtualScreen = 78
	smCyVirtualScreen = 79

	ulwAlpha   = 0x02
	acSrcOver  = 0x00
	acSrcAlpha = 0x01

	dtWordbreak = 0x0010
	dtCalcRect  = 0x0400
	dtNoPrefix  = 0x0800

	bkTransparent = 1

	fwNormal           = 400
	defaultCharset     = 1
	antialiasedQuality = 4

	biRGB        = 0
	dibRGBColors = 0
)

type wndClassExW struct {
	Size       uint32
	Style      uint32
	WndProc    uintptr
	ClsExtra   int32
	WndExtra   int32
	Instance   uintptr
	Icon       uintptr
	Cursor     uintptr
	Background uintptr
	MenuName   *uint16
	ClassName  *uint16
	IconSm     uintptr
}

type msg struct {
	HWnd    uintptr
	Message uint32
	WParam  uintptr
	LParam  uintptr
	Time    uint32
	Pt      point
}

type point struct {
	X, Y int32
}

type size struct {
	CX, CY int32
}

type rect struct {
	Left, Top, Right, Bottom int32
}

type blendFunction struct {
	BlendOp             byte
	BlendFlags          byte
	SourceConstantAlpha byte
	AlphaFormat         byte
}

type bitmapInfoHeader struct {
	Size          uint32
	Width         int32
	Height        int32
	Planes        uint16
	BitCount      uint16
	Compression   uint32
	SizeImage     uint32
	XPelsPerMeter int32
	YPelsPerMeter int32
	ClrUsed       uint32
	ClrImportant  uint32
}

type bitmapInfo struct {
	Header bitmapInfoHeader
	Colors [1]uint32
}

type windowsDevice struct {
	hwnd     uintptr
	instance uintptr

	// Virtual screen geometry. The overlay spans all monitors so text can
	// follow the target window wherever it sits.
	vx, vy, vw, vh int

	// Backing DIB, premultiplied BGRA top-down.
	memDC  uintptr
	bitmap uintptr
	oldBmp uintptr
	pixels []byte

	fonts    map[int]uintptr
	fontName *uint16

	textColorRef uintptr
	backPremul   [4]byte // B, G, R premultiplied, A

	lost   atomic.Bool
	onWake func()
}

// One overlay window per process; the window procedure finds its device here.
var activeDevice *windowsDevice

var overlayWndProc = syscall.NewCallback(func(hwnd uintptr, m uint32, wparam, lparam uintptr) uintptr {
	d := activeDevice
	switch m {
	case wmWake:
		if d != nil && d.onWake != nil {
			d.onWake()
		}
		return 0
	case wmCloseReq:
		procDestroyWindow.Call(hwnd)
		return 0
	case wmDisplayChange:
		if d != nil {
			d.lost.Store(true)
		}
		return 0
	case wmDestroy:
		procPostQuitMessage.Call(0)
		return 0
	}
	ret, _, _ := procDefWindowProcW.Call(hwnd, uintptr(m), wparam, lparam)
	return ret
})

var classRegistered bool

func newDevice(cfg config.OverlayConfig) (device, error) {
	d := &windowsDevice{
		fonts:        map[int]uintptr{},
		textColorRef: colorRef(cfg.TextColor),
		backPremul:   premultiply(cfg.BackColor),
	}
	fontName := cfg.FontName
	if fontName == "" {
		fontName = "Segoe UI"
	}
	var err error
	if d.fontName, err = syscall.UTF16PtrFromString(fontName); err != nil {
		return nil, errors.Wrap(err, errors.CodeSurfaceInit, "bad font name")
	}
	d.instance, _, _ = procGetModuleHandleW.Call(0)

	activeDevice = d
	className, _ := syscall.UTF16PtrFromString("GameTranslatorOverlay")
	if !classRegistered {
		wc := wndClassExW{
			Size:      uint32(unsafe.Sizeof(wndClassExW{})),
			WndProc:   overlayWndProc,
			Instance:  d.instance,
			ClassName: className,
		}
		if atom, _, _ := procRegisterClassExW.Call(uintptr(unsafe.Pointer(&wc))); atom == 0 {
			return nil, errors.New(errors.CodeSurfaceInit, "RegisterClassEx failed")
		}
		classRegistered = true
	}

	d.readVirtualScreen()
	hwnd, _, _ := procCreateWindowExW.Call(
		wsExLayered|wsExTransparent|wsExTopmost|wsExToolWindow|wsExNoActivate,
		uintptr(unsafe.Pointer(className)),
		0,
		wsPopup,
		uintptr(d.vx), uintptr(d.vy), uintptr(d.vw), uintptr(d.vh),
		0, 0, d.instance, 0,
	)
	if hwnd == 0 {
		return nil, errors.New(errors.CodeSurfaceInit, "CreateWindowEx failed")
	}
	d.hwnd = hwnd

	if err := d.rebuildTarget(); err != nil {
		procDestroyWindow.Call(hwnd)
		return nil, err
	}
	procShowWindow.Call(hwnd, swShowNoActivate)
	procSetWindowPos.Call(hwnd, hwndTopmost, 0, 0, 0, 0, swpNoMove|swpNoSize|swpNoActivate|swpShowWindow)

	// First present establishes the layer fully transparent.
	if err := d.present(0); err != nil {
		d.close()
		return nil, errors.Wrap(err, errors.CodeSurfaceInit, "initial present failed")
	}
	return d, nil
}

func (d *windowsDevice) readVirtualScreen() {
	x, _, _ := procGetSystemMetrics.Call(smXVirtualScreen)
	y, _, _ := procGetSystemMetrics.Call(smYVirtualScreen)
	w, _, _ := procGetSystemMetrics.Call(smCxVirtualScreen)
	h, _, _ := procGetSystemMetrics.Call(smCyVirtualScreen)
	d.vx, d.vy = int(int32(x)), int(int32(y))
	d.vw, d.vh = int(int32(w)), int(int32(h))
	if d.vw <= 0 || d.vh <= 0 {
		d.vw, d.vh = 1, 1
	}
}

// rebuildTarget allocates the backing DIB for the current virtual screen
// size, dropping any previous target and cached fonts.
func (d *windowsDevice) rebuildTarget() error {
	d.releaseTarget()

	memDC, _, _ := procCreateCompatibleDC.Call(0)
	if memDC == 0 {
		return errors.New(errors.CodeSurfaceInit, "CreateCompatibleDC failed")
	}
	bi := bitmapInfo{
		Header: bitmapInfoHeader{
			Size:        uint32(unsafe.Sizeof(bitmapInfoHeader{})),
			Width:       int32(d.vw),
			Height:      -int32(d.vh), // top-down rows
			Planes:      1,
			BitCount:    32,
			Compression: biRGB,
		},
	}
	var bits uintptr
	bmp, _, _ := procCreateDIBSection.Call(memDC, uintptr(unsafe.Pointer(&bi)), dibRGBColors,
		uintptr(unsafe.Pointer(&bits)), 0, 0)
	if bmp == 0 || bits == 0 {
		procDeleteDC.Call(memDC)
		return errors.New(errors.CodeSurfaceInit, "CreateDIBSection failed")
	}
	oldBmp, _, _ := procSelectObject.Call(memDC, bmp)

	d.memDC, d.bitmap, d.oldBmp = memDC, bmp, oldBmp
	d.pixels = unsafe.Slice((*byte)(unsafe.Pointer(bits)), d.vw*d.vh*4)
	return nil
}

func (d *windowsDevice) releaseTarget() {
	for _, f := range d.fonts {
		procDeleteObject.Call(f)
	}
	clear(d.fonts)
	if d.memDC == 0 {
		return
	}
	procSelectObject.Call(d.memDC, d.oldBmp)
	procDeleteObject.Call(d.bitmap)
	procDeleteDC.Call(d.memDC)
	d.memDC, d.bitmap, d.oldBmp = 0, 0, 0
	d.pixels = nil
}

func (d *windowsDevice) draw(texts []Text) error {
	if d.lost.Load() {
		return errors.New(errors.CodeDeviceLost, "display configuration changed")
	}
	for i := range d.pixels {
		d.pixels[i] = 0
	}
	for _, t := range texts {
		d.drawOne(t)
	}
	return d.present(255)
}

func (d *windowsDevice) clear() error {
	if d.lost.Load() {
		return errors.New(errors.CodeDeviceLost, "display configuration changed")
	}
	return d.present(0)
}

// reset rebuilds the render target after a device loss, following any change
// to the monitor layout.
func (d *windowsDevice) reset() error {
	d.readVirtualScreen()
	if err := d.rebuildTarget(); err != nil {
		return err
	}
	procSetWindowPos.Call(d.hwnd, hwndTopmost,
		uintptr(d.vx), uintptr(d.vy), uintptr(d.vw), uintptr(d.vh),
		swpNoActivate|swpShowWindow)
	d.lost.Store(false)
	return nil
}

func (d *windowsDevice) drawOne(t Text) {
	body, err := syscall.UTF16FromString(t.Body)
	if err != nil || len(body) <= 1 {
		return
	}
	sx, sy := t.X-d.vx, t.Y-d.vy
	wrap := wrapWidth(t.MaxWidth)

	font := d.font(scaledFontSize(t.FontSize))
	oldFont, _, _ := procSelectObject.Call(d.memDC, font)
	defer procSelectObject.Call(d.memDC, oldFont)

	// Measure with the wrap width, then draw with the same width so the
	// line breaks match the measurement.
	measure := rect{Right: int32(wrap)}
	procDrawTextW.Call(d.memDC, uintptr(unsafe.Pointer(&body[0])), ^uintptr(0),
		uintptr(unsafe.Pointer(&measure)), dtCalcRect|dtWordbreak|dtNoPrefix)
	tw, th := int(measure.Right), int(measure.Bottom)
	if tw <= 0 || th <= 0 {
		return
	}

	d.fillRect(sx-textPadding, sy-textPadding, sx+tw+textPadding, sy+th+textPadding)

	procSetBkMode.Call(d.memDC, bkTransparent)
	procSetTextColor.Call(d.memDC, d.textColorRef)
	dest := rect{Left: int32(sx), Top: int32(sy), Right: int32(sx + wrap), Bottom: int32(sy + th)}
	procDrawTextW.Call(d.memDC, uintptr(unsafe.Pointer(&body[0])), ^uintptr(0),
		uintptr(unsafe.Pointer(&dest)), dtWordbreak|dtNoPrefix)
	procGdiFlush.Call()

	d.fixAlpha(sx, sy, sx+tw, sy+th)
}

// fillRect writes the premultiplied background color straight into the DIB.
func (d *windowsDevice) fillRect(x0, y0, x1, y1 int) {
	if d.backPremul[3] == 0 {
		return
	}
	x0, y0, x1, y1 = d.clip(x0, y0, x1, y1)
	for y := y0; y < y1; y++ {
		row := d.pixels[(y*d.vw+x0)*4 : (y*d.vw+x1)*4]
		for i := 0; i < len(row); i += 4 {
			row[i] = d.backPremul[0]
			row[i+1] = d.backPremul[1]
			row[i+2] = d.backPremul[2]
			row[i+3] = d.backPremul[3]
		}
	}
}

// fixAlpha repairs pixels GDI text output wrote with a zero alpha byte.
// Glyph pixels become opaque; untouched background keeps its alpha.
func (d *windowsDevice) fixAlpha(x0, y0, x1, y1 int) {
	x0, y0, x1, y1 = d.clip(x0, y0, x1, y1)
	for y := y0; y < y1; y++ {
		row := d.pixels[(y*d.vw+x0)*4 : (y*d.vw+x1)*4]
		for i := 0; i < len(row); i += 4 {
			if row[i+3] == 0 && row[i]|row[i+1]|row[i+2] != 0 {
				row[i+3] = 0xFF
			}
		}
	}
}

func (d *windowsDevice) clip(x0, y0, x1, y1 int) (int, int, int, int) {
	return max(x0, 0), max(y0, 0), min(x1, d.vw), min(y1, d.vh)
}

func (d *windowsDevice) present(alpha byte) error {
	ptDst := point{X: int32(d.vx), Y: int32(d.vy)}
	sz := size{CX: int32(d.vw), CY: int32(d.vh)}
	var ptSrc point
	blend := blendFunction{
		BlendOp:             acSrcOver,
		SourceConstantAlpha: alpha,
		AlphaFormat:         acSrcAlpha,
	}
	ok, _, _ := procUpdateLayeredWindow.Call(d.hwnd, 0,
		uintptr(unsafe.Pointer(&ptDst)), uintptr(unsafe.Pointer(&sz)),
		d.memDC, uintptr(unsafe.Pointer(&ptSrc)),
		0, uintptr(unsafe.Pointer(&blend)), ulwAlpha)
	if ok == 0 {
		return errors.New(errors.CodeDeviceLost, "UpdateLayeredWindow failed")
	}
	return nil
}

func (d *windowsDevice) font(px int) uintptr {
	if f, ok := d.fonts[px]; ok {
		return f
	}
	// Negative height selects by character height, matching the pixel
	// height taken from the recognized region.
	f, _, _ := procCreateFontW.Call(
		uintptr(-px), 0, 0, 0,
		fwNormal, 0, 0, 0,
		defaultCharset, 0, 0,
		antialiasedQuality, 0,
		uintptr(unsafe.Pointer(d.fontName)),
	)
	d.fonts[px] = f
	return f
}

func (d *windowsDevice) run(onWake func()) {
	d.onWake = onWake
	var m msg
	for {
		ret, _, _ := procGetMessageW.Call(uintptr(unsafe.Pointer(&m)), 0, 0, 0)
		if ret == 0 || int32(ret) == -1 {
			return
		}
		procTranslateMessage.Call(uintptr(unsafe.Pointer(&m)))
		procDispatchMessageW.Call(uintptr(unsafe.Pointer(&m)))
	}
}

func (d *windowsDevice) wake() {
	procPostMessageW.Call(d.hwnd, wmWake, 0, 0)
}

func (d *windowsDevice) requestClose() {
	procPostMessageW.Call(d.hwnd, wmCloseReq, 0, 0)
}

func (d *windowsDevice) close() {
	d.releaseTarget()
	if d.hwnd != 0 {
		procDestroyWindow.Call(d.hwnd)
		d.hwnd = 0
	}
	if activeDevice == d {
		activeDevice = nil
	}
}

func colorRef(c [4]float32) uintptr {
	r := uintptr(c[0] * 255)
	g := uintptr(c[1] * 255)
	b := uintptr(c[2] * 255)
	return b<<16 | g<<8 | r
}

func premultiply(c [4]float32) [4]byte {
	a := c[3]
	return [4]byte{
		byte(c[2] * a * 255), // B
		byte(c[1] * a * 255), // G
		byte(c[0] * a * 255), // R
		byte(a * 255),
	}
}
