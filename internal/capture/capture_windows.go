//go:build windows

package capture

import (
	"syscall"
	"unsafe"

	"github.com/Rangesa/Game-Translator/internal/errors"
)

var (
	user32 = syscall.NewLazyDLL("user32.dll")
	gdi32  = syscall.NewLazyDLL("gdi32.dll")

	procIsWindow            = user32.NewProc("IsWindow")
	procIsWindowVisible     = user32.NewProc("IsWindowVisible")
	procGetClientRect       = user32.NewProc("GetClientRect")
	procClientToScreen      = user32.NewProc("ClientToScreen")
	procGetForegroundWindow = user32.NewProc("GetForegroundWindow")
	procEnumWindows         = user32.NewProc("EnumWindows")
	procGetWindowTextW      = user32.NewProc("GetWindowTextW")
	procGetWindowLongW      = user32.NewProc("GetWindowLongW")
	procGetDpiForWindow     = user32.NewProc("GetDpiForWindow")
	procPrintWindow         = user32.NewProc("PrintWindow")
	procGetDC               = user32.NewProc("GetDC")
	procReleaseDC           = user32.NewProc("ReleaseDC")

	procCreateCompatibleDC = gdi32.NewProc("CreateCompatibleDC")
	procCreateDIBSection   = gdi32.NewProc("CreateDIBSection")
	procSelectObject       = gdi32.NewProc("SelectObject")
	procDeleteObject       = gdi32.NewProc("DeleteObject")
	procDeleteDC           = gdi32.NewProc("DeleteDC")
	procBitBlt             = gdi32.NewProc("BitBlt")
	procGdiFlush           = gdi32.NewProc("GdiFlush")
)

const (
	SRCCOPY = 0x00CC0020

	PW_CLIENTONLY        = 0x00000001
	PW_RENDERFULLCONTENT = 0x00000002

	BI_RGB         = 0
	DIB_RGB_COLORS = 0

	GWL_EXSTYLE      = 0xFFFFFFEC // -20
	WS_EX_TOOLWINDOW = 0x00000080
)

type RECT struct {
	Left, Top, Right, Bottom int32
}

type POINT struct {
	X, Y int32
}

type BITMAPINFOHEADER struct {
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

type BITMAPINFO struct {
	Header BITMAPINFOHEADER
	Colors [1]uint32
}

type windowsSource struct {
	hwnd uintptr
	surf surface

	// GDI resources tied to the current client size.
	memDC  uintptr
	bitmap uintptr
	oldBmp uintptr
	bits   uintptr
	w, h   int
}

// Open attaches a Source to an existing window.
func Open(win Window) (Source, error) {
	if win.Handle == 0 {
		return nil, errors.New(errors.CodeInvalidArgument, "zero window handle")
	}
	if alive, _, _ := procIsWindow.Call(win.Handle); alive == 0 {
		return nil, errors.Newf(errors.CodeWindowGone, "window %#x does not exist", win.Handle)
	}
	return &windowsSource{hwnd: win.Handle}, nil
}

func (s *windowsSource) Capture() (*Frame, error) {
	if alive, _, _ := procIsWindow.Call(s.hwnd); alive == 0 {
		return nil, errors.New(errors.CodeWindowGone, "window destroyed")
	}
	var rc RECT
	if r, _, _ := procGetClientRect.Call(s.hwnd, uintptr(unsafe.Pointer(&rc))); r == 0 {
		return nil, errors.New(errors.CodeWindowGone, "client rect unavailable")
	}
	w, h := int(rc.Right-rc.Left), int(rc.Bottom-rc.Top)
	if w <= 0 || h <= 0 {
		// Minimized windows report an empty client area.
		return nil, nil
	}
	if err := s.ensureDIB(w, h); err != nil {
		return nil, err
	}

	// PW_RENDERFULLCONTENT also reaches windows composited by DWM or
	// rendered with DirectX.
	ok, _, _ := procPrintWindow.Call(s.hwnd, s.memDC, PW_CLIENTONLY|PW_RENDERFULLCONTENT)
	if ok == 0 {
		// Some windows refuse PrintWindow; blit from the client DC instead.
		hdc, _, _ := procGetDC.Call(s.hwnd)
		if hdc == 0 {
			return nil, errors.New(errors.CodeCaptureFailed, "GetDC failed")
		}
		r, _, _ := procBitBlt.Call(s.memDC, 0, 0, uintptr(w), uintptr(h), hdc, 0, 0, SRCCOPY)
		procReleaseDC.Call(s.hwnd, hdc)
		if r == 0 {
			return nil, errors.New(errors.CodeCaptureFailed, "BitBlt failed")
		}
	}
	procGdiFlush.Call()

	frame := s.surf.acquire(w, h)
	src := unsafe.Slice((*byte)(unsafe.Pointer(s.bits)), w*h*4)
	copy(frame.Pixels, src)
	return frame.Copy(), nil
}

// ensureDIB keeps one DIB section alive per window size. A size change
// tears the old one down and allocates anew; same-size captures reuse it.
func (s *windowsSource) ensureDIB(w, h int) error {
	if s.memDC != 0 && s.w == w && s.h == h {
		return nil
	}
	s.releaseDIB()

	memDC, _, _ := procCreateCompatibleDC.Call(0)
	if memDC == 0 {
		return errors.New(errors.CodeCaptureFailed, "CreateCompatibleDC failed")
	}
	bi := BITMAPINFO{
		Header: BITMAPINFOHEADER{
			Size:        uint32(unsafe.Sizeof(BITMAPINFOHEADER{})),
			Width:       int32(w),
			Height:      -int32(h), // negative height = top-down rows
			Planes:      1,
			BitCount:    32,
			Compression: BI_RGB,
		},
	}
	var bits uintptr
	bmp, _, _ := procCreateDIBSection.Call(memDC, uintptr(unsafe.Pointer(&bi)), DIB_RGB_COLORS,
		uintptr(unsafe.Pointer(&bits)), 0, 0)
	if bmp == 0 || bits == 0 {
		procDeleteDC.Call(memDC)
		return errors.New(errors.CodeCaptureFailed, "CreateDIBSection failed")
	}
	oldBmp, _, _ := procSelectObject.Call(memDC, bmp)

	s.memDC, s.bitmap, s.oldBmp, s.bits = memDC, bmp, oldBmp, bits
	s.w, s.h = w, h
	return nil
}

func (s *windowsSource) releaseDIB() {
	if s.memDC == 0 {
		return
	}
	procSelectObject.Call(s.memDC, s.oldBmp)
	procDeleteObject.Call(s.bitmap)
	procDeleteDC.Call(s.memDC)
	s.memDC, s.bitmap, s.oldBmp, s.bits = 0, 0, 0, 0
	s.w, s.h = 0, 0
}

func (s *windowsSource) Alive() bool {
	alive, _, _ := procIsWindow.Call(s.hwnd)
	return alive != 0
}

func (s *windowsSource) Rect() (Rect, error) {
	var rc RECT
	if r, _, _ := procGetClientRect.Call(s.hwnd, uintptr(unsafe.Pointer(&rc))); r == 0 {
		return Rect{}, errors.New(errors.CodeWindowGone, "client rect unavailable")
	}
	var origin POINT
	if r, _, _ := procClientToScreen.Call(s.hwnd, uintptr(unsafe.Pointer(&origin))); r == 0 {
		return Rect{}, errors.New(errors.CodeWindowGone, "client origin unavailable")
	}
	return Rect{
		X:      int(origin.X),
		Y:      int(origin.Y),
		Width:  int(rc.Right - rc.Left),
		Height: int(rc.Bottom - rc.Top),
	}, nil
}

func (s *windowsSource) Scale() float64 {
	// GetDpiForWindow needs Windows 10 1607+.
	if procGetDpiForWindow.Find() != nil {
		return 1
	}
	dpi, _, _ := procGetDpiForWindow.Call(s.hwnd)
	if dpi == 0 {
		return 1
	}
	return float64(dpi) / 96
}

func (s *windowsSource) Foreground() (bool, error) {
	fg, _, _ := procGetForegroundWindow.Call()
	return fg == s.hwnd, nil
}

func (s *windowsSource) Allocations() int {
	return s.surf.allocations()
}

func (s *windowsSource) Close() error {
	s.releaseDIB()
	return nil
}

var enumWindowsCallback = syscall.NewCallback(func(hwnd, lparam uintptr) uintptr {
	wins := (*[]Window)(unsafe.Pointer(lparam))
	if visible, _, _ := procIsWindowVisible.Call(hwnd); visible == 0 {
		return 1
	}
	if ex, _, _ := procGetWindowLongW.Call(hwnd, GWL_EXSTYLE); ex&WS_EX_TOOLWINDOW != 0 {
		return 1
	}
	title := windowTitle(hwnd)
	if title == "" {
		return 1
	}
	*wins = append(*wins, Window{Handle: hwnd, Title: title})
	return 1
})

// List enumerates visible top-level windows with a title.
func List() ([]Window, error) {
	var wins []Window
	if r, _, _ := procEnumWindows.Call(enumWindowsCallback, uintptr(unsafe.Pointer(&wins))); r == 0 {
		return nil, errors.New(errors.CodeInternal, "EnumWindows failed")
	}
	return wins, nil
}

func windowTitle(hwnd uintptr) string {
	var buf [256]uint16
	n, _, _ := procGetWindowTextW.Call(hwnd, uintptr(unsafe.Pointer(&buf[0])), uintptr(len(buf)))
	if n == 0 {
		return ""
	}
	return syscall.UTF16ToString(buf[:n])
}
