package capture

import (
	"image"
	"image/color"
)

// Frame is one captured image. Pixels hold 32-bit BGRA rows, top-down, with
// no padding, matching what GDI and X11 hand back so platform code can fill
// the buffer without a per-pixel conversion.
type Frame struct {
	Width  int
	Height int
	Pixels []byte
}

// Copy returns a frame with its own pixel buffer, detached from the capture
// surface. Callers may hold it across blocking calls while the surface is
// overwritten by the next capture.
func (f *Frame) Copy() *Frame {
	out := &Frame{Width: f.Width, Height: f.Height, Pixels: make([]byte, len(f.Pixels))}
	copy(out.Pixels, f.Pixels)
	return out
}

// Image returns a read-only image.Image view over the frame. No pixels are
// copied; the view is valid as long as the frame is.
func (f *Frame) Image() image.Image {
	return &bgraView{f}
}

// bgraView adapts a BGRA frame to image.Image for hashing and resizing.
type bgraView struct {
	f *Frame
}

func (v *bgraView) ColorModel() color.Model {
	return color.RGBAModel
}

func (v *bgraView) Bounds() image.Rectangle {
	return image.Rect(0, 0, v.f.Width, v.f.Height)
}

func (v *bgraView) At(x, y int) color.Color {
	if x < 0 || y < 0 || x >= v.f.Width || y >= v.f.Height {
		return color.RGBA{}
	}
	i := (y*v.f.Width + x) * 4
	p := v.f.Pixels[i : i+4 : i+4]
	return color.RGBA{R: p[2], G: p[1], B: p[0], A: 0xFF}
}
