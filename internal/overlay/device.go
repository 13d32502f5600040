package overlay

// Layout shared by the per-OS devices.
const (
	// textPadding is the background margin around each text block.
	textPadding = 4
	// minWrapWidth keeps very narrow source regions readable.
	minWrapWidth = 150
	// minFontSize floors the font height taken from tiny source regions.
	minFontSize = 8
)

// device is the per-OS render target behind Overlay. draw and clear report
// CodeDeviceLost when the underlying target must be rebuilt with reset; any
// other error is final for that frame.
type device interface {
	draw(texts []Text) error
	clear() error
	reset() error

	// run blocks in the native event loop until requestClose. wake and
	// requestClose may be called from any goroutine; everything else
	// belongs to the loop thread.
	run(onWake func())
	wake()
	requestClose()
	close()
}

func scaledFontSize(size float32) int {
	px := int(size + 0.5)
	if px < minFontSize {
		px = minFontSize
	}
	return px
}

func wrapWidth(maxWidth int) int {
	if maxWidth < minWrapWidth {
		return minWrapWidth
	}
	return maxWidth
}
