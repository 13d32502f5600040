// Package ocr turns captured frames into text regions. A platform engine
// recognizes raw lines with bounding boxes; adjacent lines are then merged
// into paragraph-level regions in window pixel coordinates.
package ocr

import (
	"bytes"
	"context"
	"image/png"

	"github.com/Rangesa/Game-Translator/internal/capture"
	"github.com/Rangesa/Game-Translator/internal/config"
	"github.com/Rangesa/Game-Translator/internal/errors"
)

// Line is one recognized text line with its box in frame coordinates.
type Line struct {
	Text   string
	X      int
	Y      int
	Width  int
	Height int
}

// Region is a merged paragraph of lines.
type Region struct {
	Text   string
	X      int
	Y      int
	Width  int
	Height int
}

// Engine recognizes text lines in a frame.
type Engine interface {
	Recognize(ctx context.Context, frame *capture.Frame) ([]Line, error)
	Close() error
}

// NewEngine builds the configured recognizer. Engine and language selection
// happen here, once, so misconfiguration fails at startup instead of on the
// first frame.
func NewEngine(ctx context.Context, cfg config.OCRConfig) (Engine, error) {
	switch cfg.Engine {
	case config.OCRRemote:
		return newRemote(cfg)
	default:
		return newNative(ctx, cfg.Language)
	}
}

// ExtractRegions recognizes a frame and merges the lines into paragraphs.
// Zero recognized lines yields an empty result, not an error.
func ExtractRegions(ctx context.Context, eng Engine, frame *capture.Frame) ([]Region, error) {
	lines, err := eng.Recognize(ctx, frame)
	if err != nil {
		return nil, err
	}
	return MergeLines(lines), nil
}

// encodePNG renders a frame to PNG for engines that consume image files.
func encodePNG(frame *capture.Frame) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, frame.Image()); err != nil {
		return nil, errors.Wrap(err, errors.CodeOCRFailed, "encode frame")
	}
	return buf.Bytes(), nil
}
