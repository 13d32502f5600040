package pipeline

import (
	"testing"

	"github.com/Rangesa/Game-Translator/internal/capture"
)

// splitFrame builds a 64x64 frame that is white on one half and black on the
// other. The two orientations hash differently.
func splitFrame(vertical bool) *capture.Frame {
	f := &capture.Frame{Width: 64, Height: 64, Pixels: make([]byte, 64*64*4)}
	for y := 0; y < 64; y++ {
		for x := 0; x < 64; x++ {
			var v byte
			if (vertical && x < 32) || (!vertical && y < 32) {
				v = 0xFF
			}
			i := (y*64 + x) * 4
			f.Pixels[i] = v
			f.Pixels[i+1] = v
			f.Pixels[i+2] = v
			f.Pixels[i+3] = 0xFF
		}
	}
	return f
}

func TestPrefilterSkipsIdenticalFrame(t *testing.T) {
	p := &prefilter{}
	frame := splitFrame(true)

	if p.unchanged(frame) {
		t.Error("first frame must never count as unchanged")
	}
	if !p.unchanged(frame) {
		t.Error("identical frame should be skipped")
	}
}

func TestPrefilterDetectsChange(t *testing.T) {
	p := &prefilter{}

	p.unchanged(splitFrame(true))
	if p.unchanged(splitFrame(false)) {
		t.Error("different frame content must not be skipped")
	}
	if !p.unchanged(splitFrame(false)) {
		t.Error("repeated new content should be skipped")
	}
}

func TestPrefilterResetForgetsFrame(t *testing.T) {
	p := &prefilter{}
	frame := splitFrame(true)

	p.unchanged(frame)
	p.reset()
	if p.unchanged(frame) {
		t.Error("after reset the same frame must count as changed")
	}
}

func TestPrefilterSkipsRecognitionOnStaticFrames(t *testing.T) {
	h := newHarness(t, 5, true)
	frame := splitFrame(true)
	h.src.capFn = func() (*capture.Frame, error) { return frame, nil }
	h.run(t)

	if h.eng.calls != 1 {
		t.Errorf("recognizer calls = %d, want 1; static frames must skip recognition", h.eng.calls)
	}
	if len(h.rnd.draws) != 1 {
		t.Errorf("draws = %d, want 1", len(h.rnd.draws))
	}
}

func TestPrefilterRedrawsAfterFocusLoss(t *testing.T) {
	h := newHarness(t, 3, true)
	frame := splitFrame(true)
	h.src.capFn = func() (*capture.Frame, error) { return frame, nil }
	tick := 0
	h.src.fgFn = func() bool {
		tick++
		return tick != 2
	}
	h.run(t)

	// The focus-loss clear resets the frame hash; the identical frame after
	// refocus must be recognized and drawn again, not skipped.
	if h.eng.calls != 2 {
		t.Errorf("recognizer calls = %d, want 2", h.eng.calls)
	}
	if len(h.rnd.draws) != 2 {
		t.Errorf("draws = %d, want 2", len(h.rnd.draws))
	}
	if h.rnd.clears != 1 {
		t.Errorf("clears = %d, want 1", h.rnd.clears)
	}
}
