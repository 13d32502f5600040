package pipeline

import (
	"github.com/corona10/goimagehash"
	"github.com/nfnt/resize"

	"github.com/Rangesa/Game-Translator/internal/capture"
)

// prefilter skips recognition on frames whose perceptual hash matches the
// previous frame exactly. Identical pixels produce identical text, so the
// skip behaves like an unchanged-texts tick. The hash must be dropped
// whenever change tracking is reset, otherwise a frame that reappears after
// a clear would be skipped and never redrawn.
type prefilter struct {
	last *goimagehash.ImageHash
}

// unchanged reports whether frame hashes identically to the previous one.
// Any hashing failure counts as changed so recognition still runs.
func (p *prefilter) unchanged(frame *capture.Frame) bool {
	small := resize.Resize(prefilterSize, prefilterSize, frame.Image(), resize.Lanczos3)
	hash, err := goimagehash.PerceptionHash(small)
	if err != nil {
		p.last = nil
		return false
	}
	if p.last != nil {
		if dist, err := p.last.Distance(hash); err == nil && dist == 0 {
			return true
		}
	}
	p.last = hash
	return false
}

// reset forgets the previous frame.
func (p *prefilter) reset() {
	p.last = nil
}
