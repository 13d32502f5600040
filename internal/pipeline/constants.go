package pipeline

import "time"

const (
	// Poll cadence. The loop starts fast and backs off while the scene is
	// static: after slowAfter unchanged ticks it drops to slowDelay, after
	// idleAfter to idleDelay.
	baseDelay = 200 * time.Millisecond
	slowDelay = 1000 * time.Millisecond
	idleDelay = 2000 * time.Millisecond
	slowAfter = 5
	idleAfter = 10

	// unfocusedDelay paces the loop while the target window has no focus.
	unfocusedDelay = 500 * time.Millisecond

	// translateBackoff is the pause after a whole-batch translation failure.
	translateBackoff = 2 * time.Second

	// maxWidthFactor widens overlay boxes past the source region so the
	// translation, usually longer than the original, still fits.
	maxWidthFactor = 1.3

	// prefilterSize is the square downscale edge fed to the perceptual hash.
	prefilterSize = 64
)
