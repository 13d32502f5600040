// Package pipeline drives the polling loop against one target window:
// capture a frame, recognize text regions, translate whatever is new, and
// hand positioned overlay boxes to the renderer. The loop adapts its pace to
// how often the scene changes and suppresses the overlay while the target
// window is not in the foreground.
package pipeline

import (
	"context"
	"time"

	"github.com/Rangesa/Game-Translator/internal/cache"
	"github.com/Rangesa/Game-Translator/internal/capture"
	"github.com/Rangesa/Game-Translator/internal/errors"
	"github.com/Rangesa/Game-Translator/internal/ocr"
	"github.com/Rangesa/Game-Translator/internal/overlay"
	"github.com/Rangesa/Game-Translator/internal/syncx"
	"github.com/Rangesa/Game-Translator/internal/trace"
)

// Translator turns a batch of source strings into parallel translations.
// A nil entry means that string could not be translated.
type Translator interface {
	TranslateBatch(ctx context.Context, texts []string) ([]*string, error)
}

// Renderer receives overlay commands. Draw replaces everything shown, Clear
// removes it; both are fire-and-forget.
type Renderer interface {
	Draw(texts []overlay.Text)
	Clear()
}

// Tick summarizes one completed loop iteration for diagnostics.
type Tick struct {
	Regions    int
	Changed    bool
	Translated int
	CacheSize  int
	Delay      time.Duration
	Texts      []string
}

// Deps are the collaborators one Orchestrator drives. The stop flag is
// shared with the UI so a stop request lands between ticks.
type Deps struct {
	Source     capture.Source
	Engine     ocr.Engine
	Cache      *cache.Cache
	Translator Translator
	Renderer   Renderer
	Stop       *syncx.StopFlag

	// Prefilter enables the perceptual-hash frame skip.
	Prefilter bool
	// OnTick, when non-nil, observes every completed tick.
	OnTick func(Tick)
}

// Orchestrator owns the change tracking state of one run. Not safe for
// concurrent use; Run is the only goroutine that touches it.
type Orchestrator struct {
	source     capture.Source
	engine     ocr.Engine
	cache      *cache.Cache
	translator Translator
	renderer   Renderer
	stop       *syncx.StopFlag
	filter     *prefilter
	onTick     func(Tick)

	after func(time.Duration) <-chan time.Time

	lastTexts []string
	noChange  int
}

func New(d Deps) *Orchestrator {
	o := &Orchestrator{
		source:     d.Source,
		engine:     d.Engine,
		cache:      d.Cache,
		translator: d.Translator,
		renderer:   d.Renderer,
		stop:       d.Stop,
		onTick:     d.OnTick,
		after:      time.After,
	}
	if d.Prefilter {
		o.filter = &prefilter{}
	}
	return o
}

// Run executes the polling loop until the stop flag is set, ctx is
// cancelled, or the target window disappears. A requested stop returns nil;
// a vanished window returns its CodeWindowGone error so the caller can tell
// the user why the run ended.
func (o *Orchestrator) Run(ctx context.Context) error {
	logger := trace.Logger(ctx)
	logger.Info("pipeline started", "cache_entries", o.cache.Len(), "prefilter", o.filter != nil)

	for {
		if o.stop.IsSet() || ctx.Err() != nil {
			logger.Info("pipeline stopped")
			return nil
		}
		tk, exit, err := o.tick(ctx)
		if exit {
			return err
		}
		o.emit(tk)
		o.sleep(ctx, tk.Delay)
	}
}

func (o *Orchestrator) tick(ctx context.Context) (Tick, bool, error) {
	logger := trace.Logger(ctx)

	if !o.source.Alive() {
		logger.Info("target window closed")
		o.renderer.Clear()
		return Tick{}, true, errors.New(errors.CodeWindowGone, "target window closed")
	}

	// Focus gates presentation only: the overlay floats above everything,
	// so it must come down while the user is in another application. The
	// pipeline keeps idling and resumes when focus returns.
	if focused, err := o.source.Foreground(); err == nil && !focused {
		if len(o.lastTexts) > 0 {
			o.renderer.Clear()
			o.resetTracking()
			logger.Debug("target lost focus, overlay cleared")
		}
		return Tick{Delay: unfocusedDelay, CacheSize: o.cache.Len()}, false, nil
	}

	frame, err := o.source.Capture()
	if err != nil {
		if errors.IsCode(err, errors.CodeWindowGone) {
			logger.Info("target window closed")
			o.renderer.Clear()
			return Tick{}, true, err
		}
		logger.Debug("capture failed, skipping tick", "error", err)
		return o.idle(), false, nil
	}
	if frame == nil {
		// Minimized window; nothing to look at.
		return o.idle(), false, nil
	}

	if o.filter != nil && o.filter.unchanged(frame) {
		o.noChange++
		return o.idle(), false, nil
	}

	regions, err := ocr.ExtractRegions(ctx, o.engine, frame)
	if err != nil {
		logger.Debug("recognition failed, skipping tick", "error", err)
		return o.idle(), false, nil
	}

	if len(regions) == 0 {
		if len(o.lastTexts) > 0 {
			o.renderer.Clear()
			o.resetTracking()
			logger.Debug("screen text gone, overlay cleared")
		}
		o.noChange++
		return o.idle(), false, nil
	}

	current := make([]string, len(regions))
	for i, r := range regions {
		current[i] = r.Text
	}
	if !textsChanged(current, o.lastTexts) {
		o.noChange++
		return Tick{Regions: len(regions), Delay: o.delay(), CacheSize: o.cache.Len()}, false, nil
	}
	o.noChange = 0
	logger.Debug("screen text changed", "regions", len(regions))

	inserted, err := o.translateUncached(ctx, current)
	if err != nil {
		// Whole-batch failure. Previous texts stay as they were, so the
		// next tick sees the same strings as changed and retries.
		logger.Warn("translation failed, backing off", "error", err, "texts", len(current))
		return Tick{Regions: len(regions), Changed: true, Delay: translateBackoff, CacheSize: o.cache.Len()}, false, nil
	}

	texts, err := o.buildTexts(regions)
	if err != nil {
		logger.Debug("window geometry unavailable, skipping tick", "error", err)
		return o.idle(), false, nil
	}
	o.renderer.Draw(texts)
	o.lastTexts = current

	return Tick{
		Regions:    len(regions),
		Changed:    true,
		Translated: inserted,
		CacheSize:  o.cache.Len(),
		Delay:      o.delay(),
		Texts:      current,
	}, false, nil
}

// translateUncached batch-translates the strings missing from the cache and
// persists every success. A string the backend could not translate stays
// uncached and is retried the next time it shows up.
func (o *Orchestrator) translateUncached(ctx context.Context, current []string) (int, error) {
	var uncached []string
	for _, t := range current {
		if !o.cache.Contains(t) {
			uncached = append(uncached, t)
		}
	}
	if len(uncached) == 0 {
		return 0, nil
	}

	ctx, span := trace.StartSpan(ctx, "translate_batch")
	defer span.End()
	span.SetAttr("count", len(uncached))

	logger := trace.Logger(ctx)
	logger.Debug("translating", "count", len(uncached), "cache_entries", o.cache.Len())
	results, err := o.translator.TranslateBatch(ctx, uncached)
	if err != nil {
		span.SetAttr("error", err.Error())
		return 0, err
	}

	inserted := 0
	for i, r := range results {
		if r == nil {
			logger.Warn("text not translated", "text", truncate(uncached[i], 80))
			continue
		}
		o.cache.Insert(uncached[i], *r)
		inserted++
	}
	if inserted > 0 {
		if err := o.cache.Save(); err != nil {
			logger.Warn("cache save failed", "error", err)
		}
	}
	return inserted, nil
}

// buildTexts positions one overlay box per cached region in screen space.
// Regions whose text is not cached yet are omitted; they appear once a later
// tick translates them.
func (o *Orchestrator) buildTexts(regions []ocr.Region) ([]overlay.Text, error) {
	rect, err := o.source.Rect()
	if err != nil {
		return nil, err
	}
	scale := o.source.Scale()
	if scale <= 0 {
		scale = 1
	}

	texts := make([]overlay.Text, 0, len(regions))
	for _, r := range regions {
		translation, ok := o.cache.Get(r.Text)
		if !ok {
			continue
		}
		texts = append(texts, overlay.Text{
			Body:     translation,
			X:        rect.X + r.X,
			Y:        rect.Y + r.Y,
			MaxWidth: int(float64(r.Width) * maxWidthFactor),
			FontSize: float32(r.Height) / float32(scale),
		})
	}
	return texts, nil
}

// resetTracking forgets the previous texts and frame hash so content that
// reappears after a clear is rendered again.
func (o *Orchestrator) resetTracking() {
	o.lastTexts = nil
	if o.filter != nil {
		o.filter.reset()
	}
}

// idle is a tick that did no rendering work; it paces by the current
// no-change streak.
func (o *Orchestrator) idle() Tick {
	return Tick{Delay: o.delay(), CacheSize: o.cache.Len()}
}

// delay maps the no-change streak to the next poll interval.
func (o *Orchestrator) delay() time.Duration {
	switch {
	case o.noChange > idleAfter:
		return idleDelay
	case o.noChange > slowAfter:
		return slowDelay
	default:
		return baseDelay
	}
}

// sleep waits out the tick delay but wakes early on stop or cancel.
func (o *Orchestrator) sleep(ctx context.Context, d time.Duration) {
	select {
	case <-ctx.Done():
	case <-o.stop.Done():
	case <-o.after(d):
	}
}

func (o *Orchestrator) emit(tk Tick) {
	if o.onTick != nil {
		o.onTick(tk)
	}
}

// textsChanged reports whether the ordered text list differs from the
// previous tick's. Same length and pairwise equal means unchanged.
func textsChanged(current, previous []string) bool {
	if len(current) != len(previous) {
		return true
	}
	for i := range current {
		if current[i] != previous[i] {
			return true
		}
	}
	return false
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
