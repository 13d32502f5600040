package main

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/Rangesa/Game-Translator/internal/cache"
	"github.com/Rangesa/Game-Translator/internal/capture"
	"github.com/Rangesa/Game-Translator/internal/config"
	"github.com/Rangesa/Game-Translator/internal/errors"
	"github.com/Rangesa/Game-Translator/internal/ocr"
	"github.com/Rangesa/Game-Translator/internal/overlay"
	"github.com/Rangesa/Game-Translator/internal/pipeline"
)

type fakeAppSource struct {
	mu     sync.Mutex
	alive  bool
	closed bool
}

func (s *fakeAppSource) Capture() (*capture.Frame, error) {
	return &capture.Frame{Width: 2, Height: 2, Pixels: make([]byte, 16)}, nil
}

func (s *fakeAppSource) Alive() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.alive
}

func (s *fakeAppSource) setAlive(v bool) {
	s.mu.Lock()
	s.alive = v
	s.mu.Unlock()
}

func (s *fakeAppSource) Rect() (capture.Rect, error) {
	return capture.Rect{Width: 200, Height: 100}, nil
}

func (s *fakeAppSource) Scale() float64            { return 1 }
func (s *fakeAppSource) Foreground() (bool, error) { return true, nil }
func (s *fakeAppSource) Allocations() int          { return 0 }

func (s *fakeAppSource) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func (s *fakeAppSource) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

type fakeAppEngine struct {
	mu     sync.Mutex
	closed bool
}

func (e *fakeAppEngine) Recognize(ctx context.Context, frame *capture.Frame) ([]ocr.Line, error) {
	return []ocr.Line{{Text: "Hello", X: 10, Y: 20, Width: 80, Height: 20}}, nil
}

func (e *fakeAppEngine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.closed = true
	return nil
}

func (e *fakeAppEngine) isClosed() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.closed
}

type fakeAppTranslator struct{}

func (fakeAppTranslator) TranslateBatch(ctx context.Context, texts []string) ([]*string, error) {
	out := make([]*string, len(texts))
	for i, t := range texts {
		tr := "訳:" + t
		out[i] = &tr
	}
	return out, nil
}

type fakeAppSession struct {
	mu      sync.Mutex
	draws   int
	clears  int
	stopped bool
}

func (s *fakeAppSession) Draw(texts []overlay.Text) {
	s.mu.Lock()
	s.draws++
	s.mu.Unlock()
}

func (s *fakeAppSession) Clear() {
	s.mu.Lock()
	s.clears++
	s.mu.Unlock()
}

func (s *fakeAppSession) Stop() {
	s.mu.Lock()
	s.stopped = true
	s.mu.Unlock()
}

func (s *fakeAppSession) drawCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.draws
}

func (s *fakeAppSession) clearCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.clears
}

func (s *fakeAppSession) isStopped() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stopped
}

type appHarness struct {
	app    *App
	source *fakeAppSource
	engine *fakeAppEngine
	sess   *fakeAppSession

	findCalls  int
	findErr    error
	savedTitle string
}

func newAppHarness(t *testing.T) *appHarness {
	t.Helper()
	h := &appHarness{
		source: &fakeAppSource{alive: true},
		engine: &fakeAppEngine{},
		sess:   &fakeAppSession{},
	}

	origFind, origOpen := findWindow, openSource
	origEngine, origTranslator := newEngine, newTranslator
	origSession, origCache, origSave := startSession, openCache, saveConfig
	t.Cleanup(func() {
		findWindow, openSource = origFind, origOpen
		newEngine, newTranslator = origEngine, origTranslator
		startSession, openCache, saveConfig = origSession, origCache, origSave
	})

	findWindow = func(substr string) (capture.Window, error) {
		h.findCalls++
		if h.findErr != nil {
			return capture.Window{}, h.findErr
		}
		return capture.Window{Handle: 1, Title: "Sample Game"}, nil
	}
	openSource = func(win capture.Window) (capture.Source, error) { return h.source, nil }
	newEngine = func(ctx context.Context, cfg config.OCRConfig) (ocr.Engine, error) {
		return h.engine, nil
	}
	newTranslator = func(ctx context.Context, cfg config.TranslateConfig) (pipeline.Translator, error) {
		return fakeAppTranslator{}, nil
	}
	startSession = func(cfg config.OverlayConfig, onError func(error)) (renderSession, error) {
		return h.sess, nil
	}
	cachePath := filepath.Join(t.TempDir(), cache.FileName)
	openCache = func() *cache.Cache { return cache.OpenPath(cachePath) }
	saveConfig = func(c *config.Config) error {
		h.savedTitle = c.Capture.WindowTitle
		return nil
	}

	cfg := config.Default()
	cfg.Capture.WindowTitle = "Sample Game"
	h.app = newApp(cfg)
	return h
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func TestAppStartDrawsAndStops(t *testing.T) {
	h := newAppHarness(t)

	if err := h.app.Start(); err != nil {
		t.Fatalf("Start error: %v", err)
	}
	if !h.app.Running() {
		t.Fatal("not running after Start")
	}

	waitFor(t, "first draw", func() bool { return h.sess.drawCount() > 0 })

	h.app.Stop()
	if h.app.Running() {
		t.Error("still running after Stop")
	}
	if !h.sess.isStopped() {
		t.Error("render session not stopped")
	}
	if !h.engine.isClosed() {
		t.Error("engine not closed")
	}
	if !h.source.isClosed() {
		t.Error("source not closed")
	}
}

func TestAppStartTwiceIsNoOp(t *testing.T) {
	h := newAppHarness(t)

	if err := h.app.Start(); err != nil {
		t.Fatalf("Start error: %v", err)
	}
	defer h.app.Stop()

	if err := h.app.Start(); err != nil {
		t.Fatalf("second Start error: %v", err)
	}
	if h.findCalls != 1 {
		t.Errorf("findWindow called %d times, want 1", h.findCalls)
	}
}

func TestAppStartFailsWhenWindowMissing(t *testing.T) {
	h := newAppHarness(t)
	h.findErr = errors.Newf(errors.CodeWindowGone, "no window matching %q", "Sample Game")

	err := h.app.Start()
	if err == nil {
		t.Fatal("Start succeeded without a window")
	}
	if !errors.IsCode(err, errors.CodeWindowGone) {
		t.Errorf("error code = %v, want CodeWindowGone", err)
	}
	if h.app.Running() {
		t.Error("running after failed Start")
	}
}

func TestAppRunEndsWhenWindowCloses(t *testing.T) {
	h := newAppHarness(t)

	var mu sync.Mutex
	var states []bool
	h.app.SetStateListener(func(running bool) {
		mu.Lock()
		states = append(states, running)
		mu.Unlock()
	})

	if err := h.app.Start(); err != nil {
		t.Fatalf("Start error: %v", err)
	}
	waitFor(t, "first draw", func() bool { return h.sess.drawCount() > 0 })

	h.source.setAlive(false)
	waitFor(t, "run to end", func() bool { return !h.app.Running() })

	if h.sess.clearCount() == 0 {
		t.Error("overlay not cleared when the window went away")
	}
	waitFor(t, "session stop", func() bool { return h.sess.isStopped() })

	mu.Lock()
	defer mu.Unlock()
	if len(states) < 2 || !states[0] || states[len(states)-1] {
		t.Errorf("state transitions = %v, want true first and false last", states)
	}
}

func TestSelectWindowWhileStoppedOnlySaves(t *testing.T) {
	h := newAppHarness(t)

	h.app.SelectWindow("Other Game")

	if h.savedTitle != "Other Game" {
		t.Errorf("saved title = %q, want %q", h.savedTitle, "Other Game")
	}
	if h.app.Running() {
		t.Error("SelectWindow started a run")
	}
	if h.findCalls != 0 {
		t.Errorf("findWindow called %d times, want 0", h.findCalls)
	}
}

func TestSelectWindowRestartsLiveRun(t *testing.T) {
	h := newAppHarness(t)

	if err := h.app.Start(); err != nil {
		t.Fatalf("Start error: %v", err)
	}
	waitFor(t, "first draw", func() bool { return h.sess.drawCount() > 0 })

	h.app.SelectWindow("Other Game")

	if !h.app.Running() {
		t.Error("not running after SelectWindow restart")
	}
	if h.findCalls != 2 {
		t.Errorf("findWindow called %d times, want 2", h.findCalls)
	}
	if h.savedTitle != "Other Game" {
		t.Errorf("saved title = %q, want %q", h.savedTitle, "Other Game")
	}

	h.app.Stop()
}
