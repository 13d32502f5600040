package main

import (
	"context"
	"net/http"
	"sync"
	"time"

	"log/slog"

	"github.com/Rangesa/Game-Translator/internal/cache"
	"github.com/Rangesa/Game-Translator/internal/capture"
	"github.com/Rangesa/Game-Translator/internal/config"
	"github.com/Rangesa/Game-Translator/internal/errors"
	"github.com/Rangesa/Game-Translator/internal/ocr"
	"github.com/Rangesa/Game-Translator/internal/overlay"
	"github.com/Rangesa/Game-Translator/internal/pipeline"
	"github.com/Rangesa/Game-Translator/internal/session"
	"github.com/Rangesa/Game-Translator/internal/status"
	"github.com/Rangesa/Game-Translator/internal/syncx"
	"github.com/Rangesa/Game-Translator/internal/trace"
	"github.com/Rangesa/Game-Translator/internal/translate"
)

// renderSession is the part of session.Session the app drives.
type renderSession interface {
	Draw(texts []overlay.Text)
	Clear()
	Stop()
}

// Construction seams, swapped by tests.
var (
	findWindow  = capture.Find
	listWindows = capture.List
	openSource  = capture.Open
	newEngine   = ocr.NewEngine
	openCache   = cache.Open

	newTranslator = func(ctx context.Context, cfg config.TranslateConfig) (pipeline.Translator, error) {
		return translate.New(ctx, cfg)
	}
	startSession = func(cfg config.OverlayConfig, onError func(error)) (renderSession, error) {
		return session.Start(cfg, onError)
	}
	saveConfig = func(c *config.Config) error { return c.Save() }
)

// run is one live translation run and its teardown handle.
type run struct {
	stop *syncx.StopFlag
	done chan struct{}
}

// App owns the configuration and the lifecycle of translation runs. All
// methods are safe to call from tray callbacks.
type App struct {
	mu      sync.Mutex
	cfg     *config.Config
	current *run
	onState func(running bool)

	status     *status.Server
	httpServer *http.Server
}

func newApp(cfg *config.Config) *App {
	a := &App{cfg: cfg}
	if cfg.Status.Addr != "" {
		a.startStatus(cfg.Status.Addr)
	}
	return a
}

func (a *App) startStatus(addr string) {
	a.status = status.New(a.cfg.Capture.WindowTitle)
	a.httpServer = &http.Server{
		Addr:         addr,
		Handler:      a.status.Handler(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() {
		slog.Info("status server listening", "addr", addr)
		if err := a.httpServer.ListenAndServe(); err != http.ErrServerClosed {
			slog.Error("status server error", "error", err)
		}
	}()
}

// SetStateListener registers the callback observing run start and stop.
// The callback fires outside the app lock.
func (a *App) SetStateListener(fn func(running bool)) {
	a.mu.Lock()
	a.onState = fn
	a.mu.Unlock()
}

// Running reports whether a translation run is live.
func (a *App) Running() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.current != nil
}

// Start begins translating the configured window. Starting while a run
// is live is a no-op.
func (a *App) Start() error {
	a.mu.Lock()
	if a.current != nil {
		a.mu.Unlock()
		return nil
	}
	r, err := a.buildRun()
	if err != nil {
		a.mu.Unlock()
		return err
	}
	a.current = r
	fn := a.onState
	a.mu.Unlock()

	if fn != nil {
		fn(true)
	}
	return nil
}

// Stop ends the live run and waits for it to finish. Cancellation is
// cooperative: the flag lands between ticks, in-flight backend calls run
// to completion. Safe to call when nothing is running.
func (a *App) Stop() {
	a.mu.Lock()
	r := a.current
	a.mu.Unlock()
	if r == nil {
		return
	}

	r.stop.Set()
	<-r.done
}

// SelectWindow retargets translation at the window with the given title,
// persists the choice, and restarts the run if one is live.
func (a *App) SelectWindow(title string) {
	a.mu.Lock()
	a.cfg.Capture.WindowTitle = title
	cfg := a.cfg
	a.mu.Unlock()

	if err := saveConfig(cfg); err != nil {
		slog.Warn("config save failed", "error", err)
	}

	if a.Running() {
		a.Stop()
		if err := a.Start(); err != nil {
			slog.Error("restart failed", "window", title, "error", err)
		}
	}
}

// Shutdown stops the run and the status server. Called once on exit.
func (a *App) Shutdown() {
	a.Stop()

	if a.httpServer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := a.httpServer.Shutdown(ctx); err != nil {
			slog.Error("status server shutdown error", "error", err)
		}
		a.status.Close()
	}
}

// buildRun wires one run's collaborators. Caller holds a.mu; everything
// constructed so far is torn down again on error.
func (a *App) buildRun() (*run, error) {
	win, err := findWindow(a.cfg.Capture.WindowTitle)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	ctx, _ = trace.EnsureContext(ctx)
	logger := trace.Logger(ctx)

	source, err := openSource(win)
	if err != nil {
		cancel()
		return nil, err
	}

	engine, err := newEngine(ctx, a.cfg.OCR)
	if err != nil {
		_ = source.Close()
		cancel()
		return nil, err
	}

	translator, err := newTranslator(ctx, a.cfg.Translate)
	if err != nil {
		_ = engine.Close()
		_ = source.Close()
		cancel()
		return nil, err
	}

	sess, err := startSession(a.cfg.Overlay, func(err error) {
		logger.Warn("overlay render error", "error", err)
	})
	if err != nil {
		_ = engine.Close()
		_ = source.Close()
		cancel()
		return nil, err
	}

	deps := pipeline.Deps{
		Source:     source,
		Engine:     engine,
		Cache:      openCache(),
		Translator: translator,
		Renderer:   sess,
		Stop:       syncx.NewStopFlag(),
		Prefilter:  a.cfg.Capture.HashPrefilter,
	}
	if a.status != nil {
		a.status.SetWindow(win.Title)
		a.status.SetRunning(true)
		deps.OnTick = a.status.Publish
	}

	r := &run{
		stop: deps.Stop,
		done: make(chan struct{}),
	}

	logger.Info("run starting", "window", win.Title)

	pipe := pipeline.New(deps)
	go func() {
		defer close(r.done)

		err := pipe.Run(ctx)
		switch {
		case err == nil:
		case errors.IsCode(err, errors.CodeWindowGone):
			logger.Info("target window closed", "window", win.Title)
		default:
			logger.Error("run failed", "error", err)
		}

		sess.Stop()
		if err := engine.Close(); err != nil {
			logger.Debug("engine close error", "error", err)
		}
		_ = source.Close()
		cancel()
		a.finishRun(r)
	}()

	return r, nil
}

// finishRun clears the live run if it is still the current one. Runs
// ended by Stop and runs ending on their own both land here.
func (a *App) finishRun(r *run) {
	a.mu.Lock()
	var fn func(bool)
	ended := a.current == r
	if ended {
		a.current = nil
		fn = a.onState
	}
	a.mu.Unlock()

	if ended && a.status != nil {
		a.status.SetRunning(false)
	}
	if fn != nil {
		fn(false)
	}
}
