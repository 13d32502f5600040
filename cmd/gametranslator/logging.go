package main

import (
	"context"
	"os"

	"log/slog"

	"github.com/lmittmann/tint"

	"github.com/Rangesa/Game-Translator/internal/config"
)

// newLogger builds the colored console logger and, when configured, a
// JSON debug file behind it. The returned func closes the file.
func newLogger(cfg config.LogConfig) (*slog.Logger, func()) {
	console := tint.NewHandler(os.Stderr, &tint.Options{
		Level:      parseLevel(cfg.Level),
		TimeFormat: "15:04:05",
	})

	if cfg.File == "" {
		return slog.New(console), func() {}
	}

	f, err := os.OpenFile(cfg.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		logger := slog.New(console)
		logger.Warn("log file open failed", "path", cfg.File, "error", err)
		return logger, func() {}
	}

	// The file always gets debug records regardless of console level.
	file := slog.NewJSONHandler(f, &slog.HandlerOptions{Level: slog.LevelDebug})
	logger := slog.New(fanoutHandler{handlers: []slog.Handler{console, file}})
	return logger, func() { _ = f.Close() }
}

func parseLevel(s string) slog.Level {
	switch s {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// fanoutHandler sends each record to every handler that wants it.
type fanoutHandler struct {
	handlers []slog.Handler
}

func (h fanoutHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, hh := range h.handlers {
		if hh.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (h fanoutHandler) Handle(ctx context.Context, r slog.Record) error {
	var firstErr error
	for _, hh := range h.handlers {
		if !hh.Enabled(ctx, r.Level) {
			continue
		}
		if err := hh.Handle(ctx, r.Clone()); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (h fanoutHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := make([]slog.Handler, len(h.handlers))
	for i, hh := range h.handlers {
		next[i] = hh.WithAttrs(attrs)
	}
	return fanoutHandler{handlers: next}
}

func (h fanoutHandler) WithGroup(name string) slog.Handler {
	next := make([]slog.Handler, len(h.handlers))
	for i, hh := range h.handlers {
		next[i] = hh.WithGroup(name)
	}
	return fanoutHandler{handlers: next}
}
