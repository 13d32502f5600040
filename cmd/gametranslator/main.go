// Game Translator - watches one game window, recognizes on-screen text,
// and draws translations over it.
package main

import (
	"os"
	"os/signal"
	"syscall"

	"log/slog"

	"github.com/energye/systray"

	"github.com/Rangesa/Game-Translator/internal/config"
)

func main() {
	cfg := config.Load()

	logger, closeLog := newLogger(cfg.Log)
	slog.SetDefault(logger)
	defer closeLog()

	if err := cfg.Validate(); err != nil {
		slog.Error("invalid configuration", "path", config.Path(), "error", err)
		os.Exit(1)
	}

	app := newApp(cfg)
	tr := newTray(app)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		slog.Info("shutting down...")
		systray.Quit()
	}()

	slog.Info("game translator starting",
		"config", config.Path(),
		"window", cfg.Capture.WindowTitle,
		"translate", cfg.Translate.Engine,
	)

	// Blocks until Quit; the tray thread owns the menu loop.
	systray.Run(tr.onReady, tr.onExit)

	app.Shutdown()
	slog.Info("shutdown complete")
}
