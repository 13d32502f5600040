// Package session owns the render thread. Native overlay windows and their
// resources must be created and driven from a single OS thread, so the
// session locks one goroutine to its thread, builds the overlay there, and
// runs its event loop. Other goroutines hand render commands over through a
// buffered FIFO channel and post a wake signal; the render thread drains
// every pending command per wake.
package session

import (
	"log/slog"
	"runtime"

	"github.com/Rangesa/Game-Translator/internal/config"
	"github.com/Rangesa/Game-Translator/internal/overlay"
	"github.com/Rangesa/Game-Translator/internal/syncx"
)

// commandBuffer bounds pending render commands. The polling loop produces at
// most a few per second, so depth matters less than never blocking the sender.
const commandBuffer = 16

// command is one pending render operation. clear wins over texts.
type command struct {
	texts []overlay.Text
	clear bool
}

// renderHost is the overlay surface the render thread drives.
type renderHost interface {
	Run(onWake func())
	Wake()
	RequestClose()
	Draw(texts []overlay.Text) error
	Clear() error
	Close()
}

var newOverlay = func(cfg config.OverlayConfig) (renderHost, error) {
	return overlay.New(cfg)
}

// Session is the running render thread.
type Session struct {
	host     renderHost
	commands chan command
	stop     *syncx.StopFlag
	done     chan struct{}
	onError  func(error)
}

// Start spins up the render thread and creates the overlay window on it.
// onError, when non-nil, observes render failures; it runs on the render
// thread and must not block.
func Start(cfg config.OverlayConfig, onError func(error)) (*Session, error) {
	s := &Session{
		commands: make(chan command, commandBuffer),
		stop:     syncx.NewStopFlag(),
		done:     make(chan struct{}),
		onError:  onError,
	}
	ready := make(chan error, 1)
	go s.renderThread(cfg, ready)
	if err := <-ready; err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Session) renderThread(cfg config.OverlayConfig, ready chan<- error) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	host, err := newOverlay(cfg)
	if err != nil {
		ready <- err
		return
	}
	s.host = host
	ready <- nil

	host.Run(s.apply)
	host.Close()
	close(s.done)
}

// apply drains every pending command on the render thread. Waking with an
// empty queue is a no-op, so duplicate wakes are harmless.
func (s *Session) apply() {
	for {
		select {
		case cmd := <-s.commands:
			s.applyOne(cmd)
		default:
			return
		}
	}
}

func (s *Session) applyOne(cmd command) {
	var err error
	if cmd.clear {
		err = s.host.Clear()
	} else {
		err = s.host.Draw(cmd.texts)
	}
	if err != nil {
		slog.Error("render failed", "clear", cmd.clear, "texts", len(cmd.texts), "error", err)
		if s.onError != nil {
			s.onError(err)
		}
	}
}

// send enqueues a command and wakes the render thread. When the queue is
// full the oldest command is discarded: every draw replaces the whole
// overlay content, so the newest command must always land.
func (s *Session) send(cmd command) {
	for {
		select {
		case s.commands <- cmd:
			s.host.Wake()
			return
		default:
		}
		select {
		case <-s.commands:
		default:
		}
	}
}

// Draw schedules texts to replace the overlay content. Safe from any
// goroutine.
func (s *Session) Draw(texts []overlay.Text) {
	if s.stop.IsSet() {
		return
	}
	s.send(command{texts: texts})
}

// Clear schedules removal of all overlay content.
func (s *Session) Clear() {
	if s.stop.IsSet() {
		return
	}
	s.send(command{clear: true})
}

// Stop shuts the render thread down and waits for the window to be released.
// Idempotent.
func (s *Session) Stop() {
	s.stop.Set()
	s.host.RequestClose()
	<-s.done
}
