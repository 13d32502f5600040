// Package status serves a small HTTP and WebSocket surface for watching a
// translation run from a browser. Every pipeline tick is published as a
// state snapshot: connected clients get a live feed, REST endpoints expose
// the latest snapshot and a short history.
//
// The pipeline goroutine never blocks on clients. Publish drops each
// snapshot into a single-slot mailbox and wakes the broadcaster; a slow
// broadcast simply coalesces intermediate snapshots away.
package status

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/Rangesa/Game-Translator/internal/pipeline"
	"github.com/Rangesa/Game-Translator/internal/syncx"
	"github.com/Rangesa/Game-Translator/internal/trace"
)

// Message is the base envelope for client messages.
type Message struct {
	Type string `json:"type"`
}

// Snapshot is one pipeline tick as shown to status clients.
type Snapshot struct {
	Type       string    `json:"type"`
	At         time.Time `json:"at"`
	Window     string    `json:"window,omitempty"`
	Running    bool      `json:"running"`
	Regions    int       `json:"regions"`
	Changed    bool      `json:"changed"`
	Translated int       `json:"translated"`
	CacheSize  int       `json:"cache_size"`
	DelayMS    int64     `json:"delay_ms"`
	Texts      []string  `json:"texts,omitempty"`
}

// HistoryMessage replies to a client history request.
type HistoryMessage struct {
	Type      string     `json:"type"`
	Snapshots []Snapshot `json:"snapshots"`
}

// RateLimitedMessage tells a client to slow down.
type RateLimitedMessage struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// rateLimiter tracks message timestamps using a sliding window.
type rateLimiter struct {
	timestamps []time.Time
	mu         sync.Mutex
}

// allow checks if a message is allowed and records the timestamp if so.
func (r *rateLimiter) allow() bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	cutoff := now.Add(-rateLimitWindow)

	valid := r.timestamps[:0]
	for _, t := range r.timestamps {
		if t.After(cutoff) {
			valid = append(valid, t)
		}
	}
	r.timestamps = valid

	if len(r.timestamps) >= rateLimitMessages {
		return false
	}

	r.timestamps = append(r.timestamps, now)
	return true
}

// Server handles HTTP and WebSocket connections for one run.
type Server struct {
	mu         sync.RWMutex
	window     string
	running    bool
	conns      map[*websocket.Conn]struct{}
	rateLimits map[*websocket.Conn]*rateLimiter

	history *ring
	latest  syncx.Mailbox[Snapshot]
	wake    chan struct{}

	quit      chan struct{}
	closeOnce sync.Once
}

// New creates a server reporting on the named target window and starts
// its broadcaster.
func New(window string) *Server {
	s := &Server{
		window:     window,
		conns:      make(map[*websocket.Conn]struct{}),
		rateLimits: make(map[*websocket.Conn]*rateLimiter),
		history:    newRing(historySize),
		wake:       make(chan struct{}, 1),
		quit:       make(chan struct{}),
	}

	go s.broadcastLoop()

	return s
}

// Close stops the broadcaster. Open websocket connections are torn down
// by the HTTP server owning the listener.
func (s *Server) Close() {
	s.closeOnce.Do(func() { close(s.quit) })
}

// SetWindow updates the reported target window title. Called when a new
// run starts against a different window.
func (s *Server) SetWindow(title string) {
	s.mu.Lock()
	s.window = title
	s.mu.Unlock()
}

// SetRunning records whether a run is live and publishes a snapshot right
// away, so clients see starts and stops that happen between ticks.
func (s *Server) SetRunning(running bool) {
	s.mu.Lock()
	s.running = running
	s.mu.Unlock()
	s.push(s.snapshot(pipeline.Tick{}))
}

// Publish records one pipeline tick and schedules a broadcast. It never
// blocks, so it is safe to call from the polling loop.
func (s *Server) Publish(t pipeline.Tick) {
	s.push(s.snapshot(t))
}

func (s *Server) push(snap Snapshot) {
	s.history.add(snap)
	s.latest.Put(snap)
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

func (s *Server) snapshot(t pipeline.Tick) Snapshot {
	s.mu.RLock()
	window := s.window
	running := s.running
	s.mu.RUnlock()

	texts := make([]string, len(t.Texts))
	for i, txt := range t.Texts {
		texts[i] = preview(txt)
	}
	return Snapshot{
		Type:       "state",
		At:         time.Now(),
		Window:     window,
		Running:    running,
		Regions:    t.Regions,
		Changed:    t.Changed,
		Translated: t.Translated,
		CacheSize:  t.CacheSize,
		DelayMS:    t.Delay.Milliseconds(),
		Texts:      texts,
	}
}

func (s *Server) broadcastLoop() {
	for {
		select {
		case <-s.quit:
			return
		case <-s.wake:
			for {
				snap, ok := s.latest.Take()
				if !ok {
					break
				}
				s.broadcast(snap)
			}
		}
	}
}

func (s *Server) broadcast(msg interface{}) {
	s.mu.RLock()
	for conn := range s.conns {
		go func(c *websocket.Conn) {
			ctx, cancel := context.WithTimeout(context.Background(), broadcastTimeout)
			defer cancel()
			_ = wsjson.Write(ctx, c, msg)
		}(conn)
	}
	s.mu.RUnlock()
}

// connCount reports registered websocket clients. Used by tests.
func (s *Server) connCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.conns)
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	// WebSocket endpoint
	mux.HandleFunc("/ws", s.handleWebSocket)

	// REST API
	mux.HandleFunc("GET /api/health", s.handleHealth)
	mux.HandleFunc("GET /api/state", s.handleState)
	mux.HandleFunc("GET /api/history", s.handleHistory)

	// Apply middleware: trace -> CORS
	return corsMiddleware(trace.Middleware(mux))
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "*")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		slog.Error("websocket accept error", "error", err)
		return
	}
	defer func() { _ = conn.Close(websocket.StatusNormalClosure, "") }()

	s.mu.Lock()
	s.conns[conn] = struct{}{}
	s.rateLimits[conn] = &rateLimiter{}
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		delete(s.conns, conn)
		delete(s.rateLimits, conn)
		s.mu.Unlock()
	}()

	baseCtx := r.Context()
	log := trace.Logger(baseCtx)
	log.Info("status client connected", "remote", r.RemoteAddr)

	// Greet with the latest snapshot so the client renders immediately
	// instead of waiting out the current polling delay.
	if snap, ok := s.history.last(); ok {
		_ = wsjson.Write(baseCtx, conn, snap)
	}

	for {
		var msg json.RawMessage
		if err := wsjson.Read(baseCtx, conn, &msg); err != nil {
			log.Debug("websocket read error", "error", err)
			return
		}

		s.mu.RLock()
		rl := s.rateLimits[conn]
		s.mu.RUnlock()

		if !rl.allow() {
			log.Warn("rate limit exceeded", "remote", r.RemoteAddr)
			_ = wsjson.Write(baseCtx, conn, RateLimitedMessage{
				Type:    "error",
				Message: "rate limit exceeded",
			})
			continue
		}

		var base Message
		if err := json.Unmarshal(msg, &base); err != nil {
			continue
		}

		switch base.Type {
		case "history":
			_ = wsjson.Write(baseCtx, conn, HistoryMessage{
				Type:      "history",
				Snapshots: s.history.recent(),
			})
		default:
			log.Debug("unknown message type", "type", base.Type)
		}
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	snap, ok := s.history.last()
	if !ok {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	json.NewEncoder(w).Encode(snap)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	snaps := s.history.recent()
	json.NewEncoder(w).Encode(map[string]interface{}{
		"count":     len(snaps),
		"snapshots": snaps,
	})
}

func preview(s string) string {
	if len(s) <= textPreviewLimit {
		return s
	}
	// Back up to a rune boundary; recognized text is mostly multi-byte.
	cut := textPreviewLimit
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}
