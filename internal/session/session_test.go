package session

import (
	"sync"
	"testing"
	"time"

	"github.com/Rangesa/Game-Translator/internal/config"
	"github.com/Rangesa/Game-Translator/internal/errors"
	"github.com/Rangesa/Game-Translator/internal/overlay"
)

// fakeHost mimics the overlay surface with a channel-driven run loop. An
// optional gate holds wake processing so tests can stage several commands
// before the first drain.
type fakeHost struct {
	mu      sync.Mutex
	ops     []string
	bodies  []string
	closed  bool
	drawErr error

	gate      chan struct{}
	wakeCh    chan struct{}
	closeCh   chan struct{}
	closeOnce sync.Once
}

func newFakeHost() *fakeHost {
	return &fakeHost{
		wakeCh:  make(chan struct{}, 1),
		closeCh: make(chan struct{}),
	}
}

func (f *fakeHost) Run(onWake func()) {
	for {
		select {
		case <-f.wakeCh:
			if f.gate != nil {
				<-f.gate
			}
			onWake()
		case <-f.closeCh:
			return
		}
	}
}

func (f *fakeHost) Wake() {
	select {
	case f.wakeCh <- struct{}{}:
	default:
	}
}

func (f *fakeHost) RequestClose() {
	f.closeOnce.Do(func() { close(f.closeCh) })
}

func (f *fakeHost) Draw(texts []overlay.Text) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ops = append(f.ops, "draw")
	if len(texts) > 0 {
		f.bodies = append(f.bodies, texts[0].Body)
	}
	return f.drawErr
}

func (f *fakeHost) Clear() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ops = append(f.ops, "clear")
	return nil
}

func (f *fakeHost) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
}

func (f *fakeHost) snapshot() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.ops...)
}

func (f *fakeHost) isClosed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

// startWithFake swaps the overlay constructor for the fake and restores it
// on cleanup.
func startWithFake(t *testing.T, host *fakeHost, onError func(error)) *Session {
	t.Helper()
	orig := newOverlay
	newOverlay = func(config.OverlayConfig) (renderHost, error) { return host, nil }
	t.Cleanup(func() { newOverlay = orig })

	s, err := Start(config.OverlayConfig{}, onError)
	if err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	return s
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

func TestStartSurfacesInitFailure(t *testing.T) {
	orig := newOverlay
	newOverlay = func(config.OverlayConfig) (renderHost, error) {
		return nil, errors.New(errors.CodeSurfaceInit, "no display")
	}
	defer func() { newOverlay = orig }()

	if _, err := Start(config.OverlayConfig{}, nil); !errors.IsCode(err, errors.CodeSurfaceInit) {
		t.Errorf("Start() error = %v, want code %s", err, errors.CodeSurfaceInit)
	}
}

func TestDrawReachesHost(t *testing.T) {
	host := newFakeHost()
	s := startWithFake(t, host, nil)

	s.Draw([]overlay.Text{{Body: "hello", X: 10, Y: 20}})

	waitFor(t, "draw", func() bool { return len(host.snapshot()) == 1 })
	if ops := host.snapshot(); ops[0] != "draw" {
		t.Errorf("ops = %v, want [draw]", ops)
	}
	s.Stop()
}

func TestCommandsApplyInOrder(t *testing.T) {
	host := newFakeHost()
	host.gate = make(chan struct{})
	s := startWithFake(t, host, nil)

	s.Draw([]overlay.Text{{Body: "first"}})
	s.Draw([]overlay.Text{{Body: "second"}})
	s.Clear()
	close(host.gate)

	waitFor(t, "three commands", func() bool { return len(host.snapshot()) == 3 })
	ops := host.snapshot()
	want := []string{"draw", "draw", "clear"}
	for i := range want {
		if ops[i] != want[i] {
			t.Fatalf("ops = %v, want %v", ops, want)
		}
	}
	host.mu.Lock()
	bodies := append([]string(nil), host.bodies...)
	host.mu.Unlock()
	if len(bodies) != 2 || bodies[0] != "first" || bodies[1] != "second" {
		t.Errorf("draw order = %v, want [first second]", bodies)
	}
	s.Stop()
}

func TestOverflowDropsOldest(t *testing.T) {
	host := newFakeHost()
	host.gate = make(chan struct{})
	s := startWithFake(t, host, nil)

	for i := 0; i < 2*commandBuffer; i++ {
		s.Draw([]overlay.Text{{Body: "stale"}})
	}
	s.Clear()
	close(host.gate)

	waitFor(t, "final clear", func() bool {
		ops := host.snapshot()
		return len(ops) > 0 && ops[len(ops)-1] == "clear"
	})
	if ops := host.snapshot(); len(ops) > commandBuffer {
		t.Errorf("applied %d commands, want at most %d", len(ops), commandBuffer)
	}
	s.Stop()
}

func TestStopClosesHost(t *testing.T) {
	host := newFakeHost()
	s := startWithFake(t, host, nil)

	s.Stop()
	if !host.isClosed() {
		t.Error("host not closed after Stop()")
	}
}

func TestStopIsIdempotent(t *testing.T) {
	host := newFakeHost()
	s := startWithFake(t, host, nil)

	s.Stop()
	s.Stop()

	if !host.isClosed() {
		t.Error("host not closed after repeated Stop()")
	}
}

func TestCommandsAfterStopAreDropped(t *testing.T) {
	host := newFakeHost()
	s := startWithFake(t, host, nil)
	s.Stop()

	s.Draw([]overlay.Text{{Body: "late"}})
	s.Clear()

	if ops := host.snapshot(); len(ops) != 0 {
		t.Errorf("commands after Stop reached host: %v", ops)
	}
}

func TestRenderErrorReachesHook(t *testing.T) {
	host := newFakeHost()
	host.drawErr = errors.New(errors.CodeRenderFailed, "rebuild render device")

	var (
		mu   sync.Mutex
		seen error
	)
	s := startWithFake(t, host, func(err error) {
		mu.Lock()
		seen = err
		mu.Unlock()
	})

	s.Draw([]overlay.Text{{Body: "boom"}})
	waitFor(t, "error hook", func() bool {
		mu.Lock()
		defer mu.Unlock()
		return seen != nil
	})

	mu.Lock()
	if !errors.IsCode(seen, errors.CodeRenderFailed) {
		t.Errorf("hook saw %v, want code %s", seen, errors.CodeRenderFailed)
	}
	mu.Unlock()
	s.Stop()
}
