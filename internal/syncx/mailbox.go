package syncx

import "sync"

// Mailbox is a single-slot, latest-wins handoff. Put never blocks: an
// undelivered value is simply replaced, so a slow consumer sees only the
// newest state instead of a growing backlog.
type Mailbox[T any] struct {
	mu    sync.Mutex
	value T
	full  bool
}

// Put deposits v, replacing any value not yet taken.
func (m *Mailbox[T]) Put(v T) {
	m.mu.Lock()
	m.value = v
	m.full = true
	m.mu.Unlock()
}

// Take removes and returns the deposited value. The second result is false
// when the mailbox is empty.
func (m *Mailbox[T]) Take() (T, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.value, m.full
	var zero T
	m.value = zero
	m.full = false
	return v, ok
}
