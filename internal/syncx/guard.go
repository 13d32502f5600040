// Package syncx provides the small synchronization helpers the app leans
// on: a guarded value, a sticky stop flag, and a single-slot mailbox.
package syncx

import "sync"

// RWGuard pairs a value with the RWMutex guarding it, so the value can
// never be touched without its lock.
type RWGuard[T any] struct {
	mu    sync.RWMutex
	value T
}

// NewGuard creates a guarded value.
func NewGuard[T any](initial T) *RWGuard[T] {
	return &RWGuard[T]{value: initial}
}

// Get returns a copy of the value under the read lock. T should be a value
// type; a copied pointer would share what it points at.
func (g *RWGuard[T]) Get() T {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.value
}

// Set replaces the value under the write lock.
func (g *RWGuard[T]) Set(v T) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.value = v
}

// Write mutates the value in place under the write lock.
func (g *RWGuard[T]) Write(fn func(*T)) {
	g.mu.Lock()
	defer g.mu.Unlock()
	fn(&g.value)
}
