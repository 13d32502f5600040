package status

import "sync"

// ring keeps the most recent snapshots so late-joining clients can
// backfill without replaying the whole run.
type ring struct {
	mu      sync.RWMutex
	snaps   []Snapshot
	maxSize int
}

func newRing(maxSize int) *ring {
	return &ring{maxSize: maxSize}
}

func (r *ring) add(s Snapshot) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.snaps = append(r.snaps, s)
	if len(r.snaps) > r.maxSize {
		r.snaps = r.snaps[len(r.snaps)-r.maxSize:]
	}
}

// recent returns a copy of the stored snapshots, oldest first.
func (r *ring) recent() []Snapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Snapshot, len(r.snaps))
	copy(out, r.snaps)
	return out
}

func (r *ring) last() (Snapshot, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if len(r.snaps) == 0 {
		return Snapshot{}, false
	}
	return r.snaps[len(r.snaps)-1], true
}
