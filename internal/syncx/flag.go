package syncx

import "sync"

// StopFlag signals cooperative shutdown. Set is sticky and idempotent, and
// Done returns a channel closed on the first Set so loops can select on it.
type StopFlag struct {
	once sync.Once
	done chan struct{}
}

// NewStopFlag returns an unset flag.
func NewStopFlag() *StopFlag {
	return &StopFlag{done: make(chan struct{})}
}

// Set marks the flag. Safe to call from any goroutine, any number of times.
func (f *StopFlag) Set() {
	f.once.Do(func() { close(f.done) })
}

// IsSet reports whether Set has been called.
func (f *StopFlag) IsSet() bool {
	select {
	case <-f.done:
		return true
	default:
		return false
	}
}

// Done returns a channel closed once the flag is set.
func (f *StopFlag) Done() <-chan struct{} {
	return f.done
}
