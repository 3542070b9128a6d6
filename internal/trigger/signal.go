// internal/trigger/signal.go
package trigger

// Signal is a single-slot wake-up primitive.
// Signals delivered while one is pending coalesce into one wakeup.
type Signal struct {
	ch chan struct{}
}

// New returns an unset Signal.
func New() *Signal {
	return &Signal{ch: make(chan struct{}, 1)}
}

// Signal sets the slot. Never blocks.
// Reports false when a signal was already pending.
func (s *Signal) Signal() bool {
	select {
	case s.ch <- struct{}{}:
		return true
	default:
		return false
	}
}

// C returns the consumer side. One receive consumes the pending signal.
func (s *Signal) C() <-chan struct{} {
	return s.ch
}

// Pending reports whether a signal is waiting to be consumed.
func (s *Signal) Pending() bool {
	return len(s.ch) > 0
}
