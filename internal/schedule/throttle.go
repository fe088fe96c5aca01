package schedule

import (
	"sync"
	"time"
)

// Throttle admits at most one event per interval, dropping the rest.
type Throttle struct {
	mu       sync.Mutex
	interval time.Duration
	last     time.Time
	now      func() time.Time
}

// NewThrottle creates a Throttle with the given interval.
func NewThrottle(interval time.Duration) *Throttle {
	return &Throttle{interval: interval, now: time.Now}
}

// WithClock replaces the time source. Used by tests.
func (t *Throttle) WithClock(now func() time.Time) *Throttle {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.now = now
	return t
}

// Interval returns the minimum spacing between admitted events.
func (t *Throttle) Interval() time.Duration {
	return t.interval
}

// Allow reports whether an event may proceed now, and if so starts a new interval.
func (t *Throttle) Allow() bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	if !t.last.IsZero() && now.Sub(t.last) < t.interval {
		return false
	}
	t.last = now
	return true
}
