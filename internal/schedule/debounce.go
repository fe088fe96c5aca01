// Package schedule coalesces bursts of work: keyed debouncing and fixed-interval throttling.
package schedule

import (
	"errors"
	"sync"
	"time"
)

// ErrStopTimeout is returned by Stop when in-flight callbacks did not finish in time.
var ErrStopTimeout = errors.New("timed out waiting for debounced callbacks")

// Debouncer delays a callback until no new trigger for the same key arrived
// during the quiet period. At most one callback per key is pending at a time;
// the most recent callback wins.
type Debouncer struct {
	mu      sync.Mutex
	delay   time.Duration
	entries map[string]*entry
	stopped bool
	wg      sync.WaitGroup
}

type entry struct {
	timer *time.Timer
	fn    func()
}

// NewDebouncer creates a Debouncer with the given quiet period.
func NewDebouncer(delay time.Duration) *Debouncer {
	return &Debouncer{
		delay:   delay,
		entries: make(map[string]*entry),
	}
}

// Delay returns the quiet period.
func (d *Debouncer) Delay() time.Duration {
	return d.delay
}

// Trigger (re)starts the quiet period for key and replaces its callback.
// It returns false once the debouncer has been stopped.
func (d *Debouncer) Trigger(key string, fn func()) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped {
		return false
	}

	if e, ok := d.entries[key]; ok && e.timer.Stop() {
		e.fn = fn
		e.timer.Reset(d.delay)
		return true
	}

	e := &entry{fn: fn}
	d.wg.Add(1)
	e.timer = time.AfterFunc(d.delay, func() { d.fire(key, e) })
	d.entries[key] = e
	return true
}

func (d *Debouncer) fire(key string, e *entry) {
	defer d.wg.Done()

	d.mu.Lock()
	if d.entries[key] == e {
		delete(d.entries, key)
	}
	fn := e.fn
	stopped := d.stopped
	d.mu.Unlock()

	if !stopped {
		fn()
	}
}

// Pending reports whether a callback for key is waiting for its quiet period.
func (d *Debouncer) Pending(key string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	_, ok := d.entries[key]
	return ok
}

// Flush runs the pending callback for key immediately, on the caller's goroutine.
// It reports whether a callback was pending.
func (d *Debouncer) Flush(key string) bool {
	d.mu.Lock()
	e, ok := d.entries[key]
	if !ok || !e.timer.Stop() {
		d.mu.Unlock()
		return false
	}
	delete(d.entries, key)
	fn := e.fn
	d.mu.Unlock()

	defer d.wg.Done()
	fn()
	return true
}

// Stop cancels every pending callback and waits up to timeout for callbacks
// that already started. Later triggers are ignored.
func (d *Debouncer) Stop(timeout time.Duration) error {
	d.mu.Lock()
	d.stopped = true
	for key, e := range d.entries {
		if e.timer.Stop() {
			d.wg.Done()
		}
		delete(d.entries, key)
	}
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-time.After(timeout):
		return ErrStopTimeout
	}
}
