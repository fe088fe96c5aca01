// Package persist writes the current workspace snapshot to durable storage and
// reads it back at startup. Writes can be requested directly, debounced (bursts
// of edits collapse into one write after a quiet period) or throttled (at most one
// write per interval during continuous pointer gestures).
package persist

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/aretw0/lifecycle"

	"github.com/aretw0/pinboard/internal/schedule"
	"github.com/aretw0/pinboard/pkg/codec"
	"github.com/aretw0/pinboard/pkg/core"
)

const (
	// StateKey is the well-known key holding the workspace snapshot.
	StateKey = "appStateV1"

	DefaultDebounce = 220 * time.Millisecond
	DefaultThrottle = 250 * time.Millisecond
)

const debounceKey = "save"

// Capturer produces the current live snapshot.
type Capturer interface {
	Capture() core.Snapshot
}

// Gateway is the only writer of the workspace slot.
type Gateway struct {
	store     core.Store
	source    Capturer
	codec     codec.Codec
	key       string
	logger    *slog.Logger
	debouncer *schedule.Debouncer
	throttle  *schedule.Throttle
	clock     func() time.Time
	inflight  sync.WaitGroup

	// stampMu orders captures; writeMu serializes writes to the slot.
	stampMu sync.Mutex
	seq     uint64
	writeMu sync.Mutex
	written uint64

	mu       sync.Mutex
	saves    int
	failures int
	dropped  int
	lastErr  error
	lastSave *time.Time
}

// Option configures a Gateway.
type Option func(*Gateway)

// WithLogger sets the logger used to report failed saves and corrupt loads.
func WithLogger(logger *slog.Logger) Option {
	return func(g *Gateway) {
		if logger != nil {
			g.logger = logger
		}
	}
}

// WithKey overrides the storage key.
func WithKey(key string) Option {
	return func(g *Gateway) {
		g.key = key
	}
}

// WithDebounce sets the quiet period for RequestSave.
func WithDebounce(d time.Duration) Option {
	return func(g *Gateway) {
		g.debouncer = schedule.NewDebouncer(d)
	}
}

// WithThrottle sets the minimum spacing of throttled writes.
func WithThrottle(d time.Duration) Option {
	return func(g *Gateway) {
		g.throttle = schedule.NewThrottle(d)
	}
}

// WithClock replaces the time source of the throttle.
func WithClock(now func() time.Time) Option {
	return func(g *Gateway) {
		g.clock = now
	}
}

// New creates a Gateway storing snapshots captured from source in store.
func New(store core.Store, source Capturer, opts ...Option) *Gateway {
	g := &Gateway{
		store:     store,
		source:    source,
		codec:     codec.NewJSON(),
		key:       StateKey,
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
		debouncer: schedule.NewDebouncer(DefaultDebounce),
		throttle:  schedule.NewThrottle(DefaultThrottle),
	}
	for _, opt := range opts {
		opt(g)
	}
	if g.clock != nil {
		g.throttle.WithClock(g.clock)
	}
	return g
}

// Save writes snap, or the current live state when snap is nil, overwriting the
// previous value. Failures are logged and returned; live state is never touched.
func (g *Gateway) Save(ctx context.Context, snap *core.Snapshot) error {
	s, seq := g.stamp(snap)
	return g.write(ctx, s, seq)
}

// stamp resolves the snapshot to write and gives it the next sequence number.
func (g *Gateway) stamp(snap *core.Snapshot) (core.Snapshot, uint64) {
	g.stampMu.Lock()
	defer g.stampMu.Unlock()

	var s core.Snapshot
	if snap != nil {
		s = *snap
	} else {
		s = g.source.Capture()
	}
	g.seq++
	return s, g.seq
}

// write stores s unless a snapshot stamped later has already been written.
func (g *Gateway) write(ctx context.Context, s core.Snapshot, seq uint64) error {
	g.writeMu.Lock()
	defer g.writeMu.Unlock()

	if seq < g.written {
		g.mu.Lock()
		g.dropped++
		g.mu.Unlock()
		g.logger.Debug("dropping superseded save", "key", g.key, "seq", seq, "written", g.written)
		return nil
	}
	g.written = seq

	data, err := g.codec.Encode(s)
	if err == nil {
		err = g.store.Write(ctx, g.key, data)
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	if err != nil {
		g.failures++
		g.lastErr = err
		g.logger.Error("save failed", "key", g.key, "error", err)
		return fmt.Errorf("save %s: %w", g.key, err)
	}
	now := time.Now()
	g.saves++
	g.lastSave = &now
	g.logger.Debug("saved workspace", "key", g.key, "bytes", len(data), "notes", len(s.Draggables))
	return nil
}

// Load reads the stored snapshot. It returns nil, nil when nothing is stored and
// nil with an error wrapping core.ErrCorrupt when the stored value cannot be
// decoded; callers treat both as "no saved state".
func (g *Gateway) Load(ctx context.Context) (*core.Snapshot, error) {
	data, err := g.store.Read(ctx, g.key)
	if errors.Is(err, core.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		g.logger.Error("load failed", "key", g.key, "error", err)
		return nil, fmt.Errorf("load %s: %w", g.key, err)
	}

	s, err := g.codec.Decode(data)
	if err != nil {
		g.logger.Error("stored state is corrupt, starting empty", "key", g.key, "error", err)
		return nil, fmt.Errorf("%w: %v", core.ErrCorrupt, err)
	}
	return &s, nil
}

// RequestSave schedules a save once no further request arrived for the quiet period.
// The state is captured when the save fires.
func (g *Gateway) RequestSave() {
	g.debouncer.Trigger(debounceKey, func() {
		_ = g.Save(context.Background(), nil)
	})
}

// RequestThrottledSave captures and writes the current state unless a throttled
// write already happened within the interval. It reports whether a write was started.
// The write itself runs in the background and is dropped if any save requested
// after it has already reached the store.
func (g *Gateway) RequestThrottledSave(ctx context.Context) bool {
	if !g.throttle.Allow() {
		return false
	}

	snap, seq := g.stamp(nil)
	g.inflight.Add(1)
	lifecycle.Go(context.WithoutCancel(ctx), func(ctx context.Context) error {
		defer g.inflight.Done()
		return g.write(ctx, snap, seq)
	}, lifecycle.WithErrorHandler(func(err error) {
		g.logger.Error("throttled save", "error", err)
	}))
	return true
}

// Pending reports whether a debounced save is waiting to fire.
func (g *Gateway) Pending() bool {
	return g.debouncer.Pending(debounceKey)
}

// Flush runs a pending debounced save now and waits for background writes.
func (g *Gateway) Flush(ctx context.Context) error {
	g.debouncer.Flush(debounceKey)

	done := make(chan struct{})
	go func() {
		g.inflight.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close flushes pending work and stops accepting debounced requests.
func (g *Gateway) Close(ctx context.Context) error {
	if err := g.Flush(ctx); err != nil {
		return err
	}
	return g.debouncer.Stop(5 * time.Second)
}

// Put stores an auxiliary value (e.g. undo history) next to the workspace.
func (g *Gateway) Put(ctx context.Context, key string, data []byte) error {
	if key == g.key {
		return fmt.Errorf("key %s is reserved for the workspace snapshot", key)
	}
	if err := g.store.Write(ctx, key, data); err != nil {
		g.logger.Error("write failed", "key", key, "error", err)
		return err
	}
	return nil
}

// Get reads an auxiliary value; absent keys return core.ErrNotFound.
func (g *Gateway) Get(ctx context.Context, key string) ([]byte, error) {
	return g.store.Read(ctx, key)
}
