// Package history implements bounded, whole-document undo and redo.
//
// Each recorded point is a serialized snapshot. Only discrete actions (creating,
// deleting, starting a drag or resize, importing...) record a point before they
// mutate; the continuous updates that follow are coalesced into that one point.
package history

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/aretw0/pinboard/pkg/codec"
	"github.com/aretw0/pinboard/pkg/core"
)

// DefaultLimit is the maximum number of undo entries kept.
const DefaultLimit = 100

// Model is the live document history travels over.
type Model interface {
	Capture() core.Snapshot
	Restore(ctx context.Context, s core.Snapshot) uint64
}

// Persister stores the state reached by an undo or redo.
type Persister interface {
	Save(ctx context.Context, s *core.Snapshot) error
}

// Stacks is the serializable content of a Manager, oldest entry first.
type Stacks struct {
	Undo []string `json:"undo"`
	Redo []string `json:"redo"`
}

// Manager keeps the undo and redo stacks.
type Manager struct {
	model     Model
	persister Persister
	codec     codec.Codec
	limit     int
	logger    *slog.Logger

	mu   sync.Mutex
	undo []string
	redo []string
}

// Option configures a Manager.
type Option func(*Manager)

// WithLimit caps the undo stack. Values below 1 are ignored.
func WithLimit(n int) Option {
	return func(m *Manager) {
		if n >= 1 {
			m.limit = n
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// New creates a Manager over model. persister may be nil, in which case undo
// and redo only touch the live model.
func New(model Model, persister Persister, opts ...Option) *Manager {
	m := &Manager{
		model:     model,
		persister: persister,
		codec:     codec.NewJSON(),
		limit:     DefaultLimit,
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// RecordPoint captures the live state and pushes it onto the undo stack,
// evicting the oldest entry beyond the limit. Any redo history is discarded.
func (m *Manager) RecordPoint() error {
	entry, err := m.captureEntry()
	if err != nil {
		m.logger.Error("record point failed", "error", err)
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.undo = m.push(m.undo, entry)
	m.redo = nil
	return nil
}

// Undo restores the most recently recorded point. The state being left is
// pushed onto the redo stack.
func (m *Manager) Undo(ctx context.Context) error {
	return m.travel(ctx, &m.undo, &m.redo, core.ErrNothingToUndo, "undo")
}

// Redo restores the state most recently left by Undo.
func (m *Manager) Redo(ctx context.Context) error {
	return m.travel(ctx, &m.redo, &m.undo, core.ErrNothingToRedo, "redo")
}

func (m *Manager) travel(ctx context.Context, from, to *[]string, empty error, op string) error {
	m.mu.Lock()
	if len(*from) == 0 {
		m.mu.Unlock()
		return empty
	}
	m.mu.Unlock()

	current, err := m.captureEntry()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	m.mu.Lock()
	n := len(*from)
	if n == 0 {
		m.mu.Unlock()
		return empty
	}
	entry := (*from)[n-1]
	(*from)[n-1] = ""
	*from = (*from)[:n-1]

	target, err := m.codec.Decode([]byte(entry))
	if err != nil {
		m.mu.Unlock()
		m.logger.Error(op+" entry is corrupt, discarded", "error", err)
		return fmt.Errorf("%s: %w: %v", op, core.ErrCorrupt, err)
	}
	*to = m.push(*to, current)
	m.mu.Unlock()

	m.model.Restore(ctx, target)
	m.logger.Debug(op, "notes", len(target.Draggables))

	if m.persister != nil {
		// A failed write never rolls back the time travel; the gateway logs it.
		_ = m.persister.Save(ctx, &target)
	}
	return nil
}

func (m *Manager) captureEntry() (string, error) {
	data, err := m.codec.Encode(m.model.Capture())
	if err != nil {
		return "", fmt.Errorf("serialize snapshot: %w", err)
	}
	return string(data), nil
}

// push appends entry and drops the oldest entries beyond the limit.
func (m *Manager) push(stack []string, entry string) []string {
	stack = append(stack, entry)
	if over := len(stack) - m.limit; over > 0 {
		n := copy(stack, stack[over:])
		clear(stack[n:])
		stack = stack[:n]
	}
	return stack
}

// CanUndo reports whether Undo has anything to restore.
func (m *Manager) CanUndo() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.undo) > 0
}

// CanRedo reports whether Redo has anything to restore.
func (m *Manager) CanRedo() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.redo) > 0
}

// Len returns the sizes of the undo and redo stacks.
func (m *Manager) Len() (undo, redo int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.undo), len(m.redo)
}

// Limit returns the undo stack cap.
func (m *Manager) Limit() int {
	return m.limit
}

// Stacks returns a copy of both stacks.
func (m *Manager) Stacks() Stacks {
	m.mu.Lock()
	defer m.mu.Unlock()
	return Stacks{
		Undo: append([]string{}, m.undo...),
		Redo: append([]string{}, m.redo...),
	}
}

// Load replaces both stacks, keeping only the newest entries within the limit.
func (m *Manager) Load(s Stacks) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.undo = nil
	m.redo = nil
	for _, e := range s.Undo {
		m.undo = m.push(m.undo, e)
	}
	for _, e := range s.Redo {
		m.redo = m.push(m.redo, e)
	}
}
