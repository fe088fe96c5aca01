// Package workspace is the interaction layer of a pinboard: a Session owns the
// live document, its undo history and the persistence gateway, and turns user
// gestures (add, drag, resize, draw, erase...) into document mutations with the
// right undo points and save scheduling.
package workspace

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"io"
	"log/slog"
	"sync"

	"github.com/aretw0/pinboard/pkg/canvas"
	"github.com/aretw0/pinboard/pkg/codec"
	"github.com/aretw0/pinboard/pkg/core"
	"github.com/aretw0/pinboard/pkg/history"
	"github.com/aretw0/pinboard/pkg/persist"
)

// Session is one open workspace.
type Session struct {
	doc     *core.Document
	history *history.Manager
	gateway *persist.Gateway
	logger  *slog.Logger
	opts    options

	mu       sync.Mutex
	selected string
	gesture  string
	penOn    bool
	penColor string

	// penMu guards the drawing surface; Capture takes it from timer goroutines.
	penMu   sync.Mutex
	surface *canvas.Surface
	stroke  []image.Point
	dirty   bool
}

// New creates a session persisting to store. Call Open before use.
func New(store core.Store, opts ...Option) *Session {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}
	if o.logger == nil {
		o.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	s := &Session{
		logger:   o.logger,
		opts:     *o,
		penColor: DefaultPenColor,
	}
	s.doc = core.NewDocument(
		core.WithDecoder(canvas.DecodeDataURI),
		core.WithDocumentLogger(o.logger),
	)

	gwOpts := []persist.Option{persist.WithLogger(o.logger)}
	if o.debounce > 0 {
		gwOpts = append(gwOpts, persist.WithDebounce(o.debounce))
	}
	if o.throttle > 0 {
		gwOpts = append(gwOpts, persist.WithThrottle(o.throttle))
	}
	if o.clock != nil {
		gwOpts = append(gwOpts, persist.WithClock(o.clock))
	}
	s.gateway = persist.New(store, s, gwOpts...)

	s.history = history.New(s, s.gateway,
		history.WithLimit(o.historyLimit),
		history.WithLogger(o.logger),
	)
	return s
}

// Open loads the stored workspace. Missing or corrupt state yields an empty
// workspace. Unless history was reloaded, the opened state becomes the first
// undo point.
func (s *Session) Open(ctx context.Context) error {
	snap, err := s.gateway.Load(ctx)
	if err != nil && !errors.Is(err, core.ErrCorrupt) {
		return err
	}
	if snap != nil {
		s.Restore(ctx, *snap)
	}

	if s.opts.persistHistory && s.loadHistory(ctx) {
		return nil
	}
	return s.history.RecordPoint()
}

func (s *Session) loadHistory(ctx context.Context) bool {
	data, err := s.gateway.Get(ctx, HistoryKey)
	if errors.Is(err, core.ErrNotFound) {
		return false
	}
	if err != nil {
		s.logger.Warn("history unavailable", "error", err)
		return false
	}

	var stacks history.Stacks
	if err := json.Unmarshal(data, &stacks); err != nil {
		s.logger.Warn("stored history is corrupt, starting fresh", "error", err)
		return false
	}
	if len(stacks.Undo) == 0 && len(stacks.Redo) == 0 {
		return false
	}
	s.history.Load(stacks)
	return true
}

// Close commits pending drawing, flushes scheduled writes and, when enabled,
// stores the undo history.
func (s *Session) Close(ctx context.Context) error {
	s.EndStroke()

	if err := s.gateway.Close(ctx); err != nil {
		return fmt.Errorf("flush workspace: %w", err)
	}
	if !s.opts.persistHistory {
		return nil
	}

	data, err := json.Marshal(s.history.Stacks())
	if err != nil {
		return fmt.Errorf("serialize history: %w", err)
	}
	return s.gateway.Put(ctx, HistoryKey, data)
}

// Capture returns the live snapshot, including any stroke still being drawn.
func (s *Session) Capture() core.Snapshot {
	s.penMu.Lock()
	s.commitLocked()
	s.penMu.Unlock()
	return s.doc.Capture()
}

// Restore replaces the live state with snap. It drops the cached drawing surface
// so that the next stroke starts from the restored drawing.
func (s *Session) Restore(ctx context.Context, snap core.Snapshot) uint64 {
	s.penMu.Lock()
	s.surface = nil
	s.stroke = nil
	s.dirty = false
	s.penMu.Unlock()

	s.mu.Lock()
	s.selected = ""
	s.gesture = ""
	s.mu.Unlock()

	return s.doc.Restore(ctx, snap)
}

// Undo restores the previous undo point. In-flight drawing decodes finish first.
func (s *Session) Undo(ctx context.Context) error {
	if err := s.doc.Settle(ctx); err != nil {
		return err
	}
	return s.history.Undo(ctx)
}

// Redo reapplies the state left by the last Undo.
func (s *Session) Redo(ctx context.Context) error {
	if err := s.doc.Settle(ctx); err != nil {
		return err
	}
	return s.history.Redo(ctx)
}

// Export writes the live workspace to w in the given format ("xml", "json", "yaml").
func (s *Session) Export(w io.Writer, format string) error {
	c, err := codec.ForFormat(format)
	if err != nil {
		return err
	}
	data, err := c.Encode(s.Capture())
	if err != nil {
		return fmt.Errorf("export: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("export: %w", err)
	}
	return nil
}

// Import replaces the workspace with the document read from r. The document is
// decoded and validated completely before anything changes; on failure the live
// state is untouched. Text that could not be exported as XML is rejected.
// A successful import is one undoable step and is saved immediately.
func (s *Session) Import(ctx context.Context, r io.Reader, format string) error {
	c, err := codec.ForFormat(format)
	if err != nil {
		return err
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("import: %w", err)
	}
	snap, err := c.Decode(data)
	if err == nil {
		if verr := snap.Validate(); verr != nil {
			err = fmt.Errorf("%w: %w", core.ErrParse, verr)
		}
	}
	if err != nil {
		s.logger.Error("import failed", "format", format, "error", err)
		return fmt.Errorf("import: %w", err)
	}

	s.EndStroke()
	if err := s.history.RecordPoint(); err != nil {
		return err
	}
	s.Restore(ctx, snap)
	s.logger.Info("workspace imported", "format", format, "notes", len(snap.Draggables))

	// Persist failures are logged by the gateway and leave the import in place.
	_ = s.gateway.Save(ctx, &snap)
	return nil
}

// Flush writes any pending debounced save now.
func (s *Session) Flush(ctx context.Context) error {
	return s.gateway.Flush(ctx)
}

// Notes returns the live notes in creation order.
func (s *Session) Notes() []core.LiveNote {
	return s.doc.Notes()
}

// NoteAt returns the i-th note (1-based, creation order).
func (s *Session) NoteAt(i int) (core.LiveNote, error) {
	notes := s.doc.Notes()
	if i < 1 || i > len(notes) {
		return core.LiveNote{}, fmt.Errorf("%w: no note #%d (have %d)", core.ErrNoteNotFound, i, len(notes))
	}
	return notes[i-1], nil
}

// Document returns the live document.
func (s *Session) Document() *core.Document {
	return s.doc
}

// History returns the undo manager.
func (s *Session) History() *history.Manager {
	return s.history
}

// Gateway returns the persistence gateway.
func (s *Session) Gateway() *persist.Gateway {
	return s.gateway
}

var (
	_ persist.Capturer = (*Session)(nil)
	_ history.Model    = (*Session)(nil)
)
