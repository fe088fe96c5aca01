package core

import (
	"context"
	"fmt"
	"image"
	"io"
	"log/slog"
	"sync"

	"github.com/aretw0/lifecycle"
	"github.com/google/uuid"
)

// DecodeFunc turns an encoded drawing into a raster. It runs off the caller's goroutine.
type DecodeFunc func(encoded string) (image.Image, error)

// LiveNote is a note on the live document together with its runtime handle.
// The ID is assigned on creation and never serialized.
type LiveNote struct {
	ID string
	Note
}

// Document is the live workspace: the notes in creation order, the painted drawing,
// the background and the theme. It owns the stacking counter so that new notes
// always land above restored ones.
type Document struct {
	mu         sync.Mutex
	notes      []*LiveNote
	drawing    string
	raster     image.Image
	background string
	darkMode   bool
	zCounter   int
	token      uint64

	decode   DecodeFunc
	logger   *slog.Logger
	decoding int        // in-flight drawing decodes, guarded by mu
	idle     *sync.Cond // signalled when decoding drops to zero
}

// DocumentOption configures a Document.
type DocumentOption func(*Document)

// WithDecoder sets the function used to decode drawings during Restore.
// Without one, drawings are treated as opaque and accepted as is.
func WithDecoder(fn DecodeFunc) DocumentOption {
	return func(d *Document) {
		d.decode = fn
	}
}

// WithDocumentLogger sets the logger used to report decode failures.
func WithDocumentLogger(logger *slog.Logger) DocumentOption {
	return func(d *Document) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// NewDocument creates an empty document.
func NewDocument(opts ...DocumentOption) *Document {
	d := &Document{
		zCounter: 1,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	d.idle = sync.NewCond(&d.mu)
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// waitDecodesLocked blocks until no drawing decode is in flight. d.mu must be held.
func (d *Document) waitDecodesLocked() {
	for d.decoding > 0 {
		d.idle.Wait()
	}
}

func (d *Document) decodeDone() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.decoding--
	if d.decoding == 0 {
		d.idle.Broadcast()
	}
}

// Capture returns a snapshot of the live state. Pending drawing decodes are
// awaited first so the drawing in the snapshot is the one on screen.
func (d *Document) Capture() Snapshot {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.waitDecodesLocked()

	snap := Snapshot{
		Draggables:      make([]Note, 0, len(d.notes)),
		DarkMode:        d.darkMode,
		BackgroundImage: d.background,
		Drawing:         d.drawing,
	}
	for _, n := range d.notes {
		snap.Draggables = append(snap.Draggables, n.Note)
	}
	return snap
}

// Restore replaces the whole live state with snap. Notes, drawing and background
// are cleared before the snapshot is applied. The drawing is decoded
// asynchronously; the returned token identifies this restore, and a decode that
// finishes after a newer restore is discarded.
func (d *Document) Restore(ctx context.Context, snap Snapshot) uint64 {
	d.mu.Lock()
	d.notes = d.notes[:0]
	d.drawing = ""
	d.raster = nil

	for _, n := range snap.Draggables {
		d.notes = append(d.notes, &LiveNote{ID: uuid.NewString(), Note: n})
	}
	d.zCounter = snap.MaxZ()
	d.background = snap.BackgroundImage
	d.darkMode = snap.DarkMode

	d.token++
	token := d.token
	async := snap.Drawing != "" && d.decode != nil
	if async {
		d.decoding++
	}
	d.mu.Unlock()

	switch {
	case async:
		d.decodeDrawing(ctx, token, snap.Drawing)
	case snap.Drawing != "":
		d.applyDrawing(token, snap.Drawing, nil)
	}
	return token
}

// decodeDrawing runs the decoder in the background. The caller has already
// counted it in d.decoding.
func (d *Document) decodeDrawing(ctx context.Context, token uint64, encoded string) {
	lifecycle.Go(context.WithoutCancel(ctx), func(ctx context.Context) error {
		defer d.decodeDone()
		img, err := d.decode(encoded)
		if err != nil {
			d.logger.Debug("drawing decode failed, leaving canvas blank", "token", token, "error", err)
			return nil
		}
		d.applyDrawing(token, encoded, img)
		return nil
	}, lifecycle.WithErrorHandler(func(err error) {
		d.logger.Error("drawing decode panic", "token", token, "error", err)
	}))
}

func (d *Document) applyDrawing(token uint64, encoded string, img image.Image) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if token != d.token {
		d.logger.Debug("discarding stale drawing decode", "token", token, "latest", d.token)
		return
	}
	d.drawing = encoded
	d.raster = img
}

// Settle blocks until every in-flight drawing decode has finished or ctx is done.
func (d *Document) Settle(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		d.mu.Lock()
		d.waitDecodesLocked()
		d.mu.Unlock()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// AddNote appends a note. A note without a stacking order is placed on top.
// It returns the runtime ID of the new note.
func (d *Document) AddNote(n Note) string {
	d.mu.Lock()
	defer d.mu.Unlock()

	if n.Z <= 0 {
		d.zCounter++
		n.Z = d.zCounter
	}
	ln := &LiveNote{ID: uuid.NewString(), Note: n}
	d.notes = append(d.notes, ln)
	return ln.ID
}

// RemoveNote deletes the note with the given ID.
func (d *Document) RemoveNote(id string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	for i, n := range d.notes {
		if n.ID == id {
			d.notes = append(d.notes[:i], d.notes[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("%w: %s", ErrNoteNotFound, id)
}

// Note returns a copy of the note with the given ID.
func (d *Document) Note(id string) (LiveNote, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if n := d.find(id); n != nil {
		return *n, nil
	}
	return LiveNote{}, fmt.Errorf("%w: %s", ErrNoteNotFound, id)
}

// UpdateNote applies fn to the note with the given ID.
func (d *Document) UpdateNote(id string, fn func(*Note) error) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	n := d.find(id)
	if n == nil {
		return fmt.Errorf("%w: %s", ErrNoteNotFound, id)
	}
	updated := n.Note
	if err := fn(&updated); err != nil {
		return err
	}
	n.Note = updated
	return nil
}

// RaiseNote moves the note above every other note.
func (d *Document) RaiseNote(id string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	n := d.find(id)
	if n == nil {
		return fmt.Errorf("%w: %s", ErrNoteNotFound, id)
	}
	d.zCounter++
	n.Z = d.zCounter
	return nil
}

func (d *Document) find(id string) *LiveNote {
	for _, n := range d.notes {
		if n.ID == id {
			return n
		}
	}
	return nil
}

// Notes returns copies of the live notes in creation order.
func (d *Document) Notes() []LiveNote {
	d.mu.Lock()
	defer d.mu.Unlock()

	out := make([]LiveNote, len(d.notes))
	for i, n := range d.notes {
		out[i] = *n
	}
	return out
}

// Len returns the number of live notes.
func (d *Document) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.notes)
}

// ClearNotes removes every note.
func (d *Document) ClearNotes() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.notes = d.notes[:0]
}

// ZCounter returns the current stacking counter.
func (d *Document) ZCounter() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.zCounter
}

// SetDrawing replaces the painted drawing. img may be nil when only the encoded form is known.
// Any decode still in flight is superseded.
func (d *Document) SetDrawing(encoded string, img image.Image) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.token++
	d.drawing = encoded
	d.raster = img
}

// ClearDrawing blanks the drawing surface.
func (d *Document) ClearDrawing() {
	d.SetDrawing("", nil)
}

// Drawing returns the encoded drawing and its raster, if decoded.
func (d *Document) Drawing() (string, image.Image) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.waitDecodesLocked()
	return d.drawing, d.raster
}

// SetBackground sets the CSS background-image value; "" removes it.
func (d *Document) SetBackground(value string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.background = value
}

// Background returns the CSS background-image value.
func (d *Document) Background() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.background
}

// SetDarkMode sets the theme flag.
func (d *Document) SetDarkMode(dark bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.darkMode = dark
}

// DarkMode reports the theme flag.
func (d *Document) DarkMode() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.darkMode
}
