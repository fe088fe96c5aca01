package workspace

import (
	"context"
	"fmt"
	"image"
	"math"
	"math/rand/v2"

	"github.com/aretw0/pinboard/pkg/canvas"
	"github.com/aretw0/pinboard/pkg/core"
)

// NoteSpec describes a note to create. Zero values take the defaults of a note
// added from the toolbar: a random position near the top-left corner, 250x105,
// yellow.
type NoteSpec struct {
	Position *image.Point
	Width    int
	Height   int
	Text     [4]string
	Color    string
}

// AddNote creates a note on top of every other note and returns its ID.
// Drawing mode is switched off.
func (s *Session) AddNote(spec NoteSpec) (string, error) {
	for _, t := range spec.Text {
		if err := core.ValidateText(t); err != nil {
			return "", err
		}
	}

	n := core.Note{
		Width:           spec.Width,
		Height:          spec.Height,
		Text1:           spec.Text[0],
		Text2:           spec.Text[1],
		Text3:           spec.Text[2],
		Text4:           spec.Text[3],
		BackgroundColor: spec.Color,
	}
	if spec.Position != nil {
		n.Left, n.Top = spec.Position.X, spec.Position.Y
	} else {
		n.Left, n.Top = 80+rand.IntN(120), 80+rand.IntN(120)
	}
	if n.Width <= 0 {
		n.Width = core.DefaultNoteWidth
	}
	if n.Height <= 0 {
		n.Height = NewNoteHeight
	}
	n.Width = max(n.Width, core.MinNoteWidth)
	n.Height = max(n.Height, core.MinNoteHeight)
	if n.BackgroundColor == "" {
		n.BackgroundColor = DefaultNoteColor
	}

	s.setPen(false)
	if err := s.history.RecordPoint(); err != nil {
		return "", err
	}
	id := s.doc.AddNote(n)
	s.logger.Debug("note added", "id", id, "left", n.Left, "top", n.Top)
	s.gateway.RequestSave()
	return id, nil
}

// DeleteNote removes a note.
func (s *Session) DeleteNote(id string) error {
	if _, err := s.doc.Note(id); err != nil {
		return err
	}
	if err := s.history.RecordPoint(); err != nil {
		return err
	}
	if err := s.doc.RemoveNote(id); err != nil {
		return err
	}

	s.mu.Lock()
	if s.selected == id {
		s.selected = ""
	}
	s.mu.Unlock()

	s.gateway.RequestSave()
	return nil
}

// DeleteSelected removes the selected note.
func (s *Session) DeleteSelected() error {
	id := s.Selected()
	if id == "" {
		return fmt.Errorf("%w: nothing selected", core.ErrNoteNotFound)
	}
	return s.DeleteNote(id)
}

// Select marks a note as the target of colour changes and DeleteSelected.
func (s *Session) Select(id string) error {
	if _, err := s.doc.Note(id); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selected = id
	return nil
}

// Selected returns the selected note ID, or "".
func (s *Session) Selected() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selected
}

// BeginDrag starts moving a note: it records an undo point, raises the note and selects it.
func (s *Session) BeginDrag(id string) error {
	if _, err := s.doc.Note(id); err != nil {
		return err
	}
	if err := s.history.RecordPoint(); err != nil {
		return err
	}
	if err := s.doc.RaiseNote(id); err != nil {
		return err
	}

	s.mu.Lock()
	s.selected = id
	s.gesture = id
	s.mu.Unlock()
	return nil
}

// DragTo moves a note so that its top-left corner is near (left, top): the
// position snaps to the grid and stays inside the viewport. The result is saved
// at most once per throttle interval.
func (s *Session) DragTo(ctx context.Context, id string, left, top int) error {
	err := s.doc.UpdateNote(id, func(n *core.Note) error {
		n.Left = clamp(snap(left, s.opts.gridSize), n.Width, s.opts.viewport.X)
		n.Top = clamp(snap(top, s.opts.gridSize), n.Height, s.opts.viewport.Y)
		return nil
	})
	if err != nil {
		return err
	}
	s.gateway.RequestThrottledSave(ctx)
	return nil
}

// BeginResize starts resizing a note and records an undo point.
func (s *Session) BeginResize(id string) error {
	if _, err := s.doc.Note(id); err != nil {
		return err
	}
	if err := s.history.RecordPoint(); err != nil {
		return err
	}

	s.mu.Lock()
	s.gesture = id
	s.mu.Unlock()
	return nil
}

// ResizeTo sets a note's size, never below the minimum note size.
func (s *Session) ResizeTo(ctx context.Context, id string, width, height int) error {
	err := s.doc.UpdateNote(id, func(n *core.Note) error {
		n.Width = max(width, core.MinNoteWidth)
		n.Height = max(height, core.MinNoteHeight)
		return nil
	})
	if err != nil {
		return err
	}
	s.gateway.RequestThrottledSave(ctx)
	return nil
}

// EndGesture finishes a drag or resize and schedules a debounced save.
func (s *Session) EndGesture() {
	s.mu.Lock()
	active := s.gesture != ""
	s.gesture = ""
	s.mu.Unlock()

	if active {
		s.gateway.RequestSave()
	}
}

// BeginEdit records an undo point before a block of text edits.
func (s *Session) BeginEdit(id string) error {
	if _, err := s.doc.Note(id); err != nil {
		return err
	}
	return s.history.RecordPoint()
}

// EditText sets text field 1..4 of a note. Typing does not record undo points;
// the change is saved after the debounce period.
func (s *Session) EditText(id string, field int, value string) error {
	if err := core.ValidateText(value); err != nil {
		return err
	}
	err := s.doc.UpdateNote(id, func(n *core.Note) error {
		return n.SetText(field, value)
	})
	if err != nil {
		return err
	}
	s.gateway.RequestSave()
	return nil
}

// SetColor sets the pen colour and, when a note is selected, its background.
func (s *Session) SetColor(color string) error {
	if _, err := canvas.ParseColor(color); err != nil {
		return err
	}

	s.mu.Lock()
	s.penColor = color
	selected := s.selected
	s.mu.Unlock()

	if selected == "" {
		return nil
	}
	err := s.doc.UpdateNote(selected, func(n *core.Note) error {
		n.BackgroundColor = color
		return nil
	})
	if err != nil {
		return err
	}
	s.gateway.RequestSave()
	return nil
}

func snap(v, grid int) int {
	if grid < 1 {
		return v
	}
	return int(math.Round(float64(v)/float64(grid))) * grid
}

// clamp keeps a span of the given size starting at v inside [0, bound].
// A zero bound only enforces the lower edge.
func clamp(v, size, bound int) int {
	if bound > 0 {
		v = min(v, bound-size)
	}
	return max(v, 0)
}
