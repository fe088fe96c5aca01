package workspace_test

import (
	"bytes"
	"context"
	"errors"
	"image"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/pinboard/pkg/adapters/memory"
	"github.com/aretw0/pinboard/pkg/codec"
	"github.com/aretw0/pinboard/pkg/core"
	"github.com/aretw0/pinboard/pkg/persist"
	"github.com/aretw0/pinboard/pkg/workspace"
)

func openSession(t *testing.T, store core.Store, opts ...workspace.Option) *workspace.Session {
	t.Helper()
	opts = append([]workspace.Option{workspace.WithDebounce(10 * time.Millisecond)}, opts...)
	s := workspace.New(store, opts...)
	require.NoError(t, s.Open(context.Background()))
	return s
}

func storedSnapshot(t *testing.T, store core.Store) core.Snapshot {
	t.Helper()
	data, err := store.Read(context.Background(), persist.StateKey)
	require.NoError(t, err)
	snap, err := codec.NewJSON().Decode(data)
	require.NoError(t, err)
	return snap
}

func at(x, y int) *image.Point {
	p := image.Pt(x, y)
	return &p
}

func TestSession_OpenEmpty(t *testing.T) {
	s := openSession(t, memory.NewStore(0))

	assert.Empty(t, s.Notes())
	assert.True(t, s.History().CanUndo(), "opening records the initial point")
}

func TestSession_AddNoteDefaults(t *testing.T) {
	s := openSession(t, memory.NewStore(0))
	s.TogglePen()
	require.True(t, s.PenEnabled())

	id, err := s.AddNote(workspace.NoteSpec{})
	require.NoError(t, err)
	assert.False(t, s.PenEnabled(), "adding a note leaves drawing mode")

	n, err := s.Document().Note(id)
	require.NoError(t, err)
	assert.Equal(t, 250, n.Width)
	assert.Equal(t, 105, n.Height)
	assert.Equal(t, "#f6e58d", n.BackgroundColor)
	assert.Equal(t, 2, n.Z)
	assert.GreaterOrEqual(t, n.Left, 80)
	assert.Less(t, n.Left, 200)
}

func TestSession_UndoRedoAdd(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore(0)
	s := openSession(t, store)

	_, err := s.AddNote(workspace.NoteSpec{Position: at(10, 10), Text: [4]string{"a"}})
	require.NoError(t, err)

	require.NoError(t, s.Undo(ctx))
	assert.Empty(t, s.Notes())
	assert.Empty(t, storedSnapshot(t, store).Draggables, "undo persists the restored state")

	require.NoError(t, s.Redo(ctx))
	require.Len(t, s.Notes(), 1)
	assert.Equal(t, "a", s.Notes()[0].Text1)

	require.NoError(t, s.Undo(ctx))
	require.NoError(t, s.Undo(ctx))
	assert.ErrorIs(t, s.Undo(ctx), core.ErrNothingToUndo)
}

func TestSession_ExportImportCDATA(t *testing.T) {
	ctx := context.Background()
	src := openSession(t, memory.NewStore(0))
	_, err := src.AddNote(workspace.NoteSpec{
		Position: at(80, 80),
		Width:    250,
		Height:   105,
		Text:     [4]string{"abc]]>def"},
	})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, src.Export(&buf, "xml"))
	assert.True(t, strings.HasPrefix(buf.String(), `<?xml version="1.0" encoding="utf-8"?>`))

	store := memory.NewStore(0)
	dst := openSession(t, store)
	require.NoError(t, dst.Import(ctx, &buf, "xml"))

	notes := dst.Notes()
	require.Len(t, notes, 1)
	assert.Equal(t, "abc]]>def", notes[0].Text1)
	assert.Equal(t, core.Note{Left: 80, Top: 80, Width: 250, Height: 105, Text1: "abc]]>def", BackgroundColor: "#f6e58d", Z: 2}, notes[0].Note)
	assert.True(t, dst.Capture().Equal(storedSnapshot(t, store)), "import saves immediately")

	require.NoError(t, dst.Undo(ctx))
	assert.Empty(t, dst.Notes(), "import is one undo step")
}

func TestSession_ImportFailureLeavesState(t *testing.T) {
	ctx := context.Background()
	s := openSession(t, memory.NewStore(0))
	_, err := s.AddNote(workspace.NoteSpec{Text: [4]string{"keep"}})
	require.NoError(t, err)

	before := s.Capture()
	undo, redo := s.History().Len()

	for _, input := range []string{
		"<workspace><draggables>",
		`<workspace><draggables><draggable left="ten"/></draggables></workspace>`,
		"not xml at all",
	} {
		err := s.Import(ctx, strings.NewReader(input), "xml")
		assert.ErrorIs(t, err, core.ErrParse, input)
	}

	assert.True(t, before.Equal(s.Capture()))
	u, r := s.History().Len()
	assert.Equal(t, undo, u)
	assert.Equal(t, redo, r)
}

func TestSession_DragSnapsAndClamps(t *testing.T) {
	ctx := context.Background()
	s := openSession(t, memory.NewStore(0), workspace.WithGridSize(20), workspace.WithViewport(1000, 800))
	id, err := s.AddNote(workspace.NoteSpec{Position: at(100, 100)})
	require.NoError(t, err)

	require.NoError(t, s.BeginDrag(id))
	assert.Equal(t, id, s.Selected())

	require.NoError(t, s.DragTo(ctx, id, 33, 47))
	n, _ := s.Document().Note(id)
	assert.Equal(t, 40, n.Left)
	assert.Equal(t, 40, n.Top)
	assert.Equal(t, 3, n.Z, "dragging raises the note")

	require.NoError(t, s.DragTo(ctx, id, 990, -15))
	n, _ = s.Document().Note(id)
	assert.Equal(t, 750, n.Left)
	assert.Equal(t, 0, n.Top)
	s.EndGesture()

	require.NoError(t, s.Undo(ctx))
	notes := s.Notes()
	require.Len(t, notes, 1)
	assert.Equal(t, 100, notes[0].Left, "the whole drag is one undo step")
	assert.Empty(t, s.Selected())
}

func TestSession_ResizeMinimum(t *testing.T) {
	ctx := context.Background()
	s := openSession(t, memory.NewStore(0))
	id, err := s.AddNote(workspace.NoteSpec{})
	require.NoError(t, err)

	require.NoError(t, s.BeginResize(id))
	require.NoError(t, s.ResizeTo(ctx, id, 20, 10))
	s.EndGesture()

	n, _ := s.Document().Note(id)
	assert.Equal(t, 100, n.Width)
	assert.Equal(t, 50, n.Height)

	assert.ErrorIs(t, s.ResizeTo(ctx, "missing", 300, 300), core.ErrNoteNotFound)
}

func TestSession_ThrottledDragSaves(t *testing.T) {
	ctx := context.Background()
	now := time.Unix(1000, 0)
	store := memory.NewStore(0)
	s := openSession(t, store, workspace.WithClock(func() time.Time { return now }), workspace.WithGridSize(1))
	id, err := s.AddNote(workspace.NoteSpec{Position: at(0, 0)})
	require.NoError(t, err)
	require.NoError(t, s.Flush(ctx))

	require.NoError(t, s.BeginDrag(id))
	require.NoError(t, s.DragTo(ctx, id, 10, 10))
	require.NoError(t, s.DragTo(ctx, id, 20, 20))
	require.NoError(t, s.Flush(ctx))

	stored := storedSnapshot(t, store)
	require.Len(t, stored.Draggables, 1)
	assert.Equal(t, 10, stored.Draggables[0].Left, "second move fell inside the throttle window")
}

func TestSession_EditTextDebounced(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore(0)
	s := openSession(t, store, workspace.WithDebounce(time.Hour))
	id, err := s.AddNote(workspace.NoteSpec{})
	require.NoError(t, err)
	undo, _ := s.History().Len()

	require.NoError(t, s.EditText(id, 3, "third"))
	require.NoError(t, s.EditText(id, 3, "third field"))
	assert.True(t, s.Gateway().Pending())

	_, err = store.Read(ctx, persist.StateKey)
	assert.ErrorIs(t, err, core.ErrNotFound, "nothing written before the quiet period")

	require.NoError(t, s.Flush(ctx))
	assert.Equal(t, "third field", storedSnapshot(t, store).Draggables[0].Text3)

	after, _ := s.History().Len()
	assert.Equal(t, undo, after, "typing records no undo point")

	assert.Error(t, s.EditText(id, 5, "x"))
	assert.ErrorIs(t, s.EditText(id, 1, "a\rb"), core.ErrInvalidSnapshot)
}

func TestSession_SetColor(t *testing.T) {
	s := openSession(t, memory.NewStore(0))
	id, err := s.AddNote(workspace.NoteSpec{})
	require.NoError(t, err)

	require.NoError(t, s.SetColor("#ff0000"))
	n, _ := s.Document().Note(id)
	assert.Equal(t, "#f6e58d", n.BackgroundColor, "no selection, pen only")
	assert.Equal(t, "#ff0000", s.PenColor())

	require.NoError(t, s.Select(id))
	require.NoError(t, s.SetColor("#00ff00"))
	n, _ = s.Document().Note(id)
	assert.Equal(t, "#00ff00", n.BackgroundColor)

	assert.Error(t, s.SetColor("green"))
}

func TestSession_DeleteSelected(t *testing.T) {
	s := openSession(t, memory.NewStore(0))
	assert.ErrorIs(t, s.DeleteSelected(), core.ErrNoteNotFound)

	id, err := s.AddNote(workspace.NoteSpec{})
	require.NoError(t, err)
	require.NoError(t, s.Select(id))
	require.NoError(t, s.DeleteSelected())
	assert.Empty(t, s.Notes())
	assert.Empty(t, s.Selected())
}

func TestSession_Strokes(t *testing.T) {
	ctx := context.Background()
	s := openSession(t, memory.NewStore(0), workspace.WithViewport(64, 64))

	ok, err := s.BeginStroke(1, 1)
	require.NoError(t, err)
	assert.False(t, ok, "pen is off")

	require.True(t, s.TogglePen())
	for _, stroke := range [][]image.Point{{{5, 5}, {30, 30}}, {{40, 5}, {40, 50}}} {
		ok, err := s.BeginStroke(stroke[0].X, stroke[0].Y)
		require.NoError(t, err)
		require.True(t, ok)
		for _, p := range stroke[1:] {
			require.NoError(t, s.ContinueStroke(p.X, p.Y))
		}
		s.EndStroke()
	}

	second := s.Capture().Drawing
	assert.True(t, strings.HasPrefix(second, "data:image/png;base64,"))

	require.NoError(t, s.Undo(ctx))
	first := s.Capture().Drawing
	assert.NotEmpty(t, first)
	assert.NotEqual(t, second, first, "each stroke is its own undo step")

	require.NoError(t, s.Undo(ctx))
	assert.Empty(t, s.Capture().Drawing)

	require.NoError(t, s.Redo(ctx))
	assert.Equal(t, first, s.Capture().Drawing)
}

func TestSession_Erase(t *testing.T) {
	ctx := context.Background()
	s := openSession(t, memory.NewStore(0), workspace.WithViewport(32, 32))
	setup := func() {
		_, err := s.AddNote(workspace.NoteSpec{})
		require.NoError(t, err)
		require.NoError(t, s.SetBackgroundURL("https://example.com/bg.png"))
		s.TogglePen()
		_, err = s.BeginStroke(1, 1)
		require.NoError(t, err)
		require.NoError(t, s.ContinueStroke(10, 10))
		s.EndStroke()
		s.TogglePen()
	}

	setup()
	require.NoError(t, s.Erase(workspace.EraseDrawing))
	snap := s.Capture()
	assert.Empty(t, snap.Drawing)
	assert.Len(t, snap.Draggables, 1)
	assert.Equal(t, "url(https://example.com/bg.png)", snap.BackgroundImage)

	require.NoError(t, s.Erase(workspace.EraseNotes))
	assert.Empty(t, s.Notes())

	require.NoError(t, s.Erase(workspace.EraseBackground))
	assert.Empty(t, s.Capture().BackgroundImage)

	setup()
	require.NoError(t, s.Erase(workspace.EraseAll))
	snap = s.Capture()
	assert.Empty(t, snap.Draggables)
	assert.Empty(t, snap.Drawing)
	assert.Empty(t, snap.BackgroundImage)

	require.NoError(t, s.Undo(ctx))
	assert.Len(t, s.Notes(), 1, "erase is undoable")

	assert.Error(t, s.Erase(workspace.EraseScope(9)))
}

func TestParseEraseScope(t *testing.T) {
	cases := map[string]workspace.EraseScope{
		"drawing": workspace.EraseDrawing,
		"1":       workspace.EraseDrawing,
		"Notes":   workspace.EraseNotes,
		"3":       workspace.EraseBackground,
		"all":     workspace.EraseAll,
	}
	for in, want := range cases {
		got, err := workspace.ParseEraseScope(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := workspace.ParseEraseScope("everything")
	assert.Error(t, err)
}

func TestSession_Background(t *testing.T) {
	s := openSession(t, memory.NewStore(0), workspace.WithMaxBackgroundBytes(8))

	err := s.SetBackground(context.Background(), make([]byte, 9), "image/png")
	assert.ErrorIs(t, err, core.ErrBackgroundTooLarge)
	assert.Empty(t, s.Document().Background())

	require.NoError(t, s.SetBackground(context.Background(), []byte{1, 2, 3}, "image/png"))
	assert.Equal(t, "url(data:image/png;base64,AQID)", s.Document().Background())

	assert.Error(t, s.SetBackgroundURL(`x") ; evil(`))
}

func TestSession_ToggleTheme(t *testing.T) {
	ctx := context.Background()
	s := openSession(t, memory.NewStore(0))

	dark, err := s.ToggleTheme()
	require.NoError(t, err)
	assert.True(t, dark)
	assert.True(t, s.Capture().DarkMode)

	require.NoError(t, s.Undo(ctx))
	assert.False(t, s.Capture().DarkMode)
}

func TestSession_ReopenRestoresState(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore(0)

	first := openSession(t, store)
	_, err := first.AddNote(workspace.NoteSpec{Position: at(0, 0), Text: [4]string{"persisted"}})
	require.NoError(t, err)
	_, err = first.AddNote(workspace.NoteSpec{Position: at(0, 0)})
	require.NoError(t, err)
	require.NoError(t, first.Close(ctx))

	second := openSession(t, store)
	notes := second.Notes()
	require.Len(t, notes, 2)
	assert.Equal(t, "persisted", notes[0].Text1)
	assert.Equal(t, 3, second.Document().ZCounter())

	id, err := second.AddNote(workspace.NoteSpec{})
	require.NoError(t, err)
	n, _ := second.Document().Note(id)
	assert.Equal(t, 4, n.Z, "new notes stack above restored ones")
}

func TestSession_PersistentHistory(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore(0)

	first := openSession(t, store, workspace.WithPersistentHistory(true))
	_, err := first.AddNote(workspace.NoteSpec{})
	require.NoError(t, err)
	require.NoError(t, first.Close(ctx))

	second := openSession(t, store, workspace.WithPersistentHistory(true))
	require.Len(t, second.Notes(), 1)
	require.NoError(t, second.Undo(ctx))
	assert.Empty(t, second.Notes())
	require.NoError(t, second.Close(ctx))

	third := openSession(t, store, workspace.WithPersistentHistory(true))
	assert.Empty(t, third.Notes())
	assert.True(t, third.History().CanRedo())
}

func TestSession_CorruptStoredState(t *testing.T) {
	store := memory.NewStore(0)
	store.Set(persist.StateKey, []byte("{broken"))
	store.Set(workspace.HistoryKey, []byte("[]"))

	s := openSession(t, store, workspace.WithPersistentHistory(true))
	assert.Empty(t, s.Notes())
	assert.True(t, s.History().CanUndo())
}

func TestSession_SaveFailureIsNonFatal(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore(0)
	s := openSession(t, store)
	store.FailWrites(errors.New("quota"))

	_, err := s.AddNote(workspace.NoteSpec{Text: [4]string{"live"}})
	require.NoError(t, err)
	require.NoError(t, s.Flush(ctx))
	assert.Len(t, s.Notes(), 1)

	state, ok := s.State().(workspace.SessionState)
	require.True(t, ok)
	assert.Equal(t, 1, state.Document.(core.DocumentState).Notes)
	assert.Positive(t, state.Gateway.(persist.GatewayState).Failures)
}

// slowStore delays writes whose payload contains match.
type slowStore struct {
	*memory.Store
	match string
	delay time.Duration
}

func (s *slowStore) Write(ctx context.Context, key string, value []byte) error {
	if bytes.Contains(value, []byte(s.match)) {
		time.Sleep(s.delay)
	}
	return s.Store.Write(ctx, key, value)
}

func TestSession_UndoAfterSlowDragSaveIsDurable(t *testing.T) {
	ctx := context.Background()
	store := &slowStore{Store: memory.NewStore(0), match: `"left":300`, delay: 100 * time.Millisecond}
	s := openSession(t, store)
	id, err := s.AddNote(workspace.NoteSpec{Position: at(0, 0)})
	require.NoError(t, err)
	require.NoError(t, s.Flush(ctx))

	require.NoError(t, s.BeginDrag(id))
	require.NoError(t, s.DragTo(ctx, id, 300, 300))
	s.EndGesture()
	require.NoError(t, s.Undo(ctx))
	require.NoError(t, s.Flush(ctx))
	time.Sleep(150 * time.Millisecond)

	live, err := s.NoteAt(1)
	require.NoError(t, err)
	assert.Equal(t, 0, live.Left)

	stored := storedSnapshot(t, store)
	require.Len(t, stored.Draggables, 1)
	assert.Equal(t, live.Left, stored.Draggables[0].Left, "stored workspace matches the undone state")
}

func TestSession_ImportRejectsUnexportableText(t *testing.T) {
	ctx := context.Background()
	s := openSession(t, memory.NewStore(0))
	_, err := s.AddNote(workspace.NoteSpec{Text: [4]string{"kept"}})
	require.NoError(t, err)
	undo, _ := s.History().Len()

	for name, doc := range map[string]string{
		"json": `{"draggables":[{"left":0,"top":0,"width":250,"height":100,"text1":"a\rb","z":1}]}`,
		"yaml": "draggables:\n  - left: 0\n    text1: \"a\\rb\"\n    z: 1\n",
	} {
		err := s.Import(ctx, strings.NewReader(doc), name)
		assert.ErrorIs(t, err, core.ErrParse, name)
	}

	require.Len(t, s.Notes(), 1)
	assert.Equal(t, "kept", s.Notes()[0].Text1)
	after, _ := s.History().Len()
	assert.Equal(t, undo, after, "a rejected import records no undo point")
}
