// Package pinboard is the composition root of a freeform workspace engine:
// sticky notes, a freehand drawing layer, a background and a theme, kept as one
// document with bounded undo/redo, throttled persistence and XML import/export.
//
// The live document (pkg/core) is captured into whole-workspace snapshots. A
// snapshot is recorded for undo before every discrete action (pkg/history) and
// written to a single storage key after changes (pkg/persist). Storage adapters
// live under pkg/adapters; the default keeps one file per key in a hidden
// .pinboard directory and writes it atomically.
//
// Usage:
//
//	board, err := pinboard.Open(ctx, "./board", pinboard.WithLogger(logger))
//	if err != nil {
//		return err
//	}
//	defer board.Close(ctx)
//
//	id, err := board.AddNote(pinboard.NoteSpec{Text: [4]string{"groceries"}})
//	...
//	err = board.Undo(ctx)
package pinboard
