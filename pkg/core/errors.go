package core

import "errors"

// Common errors.
var (
	ErrNotFound           = errors.New("key not found")
	ErrParse              = errors.New("parse error")
	ErrDecode             = errors.New("image decode error")
	ErrCorrupt            = errors.New("stored state is corrupt")
	ErrInvalidSnapshot    = errors.New("invalid snapshot")
	ErrNothingToUndo      = errors.New("nothing to undo")
	ErrNothingToRedo      = errors.New("nothing to redo")
	ErrNoteNotFound       = errors.New("note not found")
	ErrBackgroundTooLarge = errors.New("background image too large")
	ErrQuotaExceeded      = errors.New("storage quota exceeded")
	ErrReadOnly           = errors.New("store is in read-only mode")
)
