package workspace

import (
	"image"
	"log/slog"
	"time"
)

const (
	// DefaultGridSize is the drag snapping step in pixels.
	DefaultGridSize = 20

	// DefaultMaxBackgroundBytes limits uploaded background images.
	DefaultMaxBackgroundBytes = 3 * 1024 * 1024

	// HistoryKey is the store key holding the undo and redo stacks between sessions.
	HistoryKey = "historyV1"

	DefaultNoteColor = "#f6e58d"
	DefaultPenColor  = "#000000"

	// Height of a note created from the toolbar; restored or imported notes default to core.DefaultNoteHeight.
	NewNoteHeight = 105
)

// DefaultViewport is the area notes are clamped to while dragging.
var DefaultViewport = image.Pt(1280, 800)

type options struct {
	logger         *slog.Logger
	gridSize       int
	viewport       image.Point
	maxBackground  int
	historyLimit   int
	debounce       time.Duration
	throttle       time.Duration
	clock          func() time.Time
	persistHistory bool
}

// Option configures a Session.
type Option func(*options)

func defaultOptions() *options {
	return &options{
		gridSize:      DefaultGridSize,
		viewport:      DefaultViewport,
		maxBackground: DefaultMaxBackgroundBytes,
	}
}

// WithLogger sets the logger shared by the session components.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithGridSize sets the snapping step used while dragging. Values below 1 disable snapping.
func WithGridSize(px int) Option {
	return func(o *options) {
		o.gridSize = px
	}
}

// WithViewport sets the area notes are kept inside while dragging.
// A zero dimension leaves that axis unbounded.
func WithViewport(width, height int) Option {
	return func(o *options) {
		o.viewport = image.Pt(width, height)
	}
}

// WithMaxBackgroundBytes overrides the background upload limit.
func WithMaxBackgroundBytes(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.maxBackground = n
		}
	}
}

// WithHistoryLimit caps the undo stack.
func WithHistoryLimit(n int) Option {
	return func(o *options) {
		o.historyLimit = n
	}
}

// WithDebounce sets the quiet period of debounced saves.
func WithDebounce(d time.Duration) Option {
	return func(o *options) {
		o.debounce = d
	}
}

// WithThrottle sets the spacing of throttled saves during gestures.
func WithThrottle(d time.Duration) Option {
	return func(o *options) {
		o.throttle = d
	}
}

// WithClock replaces the time source of the save throttle.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		o.clock = now
	}
}

// WithPersistentHistory stores the undo and redo stacks under HistoryKey on Close
// and reloads them on Open, so history survives across processes.
func WithPersistentHistory(enabled bool) Option {
	return func(o *options) {
		o.persistHistory = enabled
	}
}
