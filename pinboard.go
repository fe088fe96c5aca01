package pinboard

import (
	"context"
	"log/slog"
	"time"

	"github.com/aretw0/pinboard/internal/platform"
	"github.com/aretw0/pinboard/pkg/adapters/fs"
	"github.com/aretw0/pinboard/pkg/core"
	"github.com/aretw0/pinboard/pkg/workspace"
)

// --- Types ---

// Session is an open workspace.
type Session = workspace.Session

// NoteSpec describes a note to add.
type NoteSpec = workspace.NoteSpec

// Snapshot is the complete serializable workspace state.
type Snapshot = core.Snapshot

// Note is one sticky card.
type Note = core.Note

// --- Configuration ---

// Option defines a functional option for opening a workspace.
type Option = platform.Option

// WithLogger sets the logger for every component.
func WithLogger(logger *slog.Logger) Option {
	return platform.WithLogger(logger)
}

// WithStore injects a storage backend instead of the filesystem.
func WithStore(store core.Store) Option {
	return platform.WithStore(store)
}

// WithSystemDir sets the hidden directory name (default ".pinboard").
func WithSystemDir(name string) Option {
	return platform.WithSystemDir(name)
}

// WithMustExist fails instead of creating a missing workspace directory.
func WithMustExist(must bool) Option {
	return platform.WithMustExist(must)
}

// WithReadOnly opens the workspace without writing to it.
func WithReadOnly(enabled bool) Option {
	return platform.WithReadOnly(enabled)
}

// WithForceTemp forces the use of a temporary directory (useful for testing).
func WithForceTemp(force bool) Option {
	return platform.WithForceTemp(force)
}

// WithDevSafety controls the `go run` sandbox.
func WithDevSafety(enabled bool) Option {
	return platform.WithDevSafety(enabled)
}

// WithWatcherErrorHandler receives runtime failures of the storage watcher.
func WithWatcherErrorHandler(fn func(error)) Option {
	return platform.WithWatcherErrorHandler(fn)
}

// WithHistoryLimit caps the undo stack (default 100).
func WithHistoryLimit(n int) Option {
	return platform.WithHistoryLimit(n)
}

// WithGridSize sets the drag snapping step.
func WithGridSize(px int) Option {
	return platform.WithGridSize(px)
}

// WithViewport sets the drag area.
func WithViewport(width, height int) Option {
	return platform.WithViewport(width, height)
}

// WithDebounce sets the quiet period of debounced saves (default 220ms).
func WithDebounce(d time.Duration) Option {
	return platform.WithDebounce(d)
}

// WithThrottle sets the spacing of throttled saves (default 250ms).
func WithThrottle(d time.Duration) Option {
	return platform.WithThrottle(d)
}

// WithMaxBackgroundBytes overrides the 3 MiB background limit.
func WithMaxBackgroundBytes(n int) Option {
	return platform.WithMaxBackgroundBytes(n)
}

// WithPersistentHistory keeps undo history across sessions.
func WithPersistentHistory(enabled bool) Option {
	return platform.WithPersistentHistory(enabled)
}

// --- Factory ---

// Open opens the workspace stored under path.
func Open(ctx context.Context, path string, opts ...Option) (*Session, error) {
	return platform.Open(ctx, path, opts...)
}

// OpenStore returns the filesystem store of the workspace under path.
func OpenStore(ctx context.Context, path string, opts ...Option) (*fs.Store, error) {
	return platform.OpenStore(ctx, path, opts...)
}

// --- Safety & Utils ---

// IsDevRun checks if the current process is running via `go run` or `go test`.
func IsDevRun() bool {
	return platform.IsDevRun()
}

// FindRoot looks upwards from startDir for a workspace directory.
func FindRoot(startDir string) (string, error) {
	return platform.FindRoot(startDir, "")
}
