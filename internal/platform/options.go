package platform

import (
	"log/slog"
	"time"

	"github.com/aretw0/pinboard/pkg/core"
	"github.com/aretw0/pinboard/pkg/workspace"
)

// options holds the internal configuration for a pinboard workspace.
type options struct {
	store        core.Store
	logger       *slog.Logger
	systemDir    string
	mustExist    bool
	readOnly     bool
	forceTemp    bool
	devSafety    bool
	errorHandler func(error)

	// session options set explicitly by the caller; applied after the config file.
	session []workspace.Option
}

// Option defines a functional option for configuring a workspace.
type Option func(*options)

// defaultOptions returns the default configuration.
func defaultOptions() *options {
	return &options{
		systemDir: DefaultSystemDir,
		devSafety: true,
	}
}

func resolveOptions(opts []Option) *options {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// WithLogger sets the logger for every component.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithStore injects a storage backend (e.g. memory.Store). The filesystem
// adapter and the on-disk config file are skipped.
func WithStore(store core.Store) Option {
	return func(o *options) {
		o.store = store
	}
}

// WithSystemDir sets the hidden directory holding state and config.
// Defaults to ".pinboard".
func WithSystemDir(name string) Option {
	return func(o *options) {
		if name != "" {
			o.systemDir = name
		}
	}
}

// WithMustExist fails instead of creating a missing workspace directory.
func WithMustExist(must bool) Option {
	return func(o *options) {
		o.mustExist = must
	}
}

// WithReadOnly opens the workspace without ever writing to it.
// Saves fail with core.ErrReadOnly and are logged; the dev sandbox is bypassed.
func WithReadOnly(enabled bool) Option {
	return func(o *options) {
		o.readOnly = enabled
	}
}

// WithForceTemp forces the use of a temporary directory (useful for testing).
func WithForceTemp(force bool) Option {
	return func(o *options) {
		o.forceTemp = force
	}
}

// WithDevSafety controls the sandbox used when running via `go run` or `go test`.
// By default (true), the workspace is redirected into a temporary directory.
//
// CAUTION: Only disable this if you are sure your code is safe.
func WithDevSafety(enabled bool) Option {
	return func(o *options) {
		o.devSafety = enabled
	}
}

// WithWatcherErrorHandler receives runtime failures of the storage watcher.
func WithWatcherErrorHandler(fn func(error)) Option {
	return func(o *options) {
		o.errorHandler = fn
	}
}

// WithHistoryLimit caps the undo stack.
func WithHistoryLimit(n int) Option {
	return sessionOption(workspace.WithHistoryLimit(n))
}

// WithGridSize sets the drag snapping step.
func WithGridSize(px int) Option {
	return sessionOption(workspace.WithGridSize(px))
}

// WithViewport sets the area notes are kept inside while dragging.
func WithViewport(width, height int) Option {
	return sessionOption(workspace.WithViewport(width, height))
}

// WithDebounce sets the quiet period of debounced saves.
func WithDebounce(d time.Duration) Option {
	return sessionOption(workspace.WithDebounce(d))
}

// WithThrottle sets the spacing of throttled saves.
func WithThrottle(d time.Duration) Option {
	return sessionOption(workspace.WithThrottle(d))
}

// WithMaxBackgroundBytes overrides the background upload limit.
func WithMaxBackgroundBytes(n int) Option {
	return sessionOption(workspace.WithMaxBackgroundBytes(n))
}

// WithPersistentHistory keeps undo history across sessions.
func WithPersistentHistory(enabled bool) Option {
	return sessionOption(workspace.WithPersistentHistory(enabled))
}

func sessionOption(opt workspace.Option) Option {
	return func(o *options) {
		o.session = append(o.session, opt)
	}
}
