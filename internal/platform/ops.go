package platform

import (
	"context"
	"io"
	"log/slog"

	"github.com/aretw0/pinboard/pkg/adapters/fs"
	"github.com/aretw0/pinboard/pkg/core"
)

// DefaultSystemDir is the hidden directory holding a workspace's state and config.
const DefaultSystemDir = fs.DefaultSystemDir

// InitStore resolves the workspace location and prepares its storage.
// An injected store (WithStore) is initialized and returned as is.
func InitStore(ctx context.Context, path string, opts ...Option) (core.Store, error) {
	o := resolveOptions(opts)
	store := o.store
	if store == nil {
		store = newFSStore(path, o)
	}
	if err := store.Initialize(ctx); err != nil {
		return nil, err
	}
	return store, nil
}

// newFSStore applies the dev sandbox rules and builds the filesystem adapter.
func newFSStore(path string, o *options) *fs.Store {
	logger := o.logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	// Read-only access is inherently safe and bypasses the sandbox.
	bypassSafety := o.readOnly || !o.devSafety
	useTemp := o.forceTemp || (IsDevRun() && !bypassSafety)
	resolved := ResolvePath(path, useTemp)

	if useTemp {
		logger.Warn("running in SAFE MODE (Dev/Test)", "original_path", path, "resolved_path", resolved)
	} else if IsDevRun() && !o.readOnly {
		logger.Warn("running in UNSAFE mode (bypassing dev sandbox)", "path", resolved)
	}

	return fs.NewStore(fs.Config{
		Path:         resolved,
		SystemDir:    o.systemDir,
		MustExist:    o.mustExist,
		ReadOnly:     o.readOnly,
		Logger:       logger,
		ErrorHandler: o.errorHandler,
	})
}
