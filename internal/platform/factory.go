package platform

import (
	"context"
	"fmt"

	"github.com/aretw0/pinboard/pkg/adapters/fs"
	"github.com/aretw0/pinboard/pkg/workspace"
)

// Open prepares the storage at path, applies config file and environment
// overrides, and opens the workspace session.
//
// Precedence, lowest first: defaults, {path}/.pinboard/config.yaml, .env and
// process environment, explicit options.
func Open(ctx context.Context, path string, opts ...Option) (*workspace.Session, error) {
	o := resolveOptions(opts)

	store, err := InitStore(ctx, path, opts...)
	if err != nil {
		return nil, err
	}

	var cfg Config
	envDir := path
	if fsStore, ok := store.(*fs.Store); ok {
		envDir = fsStore.Path
		if cfg, err = LoadConfig(fsStore.Path, o.systemDir); err != nil {
			return nil, err
		}
	}
	if err := cfg.applyEnv(Env(envDir)); err != nil {
		return nil, err
	}

	sessionOpts, err := cfg.sessionOptions()
	if err != nil {
		return nil, err
	}
	if o.logger != nil {
		sessionOpts = append(sessionOpts, workspace.WithLogger(o.logger))
	}
	sessionOpts = append(sessionOpts, o.session...)

	session := workspace.New(store, sessionOpts...)
	if err := session.Open(ctx); err != nil {
		return nil, fmt.Errorf("open workspace: %w", err)
	}
	return session, nil
}

// OpenStore returns the filesystem store of the workspace at path, e.g. to watch it.
func OpenStore(ctx context.Context, path string, opts ...Option) (*fs.Store, error) {
	o := resolveOptions(opts)
	store := newFSStore(path, o)
	if err := store.Initialize(ctx); err != nil {
		return nil, err
	}
	return store, nil
}
