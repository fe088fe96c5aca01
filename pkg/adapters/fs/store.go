package fs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/aretw0/pinboard/pkg/core"
)

// DefaultSystemDir is the hidden directory holding the stored keys.
const DefaultSystemDir = ".pinboard"

const keyExt = ".json"

// Store implements core.Store with one file per key under {Path}/{SystemDir}.
type Store struct {
	Path   string
	config Config

	mu            sync.RWMutex
	writes        int
	lastWrite     *time.Time
	watcherActive bool
}

// Config holds the configuration for the filesystem store.
type Config struct {
	Path         string
	SystemDir    string // e.g. ".pinboard"
	MustExist    bool
	ReadOnly     bool
	Logger       *slog.Logger
	ErrorHandler func(error) // receives watcher failures; optional
}

// NewStore creates a new filesystem-backed store.
func NewStore(config Config) *Store {
	if config.SystemDir == "" {
		config.SystemDir = DefaultSystemDir
	}
	if config.Logger == nil {
		config.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Store{
		Path:   config.Path,
		config: config,
	}
}

// Dir returns the directory holding the key files.
func (s *Store) Dir() string {
	return filepath.Join(s.Path, s.config.SystemDir)
}

// Initialize creates the workspace and system directories.
func (s *Store) Initialize(ctx context.Context) error {
	if s.config.MustExist || s.config.ReadOnly {
		info, err := os.Stat(s.Path)
		if os.IsNotExist(err) {
			return fmt.Errorf("workspace path does not exist: %s", s.Path)
		}
		if err != nil {
			return err
		}
		if !info.IsDir() {
			return fmt.Errorf("workspace path is not a directory: %s", s.Path)
		}
	}
	if s.config.ReadOnly {
		return nil
	}

	if err := os.MkdirAll(s.Dir(), 0755); err != nil {
		return fmt.Errorf("failed to create system directory: %w", err)
	}

	stale, err := s.staleStaged()
	if err != nil {
		return fmt.Errorf("failed to list staged files: %w", err)
	}
	for _, f := range stale {
		if err := os.Remove(f); err != nil {
			s.config.Logger.Warn("could not remove interrupted write", "file", f, "error", err)
			continue
		}
		s.config.Logger.Info("removed interrupted write", "file", filepath.Base(f))
	}
	return nil
}

func (s *Store) keyPath(key string) (string, error) {
	if key == "" || strings.ContainsAny(key, `/\`) || key == "." || key == ".." {
		return "", fmt.Errorf("invalid key %q", key)
	}
	return filepath.Join(s.Dir(), key+keyExt), nil
}

// Read returns the stored value for key.
func (s *Store) Read(ctx context.Context, key string) ([]byte, error) {
	path, err := s.keyPath(key)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", core.ErrNotFound, key)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", key, err)
	}
	return data, nil
}

// Write replaces the stored value for key atomically.
func (s *Store) Write(ctx context.Context, key string, value []byte) error {
	if s.config.ReadOnly {
		return core.ErrReadOnly
	}
	if err := s.replaceSlot(key, value); err != nil {
		return err
	}

	s.config.Logger.Debug("stored key", "key", key, "bytes", len(value))
	s.recordWrite()
	return nil
}

// Delete removes the stored value for key.
func (s *Store) Delete(ctx context.Context, key string) error {
	if s.config.ReadOnly {
		return core.ErrReadOnly
	}
	path, err := s.keyPath(key)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to delete %s: %w", key, err)
	}
	return nil
}

// keyOf maps a file in the system directory back to its key.
func (s *Store) keyOf(path string) (string, bool) {
	if filepath.Dir(path) != filepath.Clean(s.Dir()) {
		return "", false
	}
	name := filepath.Base(path)
	if strings.HasPrefix(name, TempFilePrefix) || filepath.Ext(name) != keyExt {
		return "", false
	}
	return strings.TrimSuffix(name, keyExt), true
}

func (s *Store) recordWrite() {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	s.writes++
	s.lastWrite = &now
}

func (s *Store) setWatcherActive(active bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.watcherActive = active
}

var _ core.Store = (*Store)(nil)
var _ core.Watchable = (*Store)(nil)
