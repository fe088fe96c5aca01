package fs

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/aretw0/lifecycle"
	"github.com/bmatcuk/doublestar/v4"
	"github.com/fsnotify/fsnotify"

	"github.com/aretw0/pinboard/internal/schedule"
	"github.com/aretw0/pinboard/pkg/core"
)

// watchDebounce collapses the create/write bursts of a single atomic save.
const watchDebounce = 50 * time.Millisecond

// Watch reports changes to stored keys made by any process. pattern is a
// doublestar glob matched against key names ("*" for all keys).
// The returned channel is closed once ctx is done.
func (s *Store) Watch(ctx context.Context, pattern string) (<-chan core.Event, error) {
	if pattern == "" {
		pattern = "*"
	}
	if !doublestar.ValidatePattern(pattern) {
		return nil, fmt.Errorf("invalid watch pattern %q", pattern)
	}
	if !s.config.ReadOnly {
		if err := os.MkdirAll(s.Dir(), 0755); err != nil {
			return nil, fmt.Errorf("failed to create system directory: %w", err)
		}
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}
	if err := watcher.Add(s.Dir()); err != nil {
		_ = watcher.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", s.Dir(), err)
	}

	seen, err := s.existingKeys()
	if err != nil {
		_ = watcher.Close()
		return nil, err
	}

	out := make(chan core.Event, 16)
	debouncer := schedule.NewDebouncer(watchDebounce)
	s.setWatcherActive(true)

	lifecycle.Go(ctx, func(ctx context.Context) error {
		defer close(out)
		defer s.setWatcherActive(false)
		defer watcher.Close()

		err := s.watchLoop(ctx, watcher, pattern, seen, debouncer, out)

		// Cancel pending events before the channel closes.
		if stopErr := debouncer.Stop(5 * time.Second); stopErr != nil {
			s.config.Logger.Warn("watcher shutdown", "error", stopErr)
		}
		return err
	}, lifecycle.WithErrorHandler(func(err error) {
		s.reportWatchError(fmt.Errorf("watcher panic: %w", err))
	}))

	return out, nil
}

func (s *Store) existingKeys() (map[string]bool, error) {
	entries, err := os.ReadDir(s.Dir())
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to list %s: %w", s.Dir(), err)
	}
	seen := make(map[string]bool, len(entries))
	for _, e := range entries {
		if key, ok := s.keyOf(filepath.Join(s.Dir(), e.Name())); ok {
			seen[key] = true
		}
	}
	return seen, nil
}

func (s *Store) watchLoop(ctx context.Context, watcher *fsnotify.Watcher, pattern string, seen map[string]bool, debouncer *schedule.Debouncer, out chan<- core.Event) error {
	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				if ctx.Err() != nil {
					return nil
				}
				return fmt.Errorf("watcher events channel closed")
			}

			key, ok := s.keyOf(event.Name)
			if !ok {
				continue
			}
			if match, _ := doublestar.Match(pattern, key); !match {
				continue
			}

			eType := mapEventType(event, seen[key])
			if eType == "" {
				continue
			}
			seen[key] = eType != core.EventDelete

			s.config.Logger.Debug("store event", "key", key, "type", eType)
			e := core.Event{Type: eType, Key: key, Timestamp: time.Now().Unix()}
			debouncer.Trigger(key, func() {
				select {
				case out <- e:
				case <-ctx.Done():
				}
			})

		case wErr, ok := <-watcher.Errors:
			if !ok {
				if ctx.Err() != nil {
					return nil
				}
				return fmt.Errorf("watcher errors channel closed")
			}
			s.reportWatchError(wErr)
		}
	}
}

func mapEventType(event fsnotify.Event, known bool) core.EventType {
	switch {
	case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
		return core.EventDelete
	case event.Has(fsnotify.Create), event.Has(fsnotify.Write):
		if known {
			return core.EventModify
		}
		return core.EventCreate
	}
	return ""
}

func (s *Store) reportWatchError(err error) {
	s.config.Logger.Error("watcher error", "error", err)
	if s.config.ErrorHandler != nil {
		s.config.ErrorHandler(err)
	}
}
