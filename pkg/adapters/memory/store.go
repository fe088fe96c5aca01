// Package memory provides an in-process core.Store, the analogue of browser
// local storage: a flat set of string keys with an optional byte quota.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/aretw0/pinboard/pkg/core"
)

// Store keeps values in a map. A zero Quota means unlimited.
type Store struct {
	Quota int

	mu         sync.RWMutex
	values     map[string][]byte
	failWrites error
}

// NewStore creates an empty store with the given quota in bytes (0 = unlimited).
func NewStore(quota int) *Store {
	return &Store{
		Quota:  quota,
		values: make(map[string][]byte),
	}
}

// FailWrites makes subsequent writes fail with err; nil restores normal behaviour.
func (s *Store) FailWrites(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failWrites = err
}

func (s *Store) Initialize(ctx context.Context) error { return nil }

func (s *Store) Read(ctx context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := s.values[key]
	if !ok {
		return nil, fmt.Errorf("%w: %s", core.ErrNotFound, key)
	}
	return append([]byte(nil), v...), nil
}

func (s *Store) Write(ctx context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.failWrites != nil {
		return s.failWrites
	}
	if s.Quota > 0 {
		used := len(value)
		for k, v := range s.values {
			if k != key {
				used += len(v)
			}
		}
		if used > s.Quota {
			return fmt.Errorf("%w: %d bytes exceeds quota of %d", core.ErrQuotaExceeded, used, s.Quota)
		}
	}
	s.values[key] = append([]byte(nil), value...)
	return nil
}

func (s *Store) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.values, key)
	return nil
}

// Set stores raw bytes bypassing quota and fault injection. Used to seed corrupt state in tests.
func (s *Store) Set(key string, value []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = append([]byte(nil), value...)
}

var _ core.Store = (*Store)(nil)
