package core

import "context"

// Store defines the contract for durable key/value slots.
// The workspace uses a single well-known key for its state; adhering to this
// interface keeps the core independent of where that slot lives.
type Store interface {
	// Read returns the value stored under key, or ErrNotFound.
	Read(ctx context.Context, key string) ([]byte, error)

	// Write stores value under key, overwriting any previous value.
	Write(ctx context.Context, key string, value []byte) error

	// Delete removes key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error

	// Initialize ensures the underlying storage is ready (e.g., create directories).
	Initialize(ctx context.Context) error
}

// Watchable defines an interface for stores that can report changes made by other processes.
type Watchable interface {
	// Watch emits an event whenever a key matching pattern changes.
	// The channel is closed when ctx is done.
	Watch(ctx context.Context, pattern string) (<-chan Event, error)
}
