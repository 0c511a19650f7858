package cache

import (
	"context"
	"errors"
)

var (
	// ErrCacheMiss indicates the requested key was not found in cache
	ErrCacheMiss = errors.New("cache miss")

	// ErrInvalidEntry indicates the cache entry is invalid or corrupted
	ErrInvalidEntry = errors.New("invalid cache entry")
)

// Store is a keyed response cache.
//
// Implementations must be safe for concurrent use. Concurrent Set calls on
// the same key are last-writer-wins.
type Store interface {
	// Get returns the entry stored under key.
	// Returns ErrCacheMiss if the key doesn't exist or the entry is expired.
	Get(ctx context.Context, key string) (*Entry, error)

	// Set stores entry under key until entry.Expires.
	// Entries that are already expired are not stored.
	Set(ctx context.Context, key string, entry *Entry) error

	// Delete removes the entry stored under key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
}
