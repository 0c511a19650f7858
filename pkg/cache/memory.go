package cache

import (
	"context"
	"fmt"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// DefaultCleanupInterval is how often the in-memory store purges expired entries.
const DefaultCleanupInterval = 10 * time.Minute

// MemoryStore keeps entries in process memory.
// It is the default store when no Redis client is configured.
type MemoryStore struct {
	c *gocache.Cache
}

// NewMemoryStore creates an in-process store that purges expired entries
// every cleanupInterval. A non-positive interval disables the janitor.
func NewMemoryStore(cleanupInterval time.Duration) *MemoryStore {
	return &MemoryStore{
		c: gocache.New(gocache.NoExpiration, cleanupInterval),
	}
}

// Get retrieves a cache entry by key.
func (s *MemoryStore) Get(_ context.Context, key string) (*Entry, error) {
	v, found := s.c.Get(key)
	if !found {
		CacheMisses.WithLabelValues(LayerMemory).Inc()
		return nil, ErrCacheMiss
	}

	entry, ok := v.(*Entry)
	if !ok {
		CacheErrors.WithLabelValues("get").Inc()
		return nil, fmt.Errorf("%w: unexpected type %T", ErrInvalidEntry, v)
	}

	if entry.IsExpired() {
		s.c.Delete(key)
		CacheMisses.WithLabelValues(LayerMemory).Inc()
		return nil, ErrCacheMiss
	}

	CacheHits.WithLabelValues(LayerMemory).Inc()
	return entry.Clone(), nil
}

// Set stores a cache entry until entry.Expires.
func (s *MemoryStore) Set(_ context.Context, key string, entry *Entry) error {
	if entry == nil {
		return fmt.Errorf("cache entry cannot be nil")
	}

	ttl := entry.TTL()
	if ttl <= 0 {
		return nil
	}

	s.c.Set(key, entry.Clone(), ttl)
	CacheWrites.WithLabelValues(LayerMemory).Inc()
	return nil
}

// Delete removes a cache entry.
func (s *MemoryStore) Delete(_ context.Context, key string) error {
	s.c.Delete(key)
	CacheInvalidations.WithLabelValues(LayerMemory).Inc()
	return nil
}

// Len returns the number of stored items, including expired ones not yet purged.
func (s *MemoryStore) Len() int {
	return s.c.ItemCount()
}

// Flush removes every entry.
func (s *MemoryStore) Flush() {
	s.c.Flush()
}
