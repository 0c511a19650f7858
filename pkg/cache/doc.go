// Package cache provides response caching for the API client.
//
// Entries are addressed by a key derived from the compiled request target:
//
//	key := cache.Key(cache.DefaultPrefix, "/users?page=2&per_page=15")
//
// Two Store implementations are provided:
//
//   - RedisStore shares entries between processes and lets Redis expire them
//   - MemoryStore keeps entries in process memory (patrickmn/go-cache)
//
// # Basic Usage
//
//	store := cache.NewRedisStore(redis.NewClient(&redis.Options{
//		Addr: "localhost:6379",
//	}))
//
//	entry, err := store.Get(ctx, key)
//	if errors.Is(err, cache.ErrCacheMiss) {
//		// fetch from the API, then
//		_ = store.Set(ctx, key, cache.NewEntry(body, 60*time.Second))
//	}
//
//	// invalidate
//	_ = store.Delete(ctx, key)
//
// # Metrics
//
//   - api_cache_hits_total{layer} - Cache hits
//   - api_cache_misses_total{layer} - Cache misses
//   - api_cache_writes_total{layer} - Stored entries
//   - api_cache_invalidations_total{layer} - Explicit deletes
//   - api_cache_errors_total{operation} - Cache operation errors
package cache
