package cache

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Store layers used as metric labels.
const (
	LayerRedis  = "redis"
	LayerMemory = "memory"
)

var (
	// CacheHits tracks cache hits by layer
	CacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_cache_hits_total",
			Help: "Total number of API response cache hits",
		},
		[]string{"layer"},
	)

	// CacheMisses tracks cache misses by layer
	CacheMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_cache_misses_total",
			Help: "Total number of API response cache misses",
		},
		[]string{"layer"},
	)

	// CacheWrites tracks stored entries by layer
	CacheWrites = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_cache_writes_total",
			Help: "Total number of API responses written to cache",
		},
		[]string{"layer"},
	)

	// CacheInvalidations tracks explicit deletes by layer
	CacheInvalidations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_cache_invalidations_total",
			Help: "Total number of explicit cache invalidations",
		},
		[]string{"layer"},
	)

	// CacheErrors tracks cache operation errors
	CacheErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_cache_errors_total",
			Help: "Total number of cache operation errors",
		},
		[]string{"operation"}, // "get", "set", "delete"
	)
)
