//go:build integration

package client

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Sternrassler/api-resources-client/internal/testutil"
	"github.com/Sternrassler/api-resources-client/pkg/cache"
	"github.com/Sternrassler/api-resources-client/pkg/ratelimit"
	"github.com/Sternrassler/api-resources-client/pkg/session"
	"github.com/rs/zerolog"
)

func TestIntegration_FullRequestFlow(t *testing.T) {
	redisClient := testutil.StartRedis(t)

	var reads, writes atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(ratelimit.HeaderLimit, "60")
		w.Header().Set(ratelimit.HeaderRemaining, "59")
		w.Header().Set(ratelimit.HeaderReset, "60")
		w.Header().Set("Content-Type", "application/json")

		if r.Method == http.MethodGet {
			reads.Add(1)
			io.WriteString(w, `{"data":{"total":1,"data":[{"id":1,"name":"Ada"}]}}`)
			return
		}
		writes.Add(1)
		w.WriteHeader(http.StatusCreated)
		io.WriteString(w, `{"data":{"id":2}}`)
	}))
	defer server.Close()

	intent := session.NewMemory()
	tracker := ratelimit.NewTracker(redisClient, ratelimit.DefaultConfig(), zerolog.Nop())

	cfg := DefaultConfig(server.URL)
	cfg.Store = cache.NewRedisStore(redisClient)
	cfg.Session = intent
	cfg.RateLimiter = tracker
	c, err := New(cfg)
	if err != nil {
		t.Fatalf("Failed to create client: %v", err)
	}

	ctx := context.Background()
	opts := FetchOptions{Page: 1, CacheTTL: time.Minute}

	// Request 1: miss, stored in Redis
	if body := c.Fetch(ctx, "/users", opts); body.Get("data.total").Int() != 1 {
		t.Fatalf("Request 1 body = %s", body)
	}

	// Request 2: served from Redis
	c.Fetch(ctx, "/users", opts)
	if reads.Load() != 1 {
		t.Errorf("After request 2: reads = %d, want 1", reads.Load())
	}

	// Write marks the session
	if body := c.Post(ctx, "/users", map[string]string{"name": "Grace"}); body.Get("data.id").Int() != 2 {
		t.Fatalf("Post body = %s", body)
	}

	// Request 3: bypasses the cache once
	c.Fetch(ctx, "/users", opts)
	if reads.Load() != 2 {
		t.Errorf("After write: reads = %d, want 2", reads.Load())
	}

	// Request 4: cached again
	c.Fetch(ctx, "/users", opts)
	if reads.Load() != 2 {
		t.Errorf("After request 4: reads = %d, want 2", reads.Load())
	}

	state, err := tracker.GetState(ctx)
	if err != nil {
		t.Fatalf("GetState() error = %v", err)
	}
	if state.Remaining != 59 || state.Limit != 60 {
		t.Errorf("rate limit state = %+v", state)
	}
}

func TestIntegration_RateLimitBlocksRequests(t *testing.T) {
	redisClient := testutil.StartRedis(t)

	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Header().Set(ratelimit.HeaderRemaining, "0")
		w.Header().Set(ratelimit.HeaderRetryAfter, "60")
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	cfg := DefaultConfig(server.URL)
	cfg.Retry = RetryConfig{Attempts: 3, Delay: 10 * time.Millisecond}
	cfg.RateLimiter = ratelimit.NewTracker(redisClient, ratelimit.DefaultConfig(), zerolog.Nop())
	c, err := New(cfg)
	if err != nil {
		t.Fatalf("Failed to create client: %v", err)
	}

	_, err = c.Send(context.Background(), http.MethodGet, "/users", nil, nil)

	if hits.Load() != 1 {
		t.Errorf("Expected the tracker to stop retries after the first 429, got %d requests", hits.Load())
	}
	if !errors.Is(err, ErrRateLimited) {
		t.Errorf("Expected ErrRateLimited, got %v", err)
	}
}
