//go:build integration

package ratelimit

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/Sternrassler/api-resources-client/internal/testutil"
	"github.com/rs/zerolog"
)

func TestTracker_Integration_SharedState(t *testing.T) {
	redisClient := testutil.StartRedis(t)

	ctx := context.Background()
	observer := NewTracker(redisClient, DefaultConfig(), zerolog.Nop())
	peer := NewTracker(redisClient, DefaultConfig(), zerolog.Nop())

	headers := http.Header{}
	headers.Set(HeaderRemaining, "0")
	headers.Set(HeaderRetryAfter, "30")
	if err := observer.UpdateFromHeaders(ctx, headers); err != nil {
		t.Fatalf("UpdateFromHeaders() error = %v", err)
	}

	allowed, err := peer.ShouldAllowRequest(ctx)
	if err != nil {
		t.Fatalf("ShouldAllowRequest() error = %v", err)
	}
	if allowed {
		t.Error("Expected peer to observe the exhausted quota")
	}
}

func TestTracker_Integration_StateExpiresWithWindow(t *testing.T) {
	redisClient := testutil.StartRedis(t)

	ctx := context.Background()
	tracker := NewTracker(redisClient, DefaultConfig(), zerolog.Nop())

	headers := http.Header{}
	headers.Set(HeaderRemaining, "0")
	headers.Set(HeaderReset, "3")
	if err := tracker.UpdateFromHeaders(ctx, headers); err != nil {
		t.Fatalf("UpdateFromHeaders() error = %v", err)
	}

	if allowed, _ := tracker.ShouldAllowRequest(ctx); allowed {
		t.Fatal("Expected request to be blocked before reset")
	}

	time.Sleep(4500 * time.Millisecond)

	allowed, err := tracker.ShouldAllowRequest(ctx)
	if err != nil {
		t.Fatalf("ShouldAllowRequest() error = %v", err)
	}
	if !allowed {
		t.Error("Expected request to be allowed after the window reset")
	}
}
