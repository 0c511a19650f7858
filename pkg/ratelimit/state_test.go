package ratelimit

import (
	"net/http"
	"testing"
	"time"
)

func TestParseHeaders(t *testing.T) {
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	tests := []struct {
		name          string
		headers       map[string]string
		expectOK      bool
		expectError   bool
		expectRemain  int
		expectLimit   int
		expectResetAt time.Time
	}{
		{
			name:     "no headers",
			headers:  map[string]string{},
			expectOK: false,
		},
		{
			name:          "remaining only uses default window",
			headers:       map[string]string{HeaderRemaining: "42"},
			expectOK:      true,
			expectRemain:  42,
			expectResetAt: now.Add(DefaultWindow),
		},
		{
			name:          "reset in seconds",
			headers:       map[string]string{HeaderLimit: "60", HeaderRemaining: "10", HeaderReset: "30"},
			expectOK:      true,
			expectRemain:  10,
			expectLimit:   60,
			expectResetAt: now.Add(30 * time.Second),
		},
		{
			name:          "reset as unix timestamp",
			headers:       map[string]string{HeaderRemaining: "5", HeaderReset: "1767323145"},
			expectOK:      true,
			expectRemain:  5,
			expectResetAt: time.Unix(1767323145, 0),
		},
		{
			name:          "retry-after wins",
			headers:       map[string]string{HeaderRemaining: "0", HeaderReset: "1767323145", HeaderRetryAfter: "12"},
			expectOK:      true,
			expectRemain:  0,
			expectResetAt: now.Add(12 * time.Second),
		},
		{
			name:        "invalid remaining",
			headers:     map[string]string{HeaderRemaining: "lots"},
			expectError: true,
		},
		{
			name:        "invalid reset",
			headers:     map[string]string{HeaderRemaining: "1", HeaderReset: "soon"},
			expectError: true,
		},
		{
			name:        "invalid limit",
			headers:     map[string]string{HeaderRemaining: "1", HeaderLimit: "x"},
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := http.Header{}
			for k, v := range tt.headers {
				h.Set(k, v)
			}

			state, ok, err := ParseHeaders(h, now)

			if tt.expectError {
				if err == nil {
					t.Error("Expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if ok != tt.expectOK {
				t.Fatalf("ok = %v, want %v", ok, tt.expectOK)
			}
			if !ok {
				return
			}
			if state.Remaining != tt.expectRemain {
				t.Errorf("Remaining = %d, want %d", state.Remaining, tt.expectRemain)
			}
			if state.Limit != tt.expectLimit {
				t.Errorf("Limit = %d, want %d", state.Limit, tt.expectLimit)
			}
			if !state.ResetAt.Equal(tt.expectResetAt) {
				t.Errorf("ResetAt = %v, want %v", state.ResetAt, tt.expectResetAt)
			}
		})
	}
}

func TestState_IsStale(t *testing.T) {
	tests := []struct {
		name       string
		lastUpdate time.Time
		maxAge     time.Duration
		expected   bool
	}{
		{"fresh state", time.Now().Add(-10 * time.Second), 30 * time.Second, false},
		{"stale state", time.Now().Add(-60 * time.Second), 30 * time.Second, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			state := &State{LastUpdate: tt.lastUpdate}
			if got := state.IsStale(tt.maxAge); got != tt.expected {
				t.Errorf("IsStale() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestState_Gating(t *testing.T) {
	future := time.Now().Add(time.Minute)
	past := time.Now().Add(-time.Second)

	tests := []struct {
		name           string
		remaining      int
		resetAt        time.Time
		expectBlock    bool
		expectThrottle bool
	}{
		{"healthy", 50, future, false, false},
		{"at warning threshold", DefaultWarningRemaining, future, false, false},
		{"below warning threshold", DefaultWarningRemaining - 1, future, false, true},
		{"last request left", 1, future, false, true},
		{"exhausted", 0, future, true, false},
		{"exhausted but window reset", 0, past, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			state := &State{Remaining: tt.remaining, ResetAt: tt.resetAt}

			if got := state.NeedsCriticalBlock(DefaultCriticalRemaining); got != tt.expectBlock {
				t.Errorf("NeedsCriticalBlock() = %v, want %v", got, tt.expectBlock)
			}
			if got := state.NeedsThrottling(DefaultCriticalRemaining, DefaultWarningRemaining); got != tt.expectThrottle {
				t.Errorf("NeedsThrottling() = %v, want %v", got, tt.expectThrottle)
			}
		})
	}
}

func TestState_TimeUntilReset(t *testing.T) {
	state := &State{ResetAt: time.Now().Add(-time.Minute)}
	if got := state.TimeUntilReset(); got != 0 {
		t.Errorf("TimeUntilReset() = %v, want 0", got)
	}

	state = &State{ResetAt: time.Now().Add(time.Minute)}
	if got := state.TimeUntilReset(); got <= 50*time.Second || got > time.Minute {
		t.Errorf("TimeUntilReset() = %v, want ~1m", got)
	}
}

func TestHealthyState_NeverGates(t *testing.T) {
	state := HealthyState(time.Now())

	if state.NeedsCriticalBlock(DefaultCriticalRemaining) {
		t.Error("Healthy state should not block")
	}
	if state.NeedsThrottling(DefaultCriticalRemaining, 1000) {
		t.Error("Healthy state should not throttle")
	}
}
