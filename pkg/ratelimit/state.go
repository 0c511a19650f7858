// Package ratelimit tracks the remote API's request quota and gates requests.
// It reads the X-RateLimit-Limit, X-RateLimit-Remaining, X-RateLimit-Reset and
// Retry-After response headers and shares the resulting state through Redis,
// so every process talking to the same API backs off together.
package ratelimit

import (
	"fmt"
	"net/http"
	"strconv"
	"time"
)

// Response headers carrying quota information.
const (
	HeaderLimit      = "X-RateLimit-Limit"
	HeaderRemaining  = "X-RateLimit-Remaining"
	HeaderReset      = "X-RateLimit-Reset"
	HeaderRetryAfter = "Retry-After"
)

// DefaultKeyPrefix namespaces the Redis keys.
const DefaultKeyPrefix = "filament_api:rate_limit"

// Thresholds for rate limit decisions.
const (
	// DefaultCriticalRemaining blocks requests while fewer requests remain.
	DefaultCriticalRemaining = 1

	// DefaultWarningRemaining throttles requests while fewer requests remain.
	DefaultWarningRemaining = 10

	// DefaultWindow is assumed when the API sends no reset information.
	DefaultWindow = 60 * time.Second
)

// unixThreshold separates "seconds from now" from absolute Unix timestamps
// in X-RateLimit-Reset.
const unixThreshold = 1_000_000_000

// State is the last known quota of the remote API.
type State struct {
	// Limit is the window size, 0 when unknown.
	Limit int `json:"limit"`

	// Remaining is the number of requests left in the current window.
	Remaining int `json:"remaining"`

	// ResetAt is when the window resets.
	ResetAt time.Time `json:"reset_at"`

	// LastUpdate is when the state was observed.
	LastUpdate time.Time `json:"last_update"`
}

// HealthyState is assumed until the API reports otherwise. Its window has
// already reset, so it never gates requests.
func HealthyState(now time.Time) *State {
	return &State{
		ResetAt:    now,
		LastUpdate: now,
	}
}

// ParseHeaders extracts quota state from response headers. ok is false when
// the response carries no X-RateLimit-Remaining header.
func ParseHeaders(headers http.Header, now time.Time) (state *State, ok bool, err error) {
	remainStr := headers.Get(HeaderRemaining)
	if remainStr == "" {
		return nil, false, nil
	}

	remaining, err := strconv.Atoi(remainStr)
	if err != nil {
		return nil, false, fmt.Errorf("parse %s header: %w", HeaderRemaining, err)
	}

	state = &State{
		Remaining:  remaining,
		ResetAt:    now.Add(DefaultWindow),
		LastUpdate: now,
	}

	if limitStr := headers.Get(HeaderLimit); limitStr != "" {
		limit, err := strconv.Atoi(limitStr)
		if err != nil {
			return nil, false, fmt.Errorf("parse %s header: %w", HeaderLimit, err)
		}
		state.Limit = limit
	}

	// Retry-After is only sent once the quota is exhausted and is the most precise.
	if retryStr := headers.Get(HeaderRetryAfter); retryStr != "" {
		seconds, err := strconv.ParseInt(retryStr, 10, 64)
		if err != nil {
			return nil, false, fmt.Errorf("parse %s header: %w", HeaderRetryAfter, err)
		}
		state.ResetAt = now.Add(time.Duration(seconds) * time.Second)
		return state, true, nil
	}

	if resetStr := headers.Get(HeaderReset); resetStr != "" {
		value, err := strconv.ParseInt(resetStr, 10, 64)
		if err != nil {
			return nil, false, fmt.Errorf("parse %s header: %w", HeaderReset, err)
		}
		if value >= unixThreshold {
			state.ResetAt = time.Unix(value, 0)
		} else {
			state.ResetAt = now.Add(time.Duration(value) * time.Second)
		}
	}

	return state, true, nil
}

// IsStale returns true if the state data is older than the given duration.
func (s *State) IsStale(maxAge time.Duration) bool {
	return time.Since(s.LastUpdate) > maxAge
}

// IsExpired reports whether the window described by the state has reset.
func (s *State) IsExpired() bool {
	return !time.Now().Before(s.ResetAt)
}

// NeedsCriticalBlock returns true if requests should be blocked.
func (s *State) NeedsCriticalBlock(critical int) bool {
	return !s.IsExpired() && s.Remaining < critical
}

// NeedsThrottling returns true if requests should be slowed down.
func (s *State) NeedsThrottling(critical, warning int) bool {
	return !s.IsExpired() && s.Remaining < warning && !s.NeedsCriticalBlock(critical)
}

// TimeUntilReset returns the duration until the window resets.
// Returns 0 if the reset time has already passed.
func (s *State) TimeUntilReset() time.Duration {
	duration := time.Until(s.ResetAt)
	if duration < 0 {
		return 0
	}
	return duration
}
