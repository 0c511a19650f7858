// Package session holds the refresh intent that lets a successful write force
// the next cached read to go back to the API.
//
// The intent is a single boolean per session. It is set after a write and
// consumed (read, then cleared) by the next fetch, whatever endpoint that
// fetch targets. Unrelated fetches may therefore bypass the cache once.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	scs "github.com/alexedwards/scs/v2"
)

// DefaultKey is the session key holding the refresh flag.
const DefaultKey = "filament_api_force_cache_refresh"

// ErrNoSession is returned when the context carries no loaded session.
var ErrNoSession = errors.New("no session in context")

// RefreshIntent records that the next fetch must bypass the cache.
type RefreshIntent interface {
	// Mark sets the intent.
	Mark(ctx context.Context) error

	// Consume reports whether the intent was set and clears it.
	// At most one of several concurrent callers observes true.
	Consume(ctx context.Context) bool
}

// None never records an intent. Callers refresh by passing an explicit
// force-refresh flag on the next fetch.
type None struct{}

// Mark implements RefreshIntent.
func (None) Mark(context.Context) error { return nil }

// Consume implements RefreshIntent.
func (None) Consume(context.Context) bool { return false }

// Memory is a single process-wide intent, for CLIs and workers acting as one user.
type Memory struct {
	pending atomic.Bool
}

// NewMemory creates a cleared in-process intent.
func NewMemory() *Memory {
	return &Memory{}
}

// Mark implements RefreshIntent.
func (m *Memory) Mark(context.Context) error {
	m.pending.Store(true)
	return nil
}

// Consume implements RefreshIntent.
func (m *Memory) Consume(context.Context) bool {
	return m.pending.Swap(false)
}

// Pending reports whether the intent is set without clearing it.
func (m *Memory) Pending() bool {
	return m.pending.Load()
}

// SCS stores the intent in the caller's scs session.
// The request context must have passed through SessionManager.LoadAndSave.
type SCS struct {
	sessions *scs.SessionManager
	key      string
}

// NewSCS creates a session-backed intent stored under DefaultKey.
func NewSCS(sessions *scs.SessionManager) *SCS {
	if sessions == nil {
		panic("session manager cannot be nil")
	}
	return &SCS{sessions: sessions, key: DefaultKey}
}

// WithKey returns a copy storing the flag under key.
func (s *SCS) WithKey(key string) *SCS {
	return &SCS{sessions: s.sessions, key: key}
}

// Mark implements RefreshIntent.
func (s *SCS) Mark(ctx context.Context) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrNoSession, r)
		}
	}()
	s.sessions.Put(ctx, s.key, true)
	return nil
}

// Consume implements RefreshIntent. A context without a session has no intent.
func (s *SCS) Consume(ctx context.Context) (pending bool) {
	defer func() {
		if r := recover(); r != nil {
			pending = false
		}
	}()
	return s.sessions.PopBool(ctx, s.key)
}

// Pending reports whether the intent is set without clearing it.
func (s *SCS) Pending(ctx context.Context) (pending bool) {
	defer func() {
		if r := recover(); r != nil {
			pending = false
		}
	}()
	return s.sessions.GetBool(ctx, s.key)
}
