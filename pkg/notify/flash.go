package notify

import (
	"context"
	"encoding/json"

	scs "github.com/alexedwards/scs/v2"
	"github.com/rs/zerolog"
)

// DefaultFlashKey is the session key holding pending notifications.
const DefaultFlashKey = "filament_api_notifications"

// SessionFlash queues notifications in the user's scs session until the UI
// pulls them with Flush.
type SessionFlash struct {
	sessions *scs.SessionManager
	key      string
	logger   zerolog.Logger
}

// NewSessionFlash creates a flash notifier over sessions.
func NewSessionFlash(sessions *scs.SessionManager, logger zerolog.Logger) *SessionFlash {
	if sessions == nil {
		panic("session manager cannot be nil")
	}
	return &SessionFlash{sessions: sessions, key: DefaultFlashKey, logger: logger}
}

// Notify implements Notifier. Without a session in ctx the notification is logged and dropped.
func (f *SessionFlash) Notify(ctx context.Context, n Notification) {
	defer func() {
		if r := recover(); r != nil {
			f.logger.Warn().
				Interface("panic", r).
				Str("title", n.Title).
				Msg("Notification dropped: no session in context")
		}
	}()

	queued := f.decode(f.sessions.GetString(ctx, f.key))
	queued = append(queued, n)

	data, err := json.Marshal(queued)
	if err != nil {
		f.logger.Warn().Err(err).Msg("Failed to encode notifications")
		return
	}
	f.sessions.Put(ctx, f.key, string(data))
}

// Flush returns and clears the queued notifications.
func (f *SessionFlash) Flush(ctx context.Context) (out []Notification) {
	defer func() {
		if r := recover(); r != nil {
			out = nil
		}
	}()
	return f.decode(f.sessions.PopString(ctx, f.key))
}

func (f *SessionFlash) decode(raw string) []Notification {
	if raw == "" {
		return nil
	}
	var queued []Notification
	if err := json.Unmarshal([]byte(raw), &queued); err != nil {
		f.logger.Warn().Err(err).Msg("Discarding corrupt notification queue")
		return nil
	}
	return queued
}
