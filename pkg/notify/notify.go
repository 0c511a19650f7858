// Package notify delivers user-facing notifications about failed API calls.
package notify

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Severity is the notification color/importance.
type Severity string

const (
	SeverityDanger  Severity = "danger"
	SeverityWarning Severity = "warning"
	SeveritySuccess Severity = "success"
	SeverityInfo    Severity = "info"
)

// Notification is a message for the end user.
type Notification struct {
	Title    string    `json:"title"`
	Body     string    `json:"body"`
	Severity Severity  `json:"severity"`
	At       time.Time `json:"at"`
}

// Notifier delivers notifications. Implementations must not block for long
// and must be safe for concurrent use.
type Notifier interface {
	Notify(ctx context.Context, n Notification)
}

// Danger builds a danger-level notification.
func Danger(title, body string) Notification {
	return Notification{
		Title:    title,
		Body:     body,
		Severity: SeverityDanger,
		At:       time.Now(),
	}
}

// LogNotifier writes notifications to a logger. Used when no UI is attached.
type LogNotifier struct {
	logger zerolog.Logger
}

// NewLogNotifier creates a notifier that logs through logger.
func NewLogNotifier(logger zerolog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

// Notify implements Notifier.
func (l *LogNotifier) Notify(_ context.Context, n Notification) {
	ev := l.logger.Info()
	switch n.Severity {
	case SeverityDanger:
		ev = l.logger.Error()
	case SeverityWarning:
		ev = l.logger.Warn()
	}
	ev.Str("title", n.Title).
		Str("severity", string(n.Severity)).
		Msg(n.Body)
}

// Recorder keeps notifications in memory.
type Recorder struct {
	mu    sync.Mutex
	items []Notification
}

// NewRecorder creates an empty recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

// Notify implements Notifier.
func (r *Recorder) Notify(_ context.Context, n Notification) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items = append(r.items, n)
}

// Notifications returns a copy of everything recorded so far.
func (r *Recorder) Notifications() []Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Notification, len(r.items))
	copy(out, r.items)
	return out
}

// Reset drops recorded notifications.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items = nil
}

type multi []Notifier

// Multi fans a notification out to every notifier.
func Multi(notifiers ...Notifier) Notifier {
	return multi(notifiers)
}

func (m multi) Notify(ctx context.Context, n Notification) {
	for _, notifier := range m {
		if notifier != nil {
			notifier.Notify(ctx, n)
		}
	}
}
