package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/Sternrassler/api-resources-client/pkg/logging"
	"github.com/Sternrassler/api-resources-client/pkg/notify"
	"github.com/rs/zerolog"
)

// LogConfig controls how failures are logged.
type LogConfig struct {
	Enabled bool

	// Channel is attached to every failure record as the "channel" field.
	Channel string

	// Level accepts zerolog names and emergency/alert/critical/notice.
	Level string

	IncludeRequestData  bool
	IncludeResponseData bool
}

// DefaultLogConfig returns the default failure logging configuration.
func DefaultLogConfig() LogConfig {
	return LogConfig{
		Enabled:             true,
		Channel:             "default",
		Level:               "error",
		IncludeRequestData:  true,
		IncludeResponseData: false,
	}
}

// Failure describes a request that failed at the service boundary.
type Failure struct {
	Err     error
	Method  string
	URL     string
	Data    any
	Headers map[string]string
}

// Reporter logs failed requests and tells the user about them.
type Reporter struct {
	config   LogConfig
	notifier notify.Notifier
	logger   zerolog.Logger
	level    zerolog.Level
}

// NewReporter creates a reporter. logger receives the failure records.
func NewReporter(cfg LogConfig, notifier notify.Notifier, logger zerolog.Logger) *Reporter {
	return &Reporter{
		config:   cfg,
		notifier: notifier,
		logger:   logging.WithChannel(logger, cfg.Channel),
		level:    logging.ParseLevel(cfg.Level),
	}
}

// Report logs f (when enabled) and sends a danger notification. It never panics.
func (r *Reporter) Report(ctx context.Context, f Failure) {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error().
				Interface("panic", rec).
				Str("method", f.Method).
				Msg("Failure reporting panicked")
		}
	}()

	if r.config.Enabled {
		r.log(f)
	}

	if r.notifier != nil {
		r.notifier.Notify(ctx, notify.Danger(failureTitle(f.Method), failureMessage(f.Err)))
	}
}

func (r *Reporter) log(f Failure) {
	event := r.logger.WithLevel(r.level).
		Str("method", f.Method).
		Str("endpoint", f.URL).
		Dict("exception", zerolog.Dict().
			Str("message", failureMessage(f.Err)).
			Int("code", StatusCode(f.Err)).
			Str("origin", fmt.Sprintf("%T", f.Err)))

	if r.config.IncludeRequestData && f.Data != nil {
		event = event.Interface("request_data", f.Data)
	}

	if len(f.Headers) > 0 {
		event = event.Interface("headers", maskHeaders(f.Headers))
	}

	if r.config.IncludeResponseData {
		if raw := responseBody(f.Err); raw != nil {
			event = event.Str("raw_response_body", string(raw))
		}
		if code := StatusCode(f.Err); code != 0 {
			event = event.Int("status_code", code)
		}
	}

	event.Msg("API request failed")
}

func failureTitle(method string) string {
	switch strings.ToUpper(method) {
	case http.MethodPost:
		return "Failed to create resource"
	case http.MethodPatch, http.MethodPut:
		return "Failed to update resource"
	case http.MethodDelete:
		return "Failed to delete resource"
	default:
		return "Failed to fetch data"
	}
}

func failureMessage(err error) string {
	if err == nil {
		return "unknown error"
	}
	return err.Error()
}

// responseBody returns the body captured when the request failed, if any.
func responseBody(err error) []byte {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.RawBody
	}
	var invalidErr *InvalidDataError
	if errors.As(err, &invalidErr) {
		return invalidErr.Raw
	}
	return nil
}

func maskHeaders(headers map[string]string) map[string]string {
	out := make(map[string]string, len(headers))
	for name, value := range headers {
		if strings.EqualFold(name, "Authorization") {
			value = "***"
		}
		out[name] = value
	}
	return out
}
