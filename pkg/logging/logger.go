// Package logging configures zerolog for the client, its failure channels and
// the proxy.
package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// DefaultChannel is the channel failure records go to when none is configured.
const DefaultChannel = "default"

// Config holds logger configuration.
type Config struct {
	// Level is the minimum level, see ParseLevel for accepted names.
	Level string

	// Pretty enables human-readable console output instead of JSON.
	Pretty bool

	// Output defaults to os.Stderr.
	Output io.Writer

	// Service is added to every record when set.
	Service string
}

// DefaultConfig returns a default logger configuration.
func DefaultConfig() Config {
	return Config{
		Level:   "info",
		Output:  os.Stderr,
		Service: "api-resources-client",
	}
}

// Setup configures and returns the global zerolog logger.
func Setup(cfg Config) zerolog.Logger {
	zerolog.SetGlobalLevel(ParseLevel(cfg.Level))
	zerolog.DurationFieldUnit = time.Millisecond

	output := cfg.Output
	if output == nil {
		output = os.Stderr
	}
	if cfg.Pretty {
		output = zerolog.ConsoleWriter{Out: output, TimeFormat: time.Kitchen}
	}

	ctx := zerolog.New(output).With().Timestamp()
	if cfg.Service != "" {
		ctx = ctx.Str("service", cfg.Service)
	}
	log.Logger = ctx.Logger()

	return log.Logger
}

// ParseLevel converts a level name to zerolog.Level.
//
// Besides zerolog's own names it accepts the syslog-style names
// (emergency, alert, critical, notice). Unknown names map to info.
func ParseLevel(level string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "info", "notice":
		return zerolog.InfoLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	case "critical", "alert", "emergency", "fatal":
		// never exit the process from a log call
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// NewLogger returns a child of the global logger tagged with component.
func NewLogger(component string) zerolog.Logger {
	return log.With().Str("component", component).Logger()
}

// WithChannel tags logger with a failure channel name, DefaultChannel when empty.
func WithChannel(logger zerolog.Logger, channel string) zerolog.Logger {
	if channel == "" {
		channel = DefaultChannel
	}
	return logger.With().Str("channel", channel).Logger()
}

// Levels used across the packages:
//
// Debug: cache hit/miss/store with cache_key and ttl, refresh intent
// consumption, individual failed attempts with attempt number.
//
// Info: proxy startup and shutdown, store selection.
//
// Warn: cache and rate limiter errors the request proceeds past, notification
// delivery problems.
//
// Error (or the configured reporter level): failed requests after retries,
// written by the failure reporter with method, endpoint, exception,
// request_data, headers (Authorization masked), raw_response_body and
// status_code.
