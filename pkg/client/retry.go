package client

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog/log"
)

// Prometheus metrics for retry operations.
var (
	apiRetriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "api_retries_total",
		Help: "Total number of retry attempts by error class",
	}, []string{"error_class"})

	apiRetryExhaustedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "api_retry_exhausted_total",
		Help: "Total number of times retry attempts were exhausted by error class",
	}, []string{"error_class"})
)

// RetryConfig holds the configuration for retry logic.
type RetryConfig struct {
	// Attempts is the total number of attempts, including the initial request.
	Attempts int

	// Delay is the fixed wait between two attempts.
	Delay time.Duration
}

// DefaultRetryConfig returns the default retry configuration.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		Attempts: 3,
		Delay:    100 * time.Millisecond,
	}
}

// retryFixed runs fn until it succeeds, returns a non-retryable error, or
// config.Attempts attempts have been made, sleeping config.Delay between
// attempts. It returns the number of attempts made and the last error.
//
// Writes are retried like reads, so a write may be applied more than once.
func retryFixed(ctx context.Context, config RetryConfig, fn func(attempt int) error) (int, error) {
	attempts := config.Attempts
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		err := fn(attempt)
		if err == nil {
			if attempt > 1 {
				log.Info().
					Int("attempt", attempt).
					Msg("Request succeeded after retry")
			}
			return attempt, nil
		}

		lastErr = err
		errorClass := string(classify(err))

		if !shouldRetry(err) {
			return attempt, lastErr
		}

		if attempt >= attempts {
			apiRetryExhaustedTotal.WithLabelValues(errorClass).Inc()
			log.Warn().
				Str("error_class", errorClass).
				Int("max_attempts", attempts).
				Msg("Retry attempts exhausted")
			return attempt, lastErr
		}

		apiRetriesTotal.WithLabelValues(errorClass).Inc()
		log.Debug().
			Str("error_class", errorClass).
			Int("attempt", attempt).
			Dur("delay", config.Delay).
			Msg("Retrying request after delay")

		select {
		case <-ctx.Done():
			log.Warn().
				Str("error_class", errorClass).
				Int("attempt", attempt).
				Msg("Context cancelled during retry delay")
			return attempt, fmt.Errorf("%w: %w", ErrContextCancelled, lastErr)
		case <-time.After(config.Delay):
		}
	}

	return attempts, lastErr
}
