package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Prometheus metrics for rate limit tracking.
var (
	apiRateLimitRemaining = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "api_rate_limit_remaining",
		Help: "Requests remaining in the remote API's current rate limit window",
	})

	apiRateLimitBlocksTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "api_rate_limit_blocks_total",
		Help: "Total number of requests blocked because the quota is exhausted",
	})

	apiRateLimitThrottlesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "api_rate_limit_throttles_total",
		Help: "Total number of requests throttled because the quota is low",
	})
)

// Config holds tracker thresholds.
type Config struct {
	// KeyPrefix namespaces the Redis hash holding the state.
	KeyPrefix string

	// CriticalRemaining blocks requests while fewer requests remain.
	CriticalRemaining int

	// WarningRemaining throttles requests while fewer requests remain.
	WarningRemaining int

	// ThrottleDelay is slept before a throttled request.
	ThrottleDelay time.Duration
}

// DefaultConfig returns the default tracker configuration.
func DefaultConfig() Config {
	return Config{
		KeyPrefix:         DefaultKeyPrefix,
		CriticalRemaining: DefaultCriticalRemaining,
		WarningRemaining:  DefaultWarningRemaining,
		ThrottleDelay:     time.Second,
	}
}

// Tracker monitors the remote API's rate limit and gates requests.
type Tracker struct {
	redis  *redis.Client
	config Config
	logger zerolog.Logger
}

// NewTracker creates a new rate limit tracker.
func NewTracker(redisClient *redis.Client, cfg Config, logger zerolog.Logger) *Tracker {
	if cfg.KeyPrefix == "" {
		cfg.KeyPrefix = DefaultKeyPrefix
	}
	return &Tracker{
		redis:  redisClient,
		config: cfg,
		logger: logger,
	}
}

func (t *Tracker) key() string {
	return t.config.KeyPrefix + ":state"
}

// GetState retrieves the current rate limit state from Redis.
// Returns a default healthy state if no data exists in Redis.
func (t *Tracker) GetState(ctx context.Context) (*State, error) {
	fields, err := t.redis.HGetAll(ctx, t.key()).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("get rate limit state: %w", err)
	}

	if len(fields) == 0 {
		t.logger.Debug().Msg("No rate limit state in Redis, assuming healthy")
		return HealthyState(time.Now()), nil
	}

	state := &State{}
	if state.Limit, err = atoiField(fields, "limit"); err != nil {
		return nil, err
	}
	if state.Remaining, err = atoiField(fields, "remaining"); err != nil {
		return nil, err
	}
	resetAt, err := strconv.ParseInt(fields["reset_at"], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("parse reset_at: %w", err)
	}
	state.ResetAt = time.Unix(resetAt, 0)
	lastUpdate, err := strconv.ParseInt(fields["last_update"], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("parse last_update: %w", err)
	}
	state.LastUpdate = time.Unix(0, lastUpdate)

	return state, nil
}

func atoiField(fields map[string]string, name string) (int, error) {
	raw, ok := fields[name]
	if !ok || raw == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", name, err)
	}
	return v, nil
}

// UpdateFromHeaders parses rate limit headers and updates Redis state.
// Responses without rate limit headers leave the state untouched.
func (t *Tracker) UpdateFromHeaders(ctx context.Context, headers http.Header) error {
	state, ok, err := ParseHeaders(headers, time.Now())
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}

	// The state expires with the window it describes.
	pipe := t.redis.TxPipeline()
	pipe.HSet(ctx, t.key(),
		"limit", state.Limit,
		"remaining", state.Remaining,
		"reset_at", state.ResetAt.Unix(),
		"last_update", state.LastUpdate.UnixNano(),
	)
	pipe.ExpireAt(ctx, t.key(), state.ResetAt.Add(time.Second))
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("store rate limit state in redis: %w", err)
	}

	apiRateLimitRemaining.Set(float64(state.Remaining))

	switch {
	case state.NeedsCriticalBlock(t.config.CriticalRemaining):
		t.logger.Error().
			Int("remaining", state.Remaining).
			Time("reset_at", state.ResetAt).
			Msg("API rate limit exhausted - requests will be blocked")
	case state.NeedsThrottling(t.config.CriticalRemaining, t.config.WarningRemaining):
		t.logger.Warn().
			Int("remaining", state.Remaining).
			Time("reset_at", state.ResetAt).
			Msg("API rate limit low - requests will be throttled")
	default:
		t.logger.Debug().
			Int("remaining", state.Remaining).
			Int("limit", state.Limit).
			Msg("API rate limit state updated")
	}

	return nil
}

// ShouldAllowRequest checks if a request should be allowed based on current rate limit state.
// Returns false if the quota is exhausted. Returns true, after sleeping
// ThrottleDelay, if the quota is low.
func (t *Tracker) ShouldAllowRequest(ctx context.Context) (bool, error) {
	state, err := t.GetState(ctx)
	if err != nil {
		return false, fmt.Errorf("get rate limit state: %w", err)
	}

	if state.NeedsCriticalBlock(t.config.CriticalRemaining) {
		t.logger.Error().
			Int("remaining", state.Remaining).
			Dur("wait_duration", state.TimeUntilReset()).
			Msg("API rate limit exhausted - blocking request")

		apiRateLimitBlocksTotal.Inc()
		return false, nil
	}

	if state.NeedsThrottling(t.config.CriticalRemaining, t.config.WarningRemaining) {
		t.logger.Warn().
			Int("remaining", state.Remaining).
			Dur("delay", t.config.ThrottleDelay).
			Msg("API rate limit low - throttling request")

		apiRateLimitThrottlesTotal.Inc()
		select {
		case <-ctx.Done():
			return false, ctx.Err()
		case <-time.After(t.config.ThrottleDelay):
		}
	}

	return true, nil
}
