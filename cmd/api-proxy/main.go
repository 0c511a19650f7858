// Command api-proxy serves a remote JSON API through the caching client,
// with per-session refresh after writes and session-held failure notifications.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	scs "github.com/alexedwards/scs/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/Sternrassler/api-resources-client/pkg/cache"
	"github.com/Sternrassler/api-resources-client/pkg/client"
	"github.com/Sternrassler/api-resources-client/pkg/config"
	"github.com/Sternrassler/api-resources-client/pkg/logging"
	"github.com/Sternrassler/api-resources-client/pkg/notify"
	"github.com/Sternrassler/api-resources-client/pkg/ratelimit"
	"github.com/Sternrassler/api-resources-client/pkg/session"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}

	logger := logging.Setup(cfg.Logging())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	clientCfg := cfg.ClientConfig(ctx)

	// Redis is optional: without it responses are cached in-process
	if cfg.RedisURL != "" {
		redisClient, err := connectRedis(ctx, cfg.RedisURL)
		if err != nil {
			logger.Fatal().Err(err).Msg("Failed to connect to Redis")
		}
		defer redisClient.Close()

		clientCfg.Store = cache.NewRedisStore(redisClient)
		clientCfg.RateLimiter = ratelimit.NewTracker(redisClient, ratelimit.DefaultConfig(), logging.NewLogger("ratelimit"))
		logger.Info().Msg("Using Redis cache")
	} else {
		logger.Info().Msg("Using in-memory cache")
	}

	// Sessions
	sess := scs.New()
	sess.Lifetime = cfg.SessionLifetime
	sess.Cookie.HttpOnly = true
	sess.Cookie.SameSite = http.SameSiteLaxMode

	flash := notify.NewSessionFlash(sess, logging.NewLogger("notify"))
	clientCfg.Session = session.NewSCS(sess)
	clientCfg.Notifier = notify.Multi(flash, notify.NewLogNotifier(logging.NewLogger("notify")))

	apiClient, err := client.New(clientCfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to create API client")
	}
	defer apiClient.Close()

	s := New(ServerOptions{
		Client: apiClient,
		Sess:   sess,
		Flash:  flash,
		TTL:    cfg.CacheTTL(),
		Logger: logger,
	})

	srv := &http.Server{
		Addr:              ":" + strconv.Itoa(cfg.Port),
		Handler:           s.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("Graceful shutdown failed")
		}
	}()

	logger.Info().
		Str("addr", srv.Addr).
		Str("base_url", clientCfg.BaseURL).
		Msg("Starting API proxy")

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal().Err(err).Msg("Server failed")
	}
}

func connectRedis(ctx context.Context, rawURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(rawURL)
	if err != nil {
		return nil, err
	}

	redisClient := redis.NewClient(opts)
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := redisClient.Ping(pingCtx).Err(); err != nil {
		redisClient.Close()
		return nil, err
	}
	return redisClient, nil
}
