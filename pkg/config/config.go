// Package config loads the client and proxy configuration from environment variables.
package config

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/Sternrassler/api-resources-client/pkg/client"
	"github.com/Sternrassler/api-resources-client/pkg/logging"
	"github.com/Sternrassler/api-resources-client/pkg/resource"
	"github.com/caarlos0/env/v11"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

// Config holds all application configuration
type Config struct {
	API APIConfig `envPrefix:"FILAMENT_API_"`

	// RedisURL enables the shared Redis cache and rate limit state.
	RedisURL string `env:"REDIS_URL"`

	Port            int           `env:"PORT" envDefault:"8080"`
	LogLevel        string        `env:"LOG_LEVEL" envDefault:"info"`
	LogPretty       bool          `env:"LOG_PRETTY" envDefault:"false"`
	SessionLifetime time.Duration `env:"SESSION_LIFETIME" envDefault:"12h"`
}

// APIConfig describes the remote API and how it is called.
type APIConfig struct {
	BaseURL string `env:"BASE_URL" envDefault:"https://api.example.com"`

	// Token is sent as "Authorization: Bearer <token>" when set.
	Token string `env:"TOKEN"`

	// OAuth enables the client credentials flow instead of a static token.
	OAuth OAuthConfig `envPrefix:"OAUTH_"`

	// Headers are extra default headers, "Name:value,Name:value".
	Headers map[string]string `env:"HEADERS"`

	PageParam    string `env:"PAGINATION_PAGE" envDefault:"page"`
	PerPageParam string `env:"PAGINATION_PER_PAGE" envDefault:"per_page"`

	CacheTTLSeconds int    `env:"CACHE_TTL" envDefault:"300"`
	CachePrefix     string `env:"CACHE_PREFIX" envDefault:"filament_api_"`

	TotalKey   string `env:"RESPONSE_TOTAL_KEY" envDefault:"data.total"`
	ResultsKey string `env:"RESPONSE_RESULTS_KEY" envDefault:"data.data"`
	RecordKey  string `env:"RESPONSE_META_KEY" envDefault:"data"`

	TimeoutSeconds int `env:"TIMEOUT" envDefault:"30"`
	RetryAttempts  int `env:"RETRY_ATTEMPTS" envDefault:"3"`
	RetryDelayMS   int `env:"RETRY_DELAY" envDefault:"100"`

	Logging LoggingConfig `envPrefix:"LOGGING_"`
}

// OAuthConfig holds OAuth2 client credentials.
type OAuthConfig struct {
	TokenURL     string   `env:"TOKEN_URL"`
	ClientID     string   `env:"CLIENT_ID"`
	ClientSecret string   `env:"CLIENT_SECRET"`
	Scopes       []string `env:"SCOPES"`
}

// Enabled reports whether client credentials are configured.
func (o OAuthConfig) Enabled() bool {
	return o.TokenURL != "" && o.ClientID != ""
}

// LoggingConfig controls failure logging.
type LoggingConfig struct {
	Enabled             bool   `env:"ENABLED" envDefault:"true"`
	Channel             string `env:"CHANNEL" envDefault:"default"`
	Level               string `env:"LEVEL" envDefault:"error"`
	IncludeRequestData  bool   `env:"INCLUDE_REQUEST_DATA" envDefault:"true"`
	IncludeResponseData bool   `env:"INCLUDE_RESPONSE_DATA" envDefault:"false"`
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadFrom reads configuration from the given variables instead of the process environment.
func LoadFrom(environ map[string]string) (*Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, env.Options{Environment: environ}); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	u, err := url.Parse(c.API.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("FILAMENT_API_BASE_URL must be an absolute http(s) URL, got %q", c.API.BaseURL)
	}
	if c.API.TimeoutSeconds <= 0 {
		return fmt.Errorf("FILAMENT_API_TIMEOUT must be > 0, got %d", c.API.TimeoutSeconds)
	}
	if c.API.RetryAttempts < 1 {
		return fmt.Errorf("FILAMENT_API_RETRY_ATTEMPTS must be >= 1, got %d", c.API.RetryAttempts)
	}
	if c.API.RetryDelayMS < 0 {
		return fmt.Errorf("FILAMENT_API_RETRY_DELAY must be >= 0, got %d", c.API.RetryDelayMS)
	}
	if c.API.CacheTTLSeconds < 0 {
		return fmt.Errorf("FILAMENT_API_CACHE_TTL must be >= 0, got %d", c.API.CacheTTLSeconds)
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("PORT must be between 1 and 65535, got %d", c.Port)
	}
	return nil
}

// CacheTTL returns the default cache TTL.
func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.API.CacheTTLSeconds) * time.Second
}

// ClientConfig maps the environment onto a client configuration. Store,
// session, notifier and rate limiter are left for the caller to wire.
func (c *Config) ClientConfig(ctx context.Context) client.Config {
	cfg := client.DefaultConfig(c.API.BaseURL)
	cfg.DefaultHeaders = client.StaticHeaders(c.API.Headers)
	cfg.DefaultHeaders["X-Request-Id"] = client.RequestID()

	switch {
	case c.API.OAuth.Enabled():
		cc := clientcredentials.Config{
			ClientID:     c.API.OAuth.ClientID,
			ClientSecret: c.API.OAuth.ClientSecret,
			TokenURL:     c.API.OAuth.TokenURL,
			Scopes:       c.API.OAuth.Scopes,
		}
		cfg.DefaultHeaders["Authorization"] = client.BearerToken(cc.TokenSource(ctx))
	case c.API.Token != "":
		cfg.DefaultHeaders["Authorization"] = client.BearerToken(oauth2.StaticTokenSource(&oauth2.Token{
			AccessToken: c.API.Token,
			TokenType:   "Bearer",
		}))
	}

	cfg.Pagination = client.PaginationParams{Page: c.API.PageParam, PerPage: c.API.PerPageParam}
	cfg.CachePrefix = c.API.CachePrefix
	cfg.DefaultTTL = c.CacheTTL()
	cfg.Timeout = time.Duration(c.API.TimeoutSeconds) * time.Second
	cfg.Retry = client.RetryConfig{
		Attempts: c.API.RetryAttempts,
		Delay:    time.Duration(c.API.RetryDelayMS) * time.Millisecond,
	}
	cfg.Logging = client.LogConfig{
		Enabled:             c.API.Logging.Enabled,
		Channel:             c.API.Logging.Channel,
		Level:               c.API.Logging.Level,
		IncludeRequestData:  c.API.Logging.IncludeRequestData,
		IncludeResponseData: c.API.Logging.IncludeResponseData,
	}

	return cfg
}

// Envelope returns the configured response envelope.
func (c *Config) Envelope() resource.Envelope {
	return resource.Envelope{
		TotalKey:   c.API.TotalKey,
		ResultsKey: c.API.ResultsKey,
		RecordKey:  c.API.RecordKey,
	}
}

// Logging returns the process logging configuration.
func (c *Config) Logging() logging.Config {
	cfg := logging.DefaultConfig()
	cfg.Level = c.LogLevel
	cfg.Pretty = c.LogPretty
	return cfg
}
