// Package client provides the API access layer: an HTTP client with timeout,
// fixed-delay retry, read-through response caching, write-triggered cache
// invalidation and failure reporting.
package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/Sternrassler/api-resources-client/pkg/cache"
	"github.com/Sternrassler/api-resources-client/pkg/logging"
	"github.com/Sternrassler/api-resources-client/pkg/notify"
	"github.com/Sternrassler/api-resources-client/pkg/session"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
)

// Prometheus metrics for API client operations.
var (
	apiRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "api_requests_total",
		Help: "Total API requests by method and status",
	}, []string{"method", "status"})

	apiRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "api_request_duration_seconds",
		Help:    "API request duration in seconds by method, retries included",
		Buckets: []float64{0.05, 0.1, 0.5, 1, 2, 5, 10, 30},
	}, []string{"method"})

	apiErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "api_errors_total",
		Help: "Total API errors by class",
	}, []string{"class"})
)

// RateLimiter gates outgoing requests based on state learned from responses.
type RateLimiter interface {
	ShouldAllowRequest(ctx context.Context) (bool, error)
	UpdateFromHeaders(ctx context.Context, headers http.Header) error
}

// Client is the API access layer used by resource code.
type Client struct {
	mu         sync.RWMutex
	httpClient *http.Client
	config     Config

	store       cache.Store
	session     session.RefreshIntent
	reporter    *Reporter
	rateLimiter RateLimiter
	logger      zerolog.Logger
}

// Config holds the client configuration.
type Config struct {
	// BaseURL is prepended to every endpoint
	BaseURL string

	// DefaultHeaders are sent with every request; per-call headers win
	DefaultHeaders map[string]HeaderProvider

	// Pagination parameter names
	Pagination PaginationParams

	// Caching
	CachePrefix string
	DefaultTTL  time.Duration // TTL for callers that don't choose one
	Store       cache.Store   // nil: in-process store

	// HTTP
	Timeout time.Duration // per attempt
	Retry   RetryConfig

	// Failure reporting
	Logging  LogConfig
	Notifier notify.Notifier // nil: notifications are logged

	// Session carries the write-then-refresh intent (nil: session.None)
	Session session.RefreshIntent

	// RateLimiter is optional
	RateLimiter RateLimiter
}

// DefaultConfig returns a default configuration for baseURL.
func DefaultConfig(baseURL string) Config {
	return Config{
		BaseURL:        baseURL,
		DefaultHeaders: map[string]HeaderProvider{},
		Pagination:     DefaultPaginationParams(),
		CachePrefix:    cache.DefaultPrefix,
		DefaultTTL:     5 * time.Minute,
		Timeout:        30 * time.Second,
		Retry:          DefaultRetryConfig(),
		Logging:        DefaultLogConfig(),
	}
}

// New creates a new API client.
func New(cfg Config) (*Client, error) {
	if cfg.BaseURL != "" {
		u, err := url.Parse(cfg.BaseURL)
		if err != nil {
			return nil, fmt.Errorf("invalid base url: %w", err)
		}
		if u.Scheme != "http" && u.Scheme != "https" {
			return nil, fmt.Errorf("base url must be http or https (got %q)", cfg.BaseURL)
		}
	}

	if cfg.Timeout <= 0 {
		return nil, fmt.Errorf("timeout must be > 0 (got %s)", cfg.Timeout)
	}

	if cfg.Retry.Attempts < 1 {
		return nil, fmt.Errorf("retry attempts must be >= 1 (got %d)", cfg.Retry.Attempts)
	}

	if cfg.Retry.Delay < 0 {
		return nil, fmt.Errorf("retry delay must be >= 0 (got %s)", cfg.Retry.Delay)
	}

	if cfg.Pagination.Page == "" || cfg.Pagination.PerPage == "" {
		return nil, fmt.Errorf("pagination parameter names are required")
	}

	logger := logging.NewLogger("api-client")

	if cfg.Store == nil {
		cfg.Store = cache.NewMemoryStore(cache.DefaultCleanupInterval)
	}
	if cfg.Session == nil {
		cfg.Session = session.None{}
	}
	if cfg.Notifier == nil {
		cfg.Notifier = notify.NewLogNotifier(logger)
	}
	headers := make(map[string]HeaderProvider, len(cfg.DefaultHeaders))
	for name, provider := range cfg.DefaultHeaders {
		headers[name] = provider
	}
	cfg.DefaultHeaders = headers

	return &Client{
		httpClient:  &http.Client{},
		config:      cfg,
		store:       cfg.Store,
		session:     cfg.Session,
		reporter:    NewReporter(cfg.Logging, cfg.Notifier, logger),
		rateLimiter: cfg.RateLimiter,
		logger:      logger,
	}, nil
}

// settings is a consistent copy of the mutable configuration.
type settings struct {
	baseURL    string
	headers    map[string]HeaderProvider
	pagination PaginationParams
	prefix     string
	timeout    time.Duration
	retry      RetryConfig
	httpClient *http.Client
}

func (c *Client) settings() settings {
	c.mu.RLock()
	defer c.mu.RUnlock()

	headers := make(map[string]HeaderProvider, len(c.config.DefaultHeaders))
	for name, provider := range c.config.DefaultHeaders {
		headers[name] = provider
	}

	return settings{
		baseURL:    c.config.BaseURL,
		headers:    headers,
		pagination: c.config.Pagination,
		prefix:     c.config.CachePrefix,
		timeout:    c.config.Timeout,
		retry:      c.config.Retry,
		httpClient: c.httpClient,
	}
}

// SetBaseURL sets the URL prepended to every endpoint.
func (c *Client) SetBaseURL(baseURL string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.config.BaseURL = baseURL
}

// SetDefaultHeaders replaces the configured default headers.
func (c *Client) SetDefaultHeaders(headers map[string]HeaderProvider) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.config.DefaultHeaders = make(map[string]HeaderProvider, len(headers))
	for name, provider := range headers {
		c.config.DefaultHeaders[name] = provider
	}
}

// AddDefaultHeader adds or replaces one default header.
func (c *Client) AddDefaultHeader(name string, provider HeaderProvider) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.config.DefaultHeaders[name] = provider
}

// SetTimeout sets the per-attempt request timeout.
func (c *Client) SetTimeout(timeout time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.config.Timeout = timeout
}

// SetRetryAttempts sets the total number of attempts per request.
func (c *Client) SetRetryAttempts(attempts int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.config.Retry.Attempts = attempts
}

// SetRetryDelay sets the wait between attempts.
func (c *Client) SetRetryDelay(delay time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.config.Retry.Delay = delay
}

// SetHTTPClient sets a custom HTTP client (for testing or custom transports).
func (c *Client) SetHTTPClient(client *http.Client) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.httpClient = client
}

// DefaultTTL returns the configured default cache TTL.
func (c *Client) DefaultTTL() time.Duration {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.config.DefaultTTL
}

// Pagination returns the configured pagination parameter names.
func (c *Client) Pagination() PaginationParams {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.config.Pagination
}

// Store returns the response cache.
func (c *Client) Store() cache.Store {
	return c.store
}

// Reporter returns the failure reporter.
func (c *Client) Reporter() *Reporter {
	return c.reporter
}

// ReportFailure logs and notifies a failed request to target, a path
// relative to the base URL. When per-call headers were given, the full set
// sent with the request (defaults merged with them) is logged.
func (c *Client) ReportFailure(ctx context.Context, method, target string, data any, headers map[string]string, err error) {
	s := c.settings()

	logged := headers
	if len(headers) > 0 {
		if merged, hErr := resolveHeaders(ctx, s.headers, headers); hErr == nil {
			logged = make(map[string]string, len(merged))
			for name := range merged {
				logged[name] = merged.Get(name)
			}
		}
	}

	c.reporter.Report(ctx, Failure{
		Err:     err,
		Method:  method,
		URL:     s.baseURL + target,
		Data:    data,
		Headers: logged,
	})
}

// Close releases resources held by the client.
func (c *Client) Close() error {
	c.httpClient.CloseIdleConnections()
	return nil
}
