package client

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/Sternrassler/api-resources-client/pkg/cache"
)

// FetchOptions controls a read.
type FetchOptions struct {
	// Params become the query string.
	Params Params

	// Page enables pagination when > 0; PerPage defaults to DefaultPerPage.
	Page    int
	PerPage int

	// CacheTTL enables read-through caching when > 0.
	CacheTTL time.Duration

	// ForceRefresh drops the cached entry before fetching.
	ForceRefresh bool

	// Headers override the configured default headers.
	Headers map[string]string
}

// target returns the compiled request target and its cache key.
func (c *Client) target(endpoint string, opts FetchOptions) (string, string) {
	s := c.settings()
	compiled := Compile(endpoint, opts.Params, opts.Page, opts.PerPage, s.pagination)
	return compiled, cache.Key(s.prefix, compiled)
}

// FetchResult performs a GET through the response cache.
//
// The session refresh intent is consumed on every call. When set, or when
// opts.ForceRefresh is true, the cached entry is dropped and the API is hit.
// Failed requests are never cached. Cache errors degrade to a direct fetch.
func (c *Client) FetchResult(ctx context.Context, endpoint string, opts FetchOptions) (Body, error) {
	compiled, key := c.target(endpoint, opts)
	refresh := c.session.Consume(ctx)

	if opts.CacheTTL <= 0 {
		return c.Send(ctx, http.MethodGet, compiled, nil, opts.Headers)
	}

	logger := c.logger.With().
		Str("endpoint", compiled).
		Str("cache_key", key).
		Logger()

	if refresh || opts.ForceRefresh {
		if err := c.store.Delete(ctx, key); err != nil {
			logger.Warn().Err(err).Msg("Failed to drop cache entry")
		}
		logger.Debug().
			Bool("session_refresh", refresh).
			Bool("force_refresh", opts.ForceRefresh).
			Msg("Bypassing cache")
	} else {
		entry, err := c.store.Get(ctx, key)
		switch {
		case err == nil && !entry.IsExpired():
			logger.Debug().Dur("ttl", entry.TTL()).Msg("Cache hit")
			return Body(entry.Data), nil
		case err == nil, errors.Is(err, cache.ErrCacheMiss):
		default:
			logger.Warn().Err(err).Msg("Cache read failed, fetching from API")
		}
	}

	body, err := c.Send(ctx, http.MethodGet, compiled, nil, opts.Headers)
	if err != nil {
		return nil, err
	}

	if err := c.store.Set(ctx, key, cache.NewEntry(body, opts.CacheTTL)); err != nil {
		logger.Warn().Err(err).Msg("Failed to cache response")
	}

	return body, nil
}

// Fetch is FetchResult with failures reported and an empty body returned.
func (c *Client) Fetch(ctx context.Context, endpoint string, opts FetchOptions) Body {
	body, err := c.FetchResult(ctx, endpoint, opts)
	if err != nil {
		compiled, _ := c.target(endpoint, opts)
		c.ReportFailure(ctx, http.MethodGet, compiled, nil, opts.Headers, err)
		return EmptyBody()
	}
	return body
}

// Invalidate drops the cached response for the read described by endpoint
// and opts. Only Params, Page and PerPage are used.
func (c *Client) Invalidate(ctx context.Context, endpoint string, opts FetchOptions) error {
	_, key := c.target(endpoint, opts)
	return c.store.Delete(ctx, key)
}
