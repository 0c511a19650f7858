package client

import (
	"context"
	"net/http"
)

// WriteOption configures a single write.
type WriteOption func(*writeOptions)

type writeOptions struct {
	headers map[string]string
	data    any
	refresh bool
}

// WithHeaders sets per-call headers, overriding configured defaults.
func WithHeaders(headers map[string]string) WriteOption {
	return func(o *writeOptions) {
		o.headers = headers
	}
}

// WithData sets the JSON body of a DELETE.
func WithData(data any) WriteOption {
	return func(o *writeOptions) {
		o.data = data
	}
}

// WithoutRefresh keeps the next fetch in the session served from cache.
func WithoutRefresh() WriteOption {
	return func(o *writeOptions) {
		o.refresh = false
	}
}

func applyWriteOptions(opts []WriteOption) writeOptions {
	o := writeOptions{refresh: true}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// PostResult sends data as a JSON POST.
func (c *Client) PostResult(ctx context.Context, endpoint string, data any, opts ...WriteOption) (Body, error) {
	return c.write(ctx, http.MethodPost, endpoint, data, applyWriteOptions(opts))
}

// PatchResult sends data as a JSON PATCH.
func (c *Client) PatchResult(ctx context.Context, endpoint string, data any, opts ...WriteOption) (Body, error) {
	return c.write(ctx, http.MethodPatch, endpoint, data, applyWriteOptions(opts))
}

// PutResult sends data as a JSON PUT.
func (c *Client) PutResult(ctx context.Context, endpoint string, data any, opts ...WriteOption) (Body, error) {
	return c.write(ctx, http.MethodPut, endpoint, data, applyWriteOptions(opts))
}

// DeleteResult sends a DELETE, with a JSON body when WithData is given.
func (c *Client) DeleteResult(ctx context.Context, endpoint string, opts ...WriteOption) (Body, error) {
	o := applyWriteOptions(opts)
	return c.write(ctx, http.MethodDelete, endpoint, o.data, o)
}

// Post is PostResult with failures reported and an empty body returned.
func (c *Client) Post(ctx context.Context, endpoint string, data any, opts ...WriteOption) Body {
	return c.swallow(ctx, http.MethodPost, endpoint, data, applyWriteOptions(opts))
}

// Patch is PatchResult with failures reported and an empty body returned.
func (c *Client) Patch(ctx context.Context, endpoint string, data any, opts ...WriteOption) Body {
	return c.swallow(ctx, http.MethodPatch, endpoint, data, applyWriteOptions(opts))
}

// Put is PutResult with failures reported and an empty body returned.
func (c *Client) Put(ctx context.Context, endpoint string, data any, opts ...WriteOption) Body {
	return c.swallow(ctx, http.MethodPut, endpoint, data, applyWriteOptions(opts))
}

// Delete is DeleteResult with failures reported and an empty body returned.
func (c *Client) Delete(ctx context.Context, endpoint string, opts ...WriteOption) Body {
	o := applyWriteOptions(opts)
	return c.swallow(ctx, http.MethodDelete, endpoint, o.data, o)
}

// write sends the request and, on success, marks the session so its next
// fetch bypasses the cache.
func (c *Client) write(ctx context.Context, method, endpoint string, data any, o writeOptions) (Body, error) {
	body, err := c.Send(ctx, method, endpoint, data, o.headers)
	if err != nil {
		return nil, err
	}

	if o.refresh {
		if err := c.session.Mark(ctx); err != nil {
			c.logger.Warn().
				Err(err).
				Str("method", method).
				Str("endpoint", endpoint).
				Msg("Failed to mark session for cache refresh")
		}
	}

	return body, nil
}

func (c *Client) swallow(ctx context.Context, method, endpoint string, data any, o writeOptions) Body {
	body, err := c.write(ctx, method, endpoint, data, o)
	if err != nil {
		c.ReportFailure(ctx, method, endpoint, data, o.headers, err)
		return EmptyBody()
	}
	return body
}
