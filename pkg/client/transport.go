package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// Send performs one logical request against endpoint (relative to the base
// URL) and returns the decoded JSON body.
//
// For GET, data must be nil, Params, a string-keyed map or url.Values and is
// appended to the query string; anything else is an *InvalidDataError.
// For other methods a non-nil data is sent as the JSON request body.
// Headers override the configured defaults of the same name.
//
// Send retries network failures, 5xx, 408 and 429 responses up to the
// configured number of attempts with a fixed delay in between. Errors are
// *APIError, *TransportError, *InvalidDataError or ErrRateLimited.
func (c *Client) Send(ctx context.Context, method, endpoint string, data any, headers map[string]string) (Body, error) {
	s := c.settings()
	start := time.Now()

	target := s.baseURL + endpoint
	var payload []byte
	if method == http.MethodGet {
		params, err := queryParams(data)
		if err != nil {
			apiErrorsTotal.WithLabelValues(string(ErrorClassInvalidData)).Inc()
			return nil, err
		}
		if len(params) > 0 {
			target = s.baseURL + Compile(endpoint, params, 0, 0, s.pagination)
		}
	} else if data != nil {
		var err error
		payload, err = json.Marshal(data)
		if err != nil {
			apiErrorsTotal.WithLabelValues(string(ErrorClassInvalidData)).Inc()
			return nil, &InvalidDataError{Reason: "encode request body", Err: err}
		}
	}

	h, err := resolveHeaders(ctx, s.headers, headers)
	if err != nil {
		return nil, fmt.Errorf("resolve headers: %w", err)
	}

	var body Body
	attempts, err := retryFixed(ctx, s.retry, func(attempt int) error {
		if c.rateLimiter != nil {
			allowed, rlErr := c.rateLimiter.ShouldAllowRequest(ctx)
			if rlErr != nil {
				c.logger.Warn().Err(rlErr).Msg("Rate limit check failed, proceeding with request")
			} else if !allowed {
				return ErrRateLimited
			}
		}

		b, doErr := c.do(ctx, s, method, target, payload, h)
		if doErr != nil {
			c.logger.Debug().
				Err(doErr).
				Str("method", method).
				Str("url", target).
				Int("attempt", attempt).
				Msg("Request attempt failed")
			return doErr
		}
		body = b
		return nil
	})

	apiRequestDuration.WithLabelValues(method).Observe(time.Since(start).Seconds())

	if err != nil {
		var transportErr *TransportError
		if errors.As(err, &transportErr) {
			transportErr.Attempts = attempts
		}
		class := classify(err)
		if class == "" {
			class = "other"
		}
		apiErrorsTotal.WithLabelValues(string(class)).Inc()
		return nil, err
	}

	return body, nil
}

// do executes a single attempt bounded by the configured timeout.
func (c *Client) do(ctx context.Context, s settings, method, target string, payload []byte, h http.Header) (Body, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(attemptCtx, method, target, reader)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header = h.Clone()

	resp, err := s.httpClient.Do(req)
	if err != nil {
		apiRequestsTotal.WithLabelValues(method, "error").Inc()
		return nil, &TransportError{Method: method, URL: target, Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		apiRequestsTotal.WithLabelValues(method, "error").Inc()
		return nil, &TransportError{Method: method, URL: target, Err: fmt.Errorf("read response body: %w", err)}
	}

	apiRequestsTotal.WithLabelValues(method, strconv.Itoa(resp.StatusCode)).Inc()

	if c.rateLimiter != nil {
		if err := c.rateLimiter.UpdateFromHeaders(ctx, resp.Header); err != nil {
			c.logger.Warn().Err(err).Msg("Failed to update rate limit state")
		}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, NewAPIError(resp.StatusCode, raw)
	}

	return decodeBody(raw)
}

// queryParams converts GET data into query parameters. Params, plain
// string-keyed maps and url.Values are accepted.
func queryParams(data any) (Params, error) {
	switch v := data.(type) {
	case nil:
		return nil, nil
	case Params:
		return v, nil
	case map[string]any:
		return Params(v), nil
	case map[string]string:
		params := make(Params, len(v))
		for key, value := range v {
			params[key] = value
		}
		return params, nil
	case url.Values:
		params := make(Params, len(v))
		for key, values := range v {
			params[key] = Repeated(values)
		}
		return params, nil
	default:
		return nil, &InvalidDataError{Reason: fmt.Sprintf("GET data must be query parameters, got %T", data)}
	}
}
