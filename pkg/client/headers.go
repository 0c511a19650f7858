package client

import (
	"context"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"golang.org/x/oauth2"
)

// HeaderProvider supplies a default header value when a request is sent.
type HeaderProvider interface {
	HeaderValue(ctx context.Context) (string, error)
}

// StaticValue is a header value fixed at configuration time.
type StaticValue string

// HeaderValue implements HeaderProvider.
func (v StaticValue) HeaderValue(context.Context) (string, error) {
	return string(v), nil
}

// ComputedValue is evaluated on every request, e.g. for rotating tokens.
type ComputedValue func(ctx context.Context) (string, error)

// HeaderValue implements HeaderProvider.
func (f ComputedValue) HeaderValue(ctx context.Context) (string, error) {
	return f(ctx)
}

// BearerToken returns an Authorization value from an OAuth2 token source.
// Wrap the source with oauth2.ReuseTokenSource to avoid fetching a token per request.
func BearerToken(ts oauth2.TokenSource) HeaderProvider {
	return ComputedValue(func(context.Context) (string, error) {
		tok, err := ts.Token()
		if err != nil {
			return "", fmt.Errorf("obtain oauth2 token: %w", err)
		}
		return tok.Type() + " " + tok.AccessToken, nil
	})
}

// RequestID returns a fresh UUID per request, for correlating logs with the remote API.
func RequestID() HeaderProvider {
	return ComputedValue(func(context.Context) (string, error) {
		return uuid.NewString(), nil
	})
}

// StaticHeaders converts plain values into providers.
func StaticHeaders(values map[string]string) map[string]HeaderProvider {
	out := make(map[string]HeaderProvider, len(values))
	for name, value := range values {
		out[name] = StaticValue(value)
	}
	return out
}

// resolveHeaders merges built-in defaults, configured providers and per-call
// overrides, in increasing precedence. Names are case-insensitive.
func resolveHeaders(ctx context.Context, defaults map[string]HeaderProvider, overrides map[string]string) (http.Header, error) {
	h := http.Header{}
	h.Set("Accept", "application/json")
	h.Set("Content-Type", "application/json")

	for name, provider := range defaults {
		if provider == nil {
			continue
		}
		value, err := provider.HeaderValue(ctx)
		if err != nil {
			return nil, fmt.Errorf("header %s: %w", name, err)
		}
		h.Set(name, value)
	}

	for name, value := range overrides {
		h.Set(name, value)
	}

	return h, nil
}
