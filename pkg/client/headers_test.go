package client

import (
	"context"
	"errors"
	"testing"

	"golang.org/x/oauth2"
)

func TestResolveHeaders_Precedence(t *testing.T) {
	calls := 0
	defaults := map[string]HeaderProvider{
		"X-Tenant": StaticValue("acme"),
		"Authorization": ComputedValue(func(context.Context) (string, error) {
			calls++
			return "Bearer default", nil
		}),
		"accept": StaticValue("application/vnd.api+json"),
	}

	h, err := resolveHeaders(context.Background(), defaults, map[string]string{
		"authorization": "Bearer override",
	})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if got := h.Get("Authorization"); got != "Bearer override" {
		t.Errorf("Authorization = %q, want per-call override", got)
	}
	if got := h.Get("X-Tenant"); got != "acme" {
		t.Errorf("X-Tenant = %q", got)
	}
	if got := h.Get("Accept"); got != "application/vnd.api+json" {
		t.Errorf("Accept = %q, want configured default over built-in", got)
	}
	if got := h.Get("Content-Type"); got != "application/json" {
		t.Errorf("Content-Type = %q", got)
	}
	if calls != 1 {
		t.Errorf("Computed header evaluated %d times, want 1", calls)
	}
	if len(h.Values("Authorization")) != 1 {
		t.Errorf("Expected a single Authorization value, got %v", h.Values("Authorization"))
	}
}

func TestResolveHeaders_ProviderError(t *testing.T) {
	boom := errors.New("vault unavailable")
	_, err := resolveHeaders(context.Background(), map[string]HeaderProvider{
		"Authorization": ComputedValue(func(context.Context) (string, error) { return "", boom }),
	}, nil)

	if !errors.Is(err, boom) {
		t.Errorf("Expected provider error, got %v", err)
	}
}

func TestBearerToken(t *testing.T) {
	provider := BearerToken(oauth2.StaticTokenSource(&oauth2.Token{AccessToken: "abc", TokenType: "Bearer"}))

	got, err := provider.HeaderValue(context.Background())
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if got != "Bearer abc" {
		t.Errorf("HeaderValue() = %q, want %q", got, "Bearer abc")
	}
}

func TestRequestID_FreshPerCall(t *testing.T) {
	provider := RequestID()

	first, _ := provider.HeaderValue(context.Background())
	second, _ := provider.HeaderValue(context.Background())

	if first == "" || first == second {
		t.Errorf("Expected distinct request IDs, got %q and %q", first, second)
	}
}

func TestStaticHeaders(t *testing.T) {
	headers := StaticHeaders(map[string]string{"X-Api-Key": "secret"})

	got, err := headers["X-Api-Key"].HeaderValue(context.Background())
	if err != nil || got != "secret" {
		t.Errorf("HeaderValue() = %q, %v", got, err)
	}
}
