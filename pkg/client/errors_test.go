package client

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestShouldRetry(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{"not found should not retry", NewAPIError(http.StatusNotFound, nil), false},
		{"validation error should not retry", NewAPIError(http.StatusUnprocessableEntity, nil), false},
		{"request timeout should retry", NewAPIError(http.StatusRequestTimeout, nil), true},
		{"rate limit should retry", NewAPIError(http.StatusTooManyRequests, nil), true},
		{"server error should retry", NewAPIError(http.StatusInternalServerError, nil), true},
		{"network error should retry", &TransportError{Err: errors.New("dial tcp: refused")}, true},
		{"wrapped network error should retry", fmt.Errorf("wrapped: %w", &TransportError{Err: errors.New("eof")}), true},
		{"invalid data should not retry", &InvalidDataError{Reason: "bad"}, false},
		{"unknown error should not retry", errors.New("boom"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := shouldRetry(tt.err); got != tt.expected {
				t.Errorf("shouldRetry(%v) = %v, want %v", tt.err, got, tt.expected)
			}
		})
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected ErrorClass
	}{
		{"400", NewAPIError(400, nil), ErrorClassClient},
		{"429", NewAPIError(429, nil), ErrorClassRateLimit},
		{"503", NewAPIError(503, nil), ErrorClassServer},
		{"transport", &TransportError{Err: errors.New("timeout")}, ErrorClassNetwork},
		{"invalid data", &InvalidDataError{Reason: "x"}, ErrorClassInvalidData},
		{"other", errors.New("x"), ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := classify(tt.err); got != tt.expected {
				t.Errorf("classify() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestNewAPIError_Message(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		expected string
	}{
		{"message field", 422, `{"message":"The name field is required."}`, "The name field is required."},
		{"error field", 401, `{"error":"Unauthenticated"}`, "Unauthenticated"},
		{"message wins over error", 400, `{"message":"first","error":"second"}`, "first"},
		{"empty message falls through to error", 400, `{"message":"","error":"second"}`, "second"},
		{"non-string message ignored", 500, `{"message":{"nested":true}}`, "API request failed with status 500"},
		{"html body", 502, `<html>Bad Gateway</html>`, "API request failed with status 502"},
		{"empty body", 404, ``, "API request failed with status 404"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewAPIError(tt.status, []byte(tt.body))
			if err.Error() != tt.expected {
				t.Errorf("Error() = %q, want %q", err.Error(), tt.expected)
			}
			if err.StatusCode != tt.status {
				t.Errorf("StatusCode = %d, want %d", err.StatusCode, tt.status)
			}
			if string(err.RawBody) != tt.body {
				t.Errorf("RawBody = %q, want %q", err.RawBody, tt.body)
			}
		})
	}
}

func TestAPIError_Data(t *testing.T) {
	err := NewAPIError(422, []byte(`{"errors":{"email":["taken"]}}`))
	data := err.Data()
	if data == nil {
		t.Fatal("Expected decoded data")
	}
	if _, ok := data["errors"]; !ok {
		t.Errorf("Expected errors key, got %v", data)
	}

	if NewAPIError(500, []byte("oops")).Data() != nil {
		t.Error("Expected nil data for non-JSON body")
	}
}

func TestStatusCode(t *testing.T) {
	if got := StatusCode(fmt.Errorf("ctx: %w", NewAPIError(404, nil))); got != 404 {
		t.Errorf("StatusCode() = %d, want 404", got)
	}
	if got := StatusCode(errors.New("plain")); got != 0 {
		t.Errorf("StatusCode() = %d, want 0", got)
	}
}
