package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// Common errors returned by the client.
var (
	// ErrContextCancelled is returned when the context is cancelled during retry.
	ErrContextCancelled = errors.New("context cancelled")

	// ErrRateLimited is returned when the rate limiter blocks a request.
	ErrRateLimited = errors.New("request blocked: rate limit critical")
)

// ErrorClass represents a classification of request failures.
type ErrorClass string

const (
	// ErrorClassClient represents 4xx client errors.
	ErrorClassClient ErrorClass = "client"

	// ErrorClassServer represents 5xx server errors.
	ErrorClassServer ErrorClass = "server"

	// ErrorClassRateLimit represents 429 Too Many Requests.
	ErrorClassRateLimit ErrorClass = "rate_limit"

	// ErrorClassNetwork represents network/timeout errors.
	ErrorClassNetwork ErrorClass = "network"

	// ErrorClassInvalidData represents bodies that could not be encoded or decoded.
	ErrorClassInvalidData ErrorClass = "invalid_data"
)

// TransportError is returned when no HTTP response was obtained
// (connection refused, DNS failure, timeout).
type TransportError struct {
	Method   string
	URL      string
	Attempts int
	Err      error
}

// Error implements the error interface.
func (e *TransportError) Error() string {
	return fmt.Sprintf("%s %s failed after %d attempt(s): %v", e.Method, e.URL, e.Attempts, e.Err)
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *TransportError) Unwrap() error {
	return e.Err
}

// APIError is returned when the API answered with a status outside 2xx.
type APIError struct {
	StatusCode int
	Message    string

	// RawBody is the response body exactly as received.
	RawBody []byte
}

// NewAPIError builds an APIError from a failed response.
//
// The message is taken from the body's "message" field, then its "error"
// field, and defaults to "API request failed with status N".
func NewAPIError(statusCode int, rawBody []byte) *APIError {
	return &APIError{
		StatusCode: statusCode,
		Message:    errorMessage(statusCode, rawBody),
		RawBody:    rawBody,
	}
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return e.Message
}

// Class returns the error classification for the status code.
func (e *APIError) Class() ErrorClass {
	return classifyStatus(e.StatusCode)
}

// Data decodes the raw body into a generic map. It returns nil for
// bodies that are not JSON objects.
func (e *APIError) Data() map[string]any {
	var data map[string]any
	if err := json.Unmarshal(e.RawBody, &data); err != nil {
		return nil
	}
	return data
}

// InvalidDataError is returned when data has an unexpected shape: an
// undecodable response body, a request payload that cannot be encoded, or a
// record that fails hydration.
type InvalidDataError struct {
	Reason string
	Raw    []byte
	Err    error
}

// Error implements the error interface.
func (e *InvalidDataError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid data: %s: %v", e.Reason, e.Err)
	}
	return "invalid data: " + e.Reason
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *InvalidDataError) Unwrap() error {
	return e.Err
}

func errorMessage(statusCode int, rawBody []byte) string {
	var body struct {
		Message any `json:"message"`
		Error   any `json:"error"`
	}
	if err := json.Unmarshal(rawBody, &body); err == nil {
		for _, candidate := range []any{body.Message, body.Error} {
			if s, ok := candidate.(string); ok && s != "" {
				return s
			}
		}
	}
	return fmt.Sprintf("API request failed with status %d", statusCode)
}

func classifyStatus(status int) ErrorClass {
	switch {
	case status == http.StatusTooManyRequests:
		return ErrorClassRateLimit
	case status >= 400 && status < 500:
		return ErrorClassClient
	case status >= 500:
		return ErrorClassServer
	default:
		return ""
	}
}

// classify categorizes an error for metrics and retry decisions.
func classify(err error) ErrorClass {
	var apiErr *APIError
	var transportErr *TransportError
	var invalidErr *InvalidDataError
	switch {
	case errors.As(err, &apiErr):
		return apiErr.Class()
	case errors.As(err, &transportErr):
		return ErrorClassNetwork
	case errors.As(err, &invalidErr):
		return ErrorClassInvalidData
	default:
		return ""
	}
}

// shouldRetry determines if a failed attempt should be retried.
func shouldRetry(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusRequestTimeout {
		return true
	}

	switch classify(err) {
	case ErrorClassClient:
		// 4xx will not change on retry
		return false
	case ErrorClassServer, ErrorClassRateLimit, ErrorClassNetwork:
		return true
	default:
		return false
	}
}

// StatusCode returns the HTTP status carried by err, or 0.
func StatusCode(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode
	}
	return 0
}
