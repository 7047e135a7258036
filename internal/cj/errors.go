package cj

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// ErrNotConfigured is returned when neither stored tokens nor
// credentials exist. User-actionable, never retried.
var ErrNotConfigured = errors.New("supplier credentials not configured")

// AuthError means the supplier rejected both a token refresh and a
// fresh authentication. User-actionable (the API key is likely revoked
// or the account changed).
type AuthError struct {
	Code    int
	Message string
}

func (e *AuthError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("supplier rejected authentication (code %d)", e.Code)
	}
	return fmt.Sprintf("supplier rejected authentication (code %d): %s", e.Code, e.Message)
}

// RateLimitError means the retry budget for rate-limited calls was
// exhausted. The caller may retry later.
type RateLimitError struct {
	Endpoint string
	Attempts int
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("rate limited on %s after %d attempts", e.Endpoint, e.Attempts)
}

// TimeoutError means a single call exceeded the hard per-call deadline.
// Not retried here; the caller may retry.
type TimeoutError struct {
	Endpoint string
	Timeout  time.Duration
	Err      error
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("call to %s exceeded %s", e.Endpoint, e.Timeout)
}

func (e *TimeoutError) Unwrap() error { return e.Err }

// NetworkError means transport-level failures persisted through the
// retry budget.
type NetworkError struct {
	Endpoint string
	Attempts int
	Err      error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("network failure on %s after %d attempts: %v", e.Endpoint, e.Attempts, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// SchemaError means a supplier response matched no known shape,
// including after the listing fallback. The raw payload is kept for
// diagnosis.
type SchemaError struct {
	Endpoint string
	Reason   string
	Raw      json.RawMessage
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("unexpected response shape from %s: %s", e.Endpoint, e.Reason)
}

// APIError is a supplier-reported failure: an HTTP 200 envelope whose
// body carries a non-success code. The supplier's code and message are
// preserved so the UI can render an actionable message.
type APIError struct {
	Endpoint string
	Code     int
	Message  string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("supplier error on %s (code %d): %s", e.Endpoint, e.Code, e.Message)
}
