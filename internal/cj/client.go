package cj

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/dropforge/supplier-bridge/internal/metrics"
)

// Transport defaults.
const (
	defaultCallTimeout  = 10 * time.Second
	defaultMaxAttempts  = 3 // total attempts for rate-limited calls
	defaultBaseBackoff  = time.Second
	defaultNetworkTries = 3
	defaultNetworkDelay = 500 * time.Millisecond
	maxBackoff          = 30 * time.Second
)

// Transport is the single chokepoint for supplier HTTP calls. Every
// call waits on the shared Gate, runs under a hard per-call timeout,
// and is retried on rate-limit and transport failures per the policy
// in Call.
type Transport struct {
	baseURL      string
	client       *http.Client
	gate         *Gate
	logger       *slog.Logger
	timeout      time.Duration
	maxAttempts  int
	baseBackoff  time.Duration
	networkTries int
	networkDelay time.Duration
}

// TransportOption configures the Transport.
type TransportOption func(*Transport)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(c *http.Client) TransportOption {
	return func(t *Transport) {
		t.client = c
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) TransportOption {
	return func(t *Transport) {
		t.logger = l
	}
}

// WithCallTimeout overrides the hard per-call deadline.
func WithCallTimeout(d time.Duration) TransportOption {
	return func(t *Transport) {
		t.timeout = d
	}
}

// WithRetryPolicy overrides the rate-limit retry budget and backoff.
func WithRetryPolicy(maxAttempts int, baseBackoff time.Duration) TransportOption {
	return func(t *Transport) {
		t.maxAttempts = maxAttempts
		t.baseBackoff = baseBackoff
	}
}

// WithNetworkRetry overrides the transport-failure retry budget and
// the fixed delay between attempts.
func WithNetworkRetry(tries int, delay time.Duration) TransportOption {
	return func(t *Transport) {
		t.networkTries = tries
		t.networkDelay = delay
	}
}

// NewTransport creates a Transport over the given base URL and shared
// call gate.
func NewTransport(baseURL string, gate *Gate, opts ...TransportOption) *Transport {
	t := &Transport{
		baseURL:      baseURL,
		client:       &http.Client{},
		gate:         gate,
		logger:       slog.Default(),
		timeout:      defaultCallTimeout,
		maxAttempts:  defaultMaxAttempts,
		baseBackoff:  defaultBaseBackoff,
		networkTries: defaultNetworkTries,
		networkDelay: defaultNetworkDelay,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Call issues one supplier request with the retry policy:
//   - rate limit (HTTP 429 or envelope code 1600101): Retry-After when
//     present, else exponential backoff, up to maxAttempts total;
//   - transport failures and HTTP 5xx: fixed delay, up to networkTries;
//   - per-call timeout: surfaced as TimeoutError, never retried here.
//
// Token handling and auth retries live in Client, not here.
func (t *Transport) Call(
	ctx context.Context,
	method, path string,
	query url.Values,
	body any,
	token string,
) (*Envelope, error) {
	// Rate-limit and transport failures draw on separate budgets: two
	// flaky connects must not eat into the rate-limit attempts.
	rateLimited := 0
	netFailures := 0

	for {
		if err := t.gate.Wait(ctx); err != nil {
			return nil, err
		}

		env, status, retryAfter, err := t.roundTrip(ctx, method, path, query, body, token)

		var schemaErr *SchemaError
		if errors.As(err, &schemaErr) {
			// A 200 that is not a JSON envelope is a contract
			// violation, not a transient fault.
			return nil, err
		}

		switch {
		case err != nil && ctx.Err() != nil:
			// Caller cancelled; not a supplier failure.
			return nil, fmt.Errorf("calling %s: %w", path, ctx.Err())

		case err != nil && isTimeout(err):
			metrics.APICallsTotal.WithLabelValues(path, "timeout").Inc()
			return nil, &TimeoutError{Endpoint: path, Timeout: t.timeout, Err: err}

		case err != nil:
			netFailures++
			if netFailures >= t.networkTries {
				metrics.APICallsTotal.WithLabelValues(path, "network_error").Inc()
				return nil, &NetworkError{Endpoint: path, Attempts: netFailures, Err: err}
			}
			metrics.RetriesTotal.WithLabelValues("network").Inc()
			t.logger.Warn("supplier call failed, retrying",
				"endpoint", path, "attempt", netFailures, "err", err)
			if err := sleepCtx(ctx, t.networkDelay); err != nil {
				return nil, err
			}

		case status == http.StatusTooManyRequests || (env != nil && env.Code == codeTooManyRequests):
			rateLimited++
			if rateLimited >= t.maxAttempts {
				metrics.APICallsTotal.WithLabelValues(path, "rate_limited").Inc()
				return nil, &RateLimitError{Endpoint: path, Attempts: rateLimited}
			}
			delay := retryAfter
			if delay <= 0 {
				delay = t.backoff(rateLimited)
			}
			metrics.RetriesTotal.WithLabelValues("rate_limit").Inc()
			t.logger.Warn("supplier rate limit hit, backing off",
				"endpoint", path, "attempt", rateLimited, "delay", delay)
			if err := sleepCtx(ctx, delay); err != nil {
				return nil, err
			}

		case status >= 500:
			netFailures++
			if netFailures >= t.networkTries {
				metrics.APICallsTotal.WithLabelValues(path, "server_error").Inc()
				return nil, &NetworkError{
					Endpoint: path,
					Attempts: netFailures,
					Err:      fmt.Errorf("supplier HTTP %d", status),
				}
			}
			metrics.RetriesTotal.WithLabelValues("network").Inc()
			if err := sleepCtx(ctx, t.networkDelay); err != nil {
				return nil, err
			}

		case status >= 400:
			metrics.APICallsTotal.WithLabelValues(path, "http_error").Inc()
			return nil, fmt.Errorf("supplier HTTP %d on %s", status, path)

		default:
			metrics.APICallsTotal.WithLabelValues(path, "ok").Inc()
			return env, nil
		}
	}
}

// roundTrip performs exactly one HTTP exchange under the hard per-call
// timeout and decodes the envelope of a 200 response.
func (t *Transport) roundTrip(
	ctx context.Context,
	method, path string,
	query url.Values,
	body any,
	token string,
) (*Envelope, int, time.Duration, error) {
	callCtx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	u := t.baseURL + "/" + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, 0, 0, fmt.Errorf("encoding request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(callCtx, method, u, reader)
	if err != nil {
		return nil, 0, 0, fmt.Errorf("creating request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())
	if token != "" {
		req.Header.Set(tokenHeader, token)
	}

	start := time.Now()
	resp, err := t.client.Do(req)
	metrics.APICallDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		return nil, 0, 0, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, 0, fmt.Errorf("reading response body: %w", err)
	}

	retryAfter := parseRetryAfter(resp.Header.Get("Retry-After"))

	if resp.StatusCode != http.StatusOK {
		return nil, resp.StatusCode, retryAfter, nil
	}

	env := &Envelope{}
	if err := json.Unmarshal(raw, env); err != nil {
		metrics.SchemaFailuresTotal.WithLabelValues(path).Inc()
		return nil, resp.StatusCode, retryAfter, &SchemaError{
			Endpoint: path,
			Reason:   "response is not a JSON envelope",
			Raw:      raw,
		}
	}

	return env, resp.StatusCode, retryAfter, nil
}

func (t *Transport) backoff(attempt int) time.Duration {
	d := t.baseBackoff * (1 << attempt) // base * 2^(attempt+1) for the first retry
	if d > maxBackoff {
		d = maxBackoff
	}
	return d
}

func parseRetryAfter(h string) time.Duration {
	if h == "" {
		return 0
	}
	secs, err := strconv.Atoi(h)
	if err != nil || secs < 0 {
		return 0
	}
	return time.Duration(secs) * time.Second
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// TokenSource supplies a valid access token for outbound calls.
// ForceNew discards the current token and obtains a fresh one; Client
// uses it when the supplier rejects a token mid-flight.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
	ForceNew(ctx context.Context) (string, error)
}

// Client composes the Transport with the token lifecycle: it attaches
// a valid token to every call and retries exactly once with a fresh
// token when the supplier signals auth failure inside a 200 envelope.
type Client struct {
	transport *Transport
	tokens    TokenSource
}

// NewClient creates a Client.
func NewClient(transport *Transport, tokens TokenSource) *Client {
	return &Client{transport: transport, tokens: tokens}
}

// Do issues an authenticated supplier call.
func (c *Client) Do(
	ctx context.Context,
	method, path string,
	query url.Values,
	body any,
) (*Envelope, error) {
	token, err := c.tokens.Token(ctx)
	if err != nil {
		return nil, err
	}

	env, err := c.transport.Call(ctx, method, path, query, body, token)
	if err != nil {
		return nil, err
	}
	if env.Code != codeAuthFailed {
		return env, nil
	}

	// Auth failure arrives inside a 200 envelope. Retry once with a
	// token forced fresh; a second rejection is terminal.
	metrics.RetriesTotal.WithLabelValues("auth").Inc()

	token, err = c.tokens.ForceNew(ctx)
	if err != nil {
		return nil, err
	}

	env, err = c.transport.Call(ctx, method, path, query, body, token)
	if err != nil {
		return nil, err
	}
	if env.Code == codeAuthFailed {
		return nil, &AuthError{Code: env.Code, Message: env.Message}
	}

	return env, nil
}

// Get issues an authenticated GET.
func (c *Client) Get(ctx context.Context, path string, query url.Values) (*Envelope, error) {
	return c.Do(ctx, http.MethodGet, path, query, nil)
}

// Post issues an authenticated POST with a JSON body.
func (c *Client) Post(ctx context.Context, path string, body any) (*Envelope, error) {
	return c.Do(ctx, http.MethodPost, path, nil, body)
}
