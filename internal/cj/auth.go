package cj

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/dropforge/supplier-bridge/internal/metrics"
)

const (
	// expirySkew treats a token within one hour of expiry as expired,
	// forcing a proactive refresh before it can fail mid-call.
	expirySkew = time.Hour

	// defaultTokenTTL is the supplier's documented token lifetime,
	// used when a grant arrives without an expiry date. Configuration,
	// not protocol truth.
	defaultTokenTTL = 15 * 24 * time.Hour
)

// expiry formats the supplier has been observed to emit.
var expiryLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
}

// TokenManager guarantees callers a currently-valid access token,
// transparently refreshing or re-authenticating as needed. Token state
// is computed on read; there is no background timer.
//
// The refresh-then-reauthenticate order is an explicit strategy chain:
// strategies run in order until one yields a grant or all fail.
type TokenManager struct {
	creds     *CredentialStore
	transport *Transport
	logger    *slog.Logger
	nowFunc   func() time.Time

	// mu serializes the read-refresh-write cycle so concurrent callers
	// cannot both detect an expired token and both hit the supplier's
	// refresh endpoint.
	mu sync.Mutex
}

// TokenManagerOption configures the TokenManager.
type TokenManagerOption func(*TokenManager)

// WithTokenLogger sets the logger.
func WithTokenLogger(l *slog.Logger) TokenManagerOption {
	return func(m *TokenManager) {
		m.logger = l
	}
}

// WithTokenNowFunc overrides the time function for testing.
func WithTokenNowFunc(f func() time.Time) TokenManagerOption {
	return func(m *TokenManager) {
		m.nowFunc = f
	}
}

// NewTokenManager creates a TokenManager. Auth calls go through the
// same Transport (and therefore the same gate and retry policy) as
// every other supplier call.
func NewTokenManager(creds *CredentialStore, transport *Transport, opts ...TokenManagerOption) *TokenManager {
	m := &TokenManager{
		creds:     creds,
		transport: transport,
		logger:    slog.Default(),
		nowFunc:   time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// tokenGrant is the outcome of a successful strategy.
type tokenGrant struct {
	access    string
	refresh   string
	expiresAt time.Time
}

// tokenStrategy is one way of obtaining a grant. The chain's order is
// data, not control flow: new strategies slot in without touching the
// callers.
type tokenStrategy struct {
	name string
	run  func(ctx context.Context) (*tokenGrant, error)
}

// Token returns a valid access token, performing zero network calls
// when the stored token expires more than an hour from now.
func (m *TokenManager) Token(ctx context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	st, err := m.creds.TokenState(ctx)
	if err != nil {
		return "", fmt.Errorf("loading token state: %w", err)
	}

	if st != nil && st.AccessToken != "" && m.nowFunc().Before(st.ExpiresAt.Add(-expirySkew)) {
		return st.AccessToken, nil
	}

	return m.obtainLocked(ctx, st)
}

// ForceNew discards the stored token and obtains a fresh one. Used by
// Client when the supplier rejects a token the store considered valid.
func (m *TokenManager) ForceNew(ctx context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	st, err := m.creds.TokenState(ctx)
	if err != nil {
		return "", fmt.Errorf("loading token state: %w", err)
	}

	return m.obtainLocked(ctx, st)
}

// obtainLocked runs the strategy chain and persists the winning grant,
// atomically replacing the previous token. Callers hold mu.
func (m *TokenManager) obtainLocked(ctx context.Context, st *TokenState) (string, error) {
	strategies, err := m.buildChain(ctx, st)
	if err != nil {
		return "", err
	}
	if len(strategies) == 0 {
		return "", ErrNotConfigured
	}

	var lastErr error
	for _, s := range strategies {
		grant, err := s.run(ctx)
		if err != nil {
			m.logger.Warn("token strategy failed",
				"strategy", s.name, "err", err)
			lastErr = err
			continue
		}

		if err := m.creds.SaveTokens(ctx, TokenState{
			AccessToken:  grant.access,
			RefreshToken: grant.refresh,
			ExpiresAt:    grant.expiresAt,
		}); err != nil {
			return "", fmt.Errorf("persisting tokens: %w", err)
		}

		m.logger.Info("obtained supplier access token",
			"strategy", s.name, "expires_at", grant.expiresAt)
		return grant.access, nil
	}

	var authErr *AuthError
	if errors.As(lastErr, &authErr) {
		return "", authErr
	}
	return "", fmt.Errorf("obtaining access token: %w", lastErr)
}

// buildChain assembles the ordered strategies available for the stored
// state: refresh first when a refresh token exists, then full
// re-authentication when credentials exist.
func (m *TokenManager) buildChain(ctx context.Context, st *TokenState) ([]tokenStrategy, error) {
	var chain []tokenStrategy

	if st != nil && st.RefreshToken != "" {
		refreshToken := st.RefreshToken
		chain = append(chain, tokenStrategy{
			name: "refresh",
			run: func(ctx context.Context) (*tokenGrant, error) {
				metrics.TokenRefreshesTotal.Inc()
				return m.redeem(ctx, endpointRefresh, map[string]string{
					"refreshToken": refreshToken,
				})
			},
		})
	}

	creds, err := m.creds.Credentials(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading credentials: %w", err)
	}
	if creds != nil {
		chain = append(chain, tokenStrategy{
			name: "authenticate",
			run: func(ctx context.Context) (*tokenGrant, error) {
				metrics.TokenReauthsTotal.Inc()
				return m.redeem(ctx, endpointAuth, map[string]string{
					"email":    creds.AccountEmail,
					"password": creds.APIKey,
				})
			},
		})
	}

	return chain, nil
}

// redeem posts to a token endpoint and parses the grant. Token
// endpoints are called unauthenticated.
func (m *TokenManager) redeem(ctx context.Context, endpoint string, body map[string]string) (*tokenGrant, error) {
	env, err := m.transport.Call(ctx, http.MethodPost, endpoint, nil, body, "")
	if err != nil {
		return nil, err
	}
	if !env.OK() {
		return nil, &AuthError{Code: env.Code, Message: env.Message}
	}

	var data authData
	if err := json.Unmarshal(env.Data, &data); err != nil {
		return nil, &SchemaError{Endpoint: endpoint, Reason: "invalid token payload", Raw: env.Data}
	}
	if data.AccessToken == "" {
		return nil, &SchemaError{Endpoint: endpoint, Reason: "empty access token", Raw: env.Data}
	}

	return &tokenGrant{
		access:    data.AccessToken,
		refresh:   data.RefreshToken,
		expiresAt: m.parseExpiry(data.AccessTokenExpiryDate),
	}, nil
}

// parseExpiry parses the supplier's expiry date, falling back to the
// documented default lifetime when absent or unparseable.
func (m *TokenManager) parseExpiry(s string) time.Time {
	for _, layout := range expiryLayouts {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts
		}
	}
	return m.nowFunc().Add(defaultTokenTTL)
}
