package cj

import (
	"context"
	"fmt"
	"time"

	"github.com/dropforge/supplier-bridge/internal/settings"
)

// Settings keys owned by this integration. The API key and both tokens
// are encrypted at rest; the account email and expiry are plaintext.
const (
	keyAPIKey       = "supplier.api_key"
	keyAccountEmail = "supplier.account_email"
	keyAccessToken  = "supplier.access_token"
	keyRefreshToken = "supplier.refresh_token"
	keyTokenExpiry  = "supplier.token_expiry"
)

// Credentials identify the supplier account. Immutable once verified;
// replaced wholesale on re-configuration.
type Credentials struct {
	APIKey       string
	AccountEmail string
}

// TokenState is the persisted token material. Mutated only by the
// token manager.
type TokenState struct {
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
}

// CredentialStore reads and writes credentials and token state through
// the encrypted settings store. It owns encryption at the boundary.
type CredentialStore struct {
	store *settings.Cached
	box   *settings.SecretBox
}

// NewCredentialStore creates a CredentialStore over the given settings
// store and secret box.
func NewCredentialStore(store *settings.Cached, box *settings.SecretBox) *CredentialStore {
	return &CredentialStore{store: store, box: box}
}

// Credentials returns the stored credentials, or nil when either half
// is absent. "Not configured" is not an error; storage and decryption
// failures are.
func (c *CredentialStore) Credentials(ctx context.Context) (*Credentials, error) {
	sealed, ok, err := c.store.Get(ctx, keyAPIKey)
	if err != nil {
		return nil, fmt.Errorf("reading API key: %w", err)
	}
	if !ok {
		return nil, nil
	}

	email, ok, err := c.store.Get(ctx, keyAccountEmail)
	if err != nil {
		return nil, fmt.Errorf("reading account email: %w", err)
	}
	if !ok {
		return nil, nil
	}

	apiKey, err := c.box.Open(sealed)
	if err != nil {
		return nil, fmt.Errorf("decrypting API key: %w", err)
	}

	return &Credentials{APIKey: apiKey, AccountEmail: email}, nil
}

// SaveCredentials encrypts the API key and upserts both credential
// keys, refreshing the read-through cache.
func (c *CredentialStore) SaveCredentials(ctx context.Context, apiKey, accountEmail string) error {
	sealed, err := c.box.Seal(apiKey)
	if err != nil {
		return fmt.Errorf("encrypting API key: %w", err)
	}

	if err := c.store.Set(ctx, keyAPIKey, sealed); err != nil {
		return fmt.Errorf("writing API key: %w", err)
	}
	if err := c.store.Set(ctx, keyAccountEmail, accountEmail); err != nil {
		return fmt.Errorf("writing account email: %w", err)
	}

	c.store.Invalidate(keyAPIKey, keyAccountEmail)
	return nil
}

// Clear deletes credentials and token state and drops the whole cache.
// Idempotent: clearing when nothing is stored succeeds.
func (c *CredentialStore) Clear(ctx context.Context) error {
	err := c.store.Delete(ctx,
		keyAPIKey, keyAccountEmail, keyAccessToken, keyRefreshToken, keyTokenExpiry)
	if err != nil {
		return fmt.Errorf("clearing supplier settings: %w", err)
	}

	c.store.Invalidate()
	return nil
}

// TokenState returns the stored token material, or nil when no access
// token is stored.
func (c *CredentialStore) TokenState(ctx context.Context) (*TokenState, error) {
	sealed, ok, err := c.store.Get(ctx, keyAccessToken)
	if err != nil {
		return nil, fmt.Errorf("reading access token: %w", err)
	}
	if !ok {
		return nil, nil
	}

	access, err := c.box.Open(sealed)
	if err != nil {
		return nil, fmt.Errorf("decrypting access token: %w", err)
	}

	st := &TokenState{AccessToken: access}

	if sealed, ok, err = c.store.Get(ctx, keyRefreshToken); err != nil {
		return nil, fmt.Errorf("reading refresh token: %w", err)
	} else if ok {
		st.RefreshToken, err = c.box.Open(sealed)
		if err != nil {
			return nil, fmt.Errorf("decrypting refresh token: %w", err)
		}
	}

	raw, ok, err := c.store.Get(ctx, keyTokenExpiry)
	if err != nil {
		return nil, fmt.Errorf("reading token expiry: %w", err)
	}
	if ok {
		st.ExpiresAt, err = time.Parse(time.RFC3339, raw)
		if err != nil {
			return nil, fmt.Errorf("parsing token expiry %q: %w", raw, err)
		}
	}

	return st, nil
}

// SaveTokens persists a token grant, overwriting the previous one.
func (c *CredentialStore) SaveTokens(ctx context.Context, st TokenState) error {
	sealed, err := c.box.Seal(st.AccessToken)
	if err != nil {
		return fmt.Errorf("encrypting access token: %w", err)
	}
	if err := c.store.Set(ctx, keyAccessToken, sealed); err != nil {
		return fmt.Errorf("writing access token: %w", err)
	}

	if st.RefreshToken != "" {
		sealed, err = c.box.Seal(st.RefreshToken)
		if err != nil {
			return fmt.Errorf("encrypting refresh token: %w", err)
		}
		if err := c.store.Set(ctx, keyRefreshToken, sealed); err != nil {
			return fmt.Errorf("writing refresh token: %w", err)
		}
	}

	if err := c.store.Set(ctx, keyTokenExpiry, st.ExpiresAt.Format(time.RFC3339)); err != nil {
		return fmt.Errorf("writing token expiry: %w", err)
	}

	return nil
}
