package cj

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dropforge/supplier-bridge/internal/settings"
)

func newCredStore(t *testing.T) *CredentialStore {
	t.Helper()

	box, err := settings.NewSecretBox("test-secret")
	require.NoError(t, err)

	return NewCredentialStore(settings.NewCached(settings.NewMemoryStore()), box)
}

func TestCredentialStoreRoundTrip(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := newCredStore(t)

	creds, err := store.Credentials(ctx)
	require.NoError(t, err)
	assert.Nil(t, creds, "unconfigured store yields nil, not an error")

	require.NoError(t, store.SaveCredentials(ctx, "api-key-1", "shop@example.com"))

	creds, err = store.Credentials(ctx)
	require.NoError(t, err)
	require.NotNil(t, creds)
	assert.Equal(t, "api-key-1", creds.APIKey)
	assert.Equal(t, "shop@example.com", creds.AccountEmail)
}

func TestCredentialStoreAPIKeyEncryptedAtRest(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	box, err := settings.NewSecretBox("test-secret")
	require.NoError(t, err)
	mem := settings.NewMemoryStore()
	store := NewCredentialStore(settings.NewCached(mem), box)

	require.NoError(t, store.SaveCredentials(ctx, "api-key-1", "shop@example.com"))

	raw, ok, err := mem.Get(ctx, "supplier.api_key")
	require.NoError(t, err)
	require.True(t, ok)
	assert.NotEqual(t, "api-key-1", raw)
}

func TestCredentialStoreTokenState(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := newCredStore(t)

	st, err := store.TokenState(ctx)
	require.NoError(t, err)
	assert.Nil(t, st)

	expiry := time.Now().Add(24 * time.Hour).UTC().Truncate(time.Second)
	require.NoError(t, store.SaveTokens(ctx, TokenState{
		AccessToken:  "access-1",
		RefreshToken: "refresh-1",
		ExpiresAt:    expiry,
	}))

	st, err = store.TokenState(ctx)
	require.NoError(t, err)
	require.NotNil(t, st)
	assert.Equal(t, "access-1", st.AccessToken)
	assert.Equal(t, "refresh-1", st.RefreshToken)
	assert.True(t, st.ExpiresAt.Equal(expiry))
}

func TestCredentialStoreSaveTokensKeepsRefreshToken(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := newCredStore(t)

	require.NoError(t, store.SaveTokens(ctx, TokenState{
		AccessToken:  "access-1",
		RefreshToken: "refresh-1",
		ExpiresAt:    time.Now().Add(time.Hour),
	}))

	// A refresh grant may omit the refresh token; the stored one must
	// survive.
	require.NoError(t, store.SaveTokens(ctx, TokenState{
		AccessToken: "access-2",
		ExpiresAt:   time.Now().Add(2 * time.Hour),
	}))

	st, err := store.TokenState(ctx)
	require.NoError(t, err)
	require.NotNil(t, st)
	assert.Equal(t, "access-2", st.AccessToken)
	assert.Equal(t, "refresh-1", st.RefreshToken)
}

func TestCredentialStoreClearIdempotent(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := newCredStore(t)

	require.NoError(t, store.Clear(ctx), "clearing an empty store succeeds")

	require.NoError(t, store.SaveCredentials(ctx, "api-key-1", "shop@example.com"))
	require.NoError(t, store.SaveTokens(ctx, TokenState{
		AccessToken: "access-1",
		ExpiresAt:   time.Now().Add(time.Hour),
	}))

	require.NoError(t, store.Clear(ctx))

	creds, err := store.Credentials(ctx)
	require.NoError(t, err)
	assert.Nil(t, creds)

	st, err := store.TokenState(ctx)
	require.NoError(t, err)
	assert.Nil(t, st)
}
