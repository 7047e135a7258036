//go:build integration

package settings_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/dropforge/supplier-bridge/internal/settings"
)

func setupPostgres(t *testing.T) *settings.PostgresStore {
	t.Helper()
	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("bridge_test"),
		postgres.WithUsername("test"),
		postgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	require.NoError(t, err)

	t.Cleanup(func() {
		require.NoError(t, pgContainer.Terminate(ctx))
	})

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	s, err := settings.NewPostgresStore(ctx, connStr)
	require.NoError(t, err)

	t.Cleanup(func() {
		s.Close()
	})

	require.NoError(t, s.Bootstrap(ctx))
	return s
}

func TestPostgresStore_RoundTrip(t *testing.T) {
	s := setupPostgres(t)
	ctx := context.Background()

	_, ok, err := s.Get(ctx, "supplier.api_key")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Set(ctx, "supplier.api_key", "sealed-value-1"))
	require.NoError(t, s.Set(ctx, "supplier.api_key", "sealed-value-2"))

	v, ok, err := s.Get(ctx, "supplier.api_key")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "sealed-value-2", v)
}

func TestPostgresStore_DeleteIdempotent(t *testing.T) {
	s := setupPostgres(t)
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "a", "1"))
	require.NoError(t, s.Set(ctx, "b", "2"))

	require.NoError(t, s.Delete(ctx, "a", "b", "never-existed"))
	require.NoError(t, s.Delete(ctx, "a"))
	require.NoError(t, s.Delete(ctx))

	_, ok, err := s.Get(ctx, "a")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestPostgresStore_BootstrapIdempotent(t *testing.T) {
	s := setupPostgres(t)
	ctx := context.Background()

	require.NoError(t, s.Bootstrap(ctx))
	require.NoError(t, s.Set(ctx, "k", "v"))
}
