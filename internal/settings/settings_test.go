package settings_test

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dropforge/supplier-bridge/internal/settings"
)

// countingStore wraps a MemoryStore and counts backing reads.
type countingStore struct {
	*settings.MemoryStore

	mu   sync.Mutex
	gets int
}

func (s *countingStore) Get(ctx context.Context, key string) (string, bool, error) {
	s.mu.Lock()
	s.gets++
	s.mu.Unlock()
	return s.MemoryStore.Get(ctx, key)
}

func (s *countingStore) Gets() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gets
}

func TestMemoryStore(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	s := settings.NewMemoryStore()

	_, ok, err := s.Get(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Set(ctx, "k", "v1"))
	require.NoError(t, s.Set(ctx, "k", "v2"))

	v, ok, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "v2", v)

	// Deleting absent keys is not an error.
	require.NoError(t, s.Delete(ctx, "k", "never-existed"))

	_, ok, err = s.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCached_ReadThrough(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	backing := &countingStore{MemoryStore: settings.NewMemoryStore()}
	require.NoError(t, backing.Set(ctx, "k", "v"))

	c := settings.NewCached(backing)

	for range 3 {
		v, ok, err := c.Get(ctx, "k")
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, "v", v)
	}

	// Only the first read hits the backing store.
	assert.Equal(t, 1, backing.Gets())
}

func TestCached_InvalidateKey(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	backing := &countingStore{MemoryStore: settings.NewMemoryStore()}
	require.NoError(t, backing.Set(ctx, "k", "old"))

	c := settings.NewCached(backing)

	v, _, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "old", v)

	// Mutate behind the cache's back, then invalidate.
	require.NoError(t, backing.Set(ctx, "k", "new"))
	c.Invalidate("k")

	v, _, err = c.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "new", v)
}

func TestCached_InvalidateAll(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	backing := &countingStore{MemoryStore: settings.NewMemoryStore()}
	require.NoError(t, backing.Set(ctx, "a", "1"))
	require.NoError(t, backing.Set(ctx, "b", "2"))

	c := settings.NewCached(backing)

	_, _, err := c.Get(ctx, "a")
	require.NoError(t, err)
	_, _, err = c.Get(ctx, "b")
	require.NoError(t, err)
	assert.Equal(t, 2, backing.Gets())

	c.Invalidate()

	_, _, err = c.Get(ctx, "a")
	require.NoError(t, err)
	_, _, err = c.Get(ctx, "b")
	require.NoError(t, err)
	assert.Equal(t, 4, backing.Gets())
}

func TestCached_WriteUpdatesCache(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	backing := &countingStore{MemoryStore: settings.NewMemoryStore()}
	c := settings.NewCached(backing)

	require.NoError(t, c.Set(ctx, "k", "v"))

	v, ok, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "v", v)
	assert.Equal(t, 0, backing.Gets())
}

func TestCached_DeleteEvicts(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	backing := &countingStore{MemoryStore: settings.NewMemoryStore()}
	c := settings.NewCached(backing)

	require.NoError(t, c.Set(ctx, "k", "v"))
	require.NoError(t, c.Delete(ctx, "k"))

	_, ok, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)
}
