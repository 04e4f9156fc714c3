package cache_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github/chapool/gas-relay/internal/cache"
)

func TestMemoryCacheSetGet(t *testing.T) {
	ctx := t.Context()
	c := cache.NewMemory()

	_, err := c.Get(ctx, "missing")
	require.ErrorIs(t, err, cache.ErrCacheMiss)

	require.NoError(t, c.Set(ctx, "gas:prices:1", "42", time.Minute))

	value, err := c.Get(ctx, "gas:prices:1")
	require.NoError(t, err)
	require.Equal(t, "42", value)

	require.NoError(t, c.Delete(ctx, "gas:prices:1"))
	_, err = c.Get(ctx, "gas:prices:1")
	require.ErrorIs(t, err, cache.ErrCacheMiss)
}

func TestMemoryCacheExpiry(t *testing.T) {
	ctx := t.Context()
	c := cache.NewMemory()

	require.NoError(t, c.Set(ctx, "k", "v", time.Millisecond))
	time.Sleep(5 * time.Millisecond)

	_, err := c.Get(ctx, "k")
	require.ErrorIs(t, err, cache.ErrCacheMiss)
}

func TestMemoryCacheDeleteByPattern(t *testing.T) {
	ctx := t.Context()
	c := cache.NewMemory()

	require.NoError(t, c.Set(ctx, "gas:prices:1", "a", 0))
	require.NoError(t, c.Set(ctx, "gas:prices:31337", "b", 0))
	require.NoError(t, c.Set(ctx, "health:1", "c", 0))

	require.NoError(t, c.DeleteByPattern(ctx, "gas:prices:*"))

	_, err := c.Get(ctx, "gas:prices:1")
	require.ErrorIs(t, err, cache.ErrCacheMiss)
	_, err = c.Get(ctx, "gas:prices:31337")
	require.ErrorIs(t, err, cache.ErrCacheMiss)

	value, err := c.Get(ctx, "health:1")
	require.NoError(t, err)
	require.Equal(t, "c", value)
}
