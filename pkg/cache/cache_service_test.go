package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryCache(t *testing.T) {
	ctx := context.Background()

	t.Run("Set and Get copy values", func(t *testing.T) {
		c := NewMemoryCache()
		in := []string{"a", "b"}
		require.NoError(t, c.Set(ctx, "k", in, 0))
		in[0] = "changed"

		var out []string
		require.NoError(t, c.Get(ctx, "k", &out))
		assert.Equal(t, []string{"a", "b"}, out)
	})

	t.Run("Miss", func(t *testing.T) {
		c := NewMemoryCache()
		var out string
		assert.ErrorIs(t, c.Get(ctx, "missing", &out), ErrCacheMiss)

		ok, err := c.Exists(ctx, "missing")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("Expiration", func(t *testing.T) {
		c := NewMemoryCache()
		now := time.Unix(1000, 0)
		c.now = func() time.Time { return now }

		require.NoError(t, c.Set(ctx, "k", 1, time.Second))
		ok, _ := c.Exists(ctx, "k")
		assert.True(t, ok)

		now = now.Add(2 * time.Second)
		var out int
		assert.ErrorIs(t, c.Get(ctx, "k", &out), ErrCacheMiss)

		// 写入新值时清理过期项
		require.NoError(t, c.Set(ctx, "other", 2, 0))
		assert.Equal(t, 1, c.Len())
	})

	t.Run("InvalidatePrefix", func(t *testing.T) {
		c := NewMemoryCache()
		keys := []string{
			"forums:detail:a", "forums:detail:a:new", "forums:detail:b", "forums:list",
			"forums:search:go/lang", "forums:search:[go]*", "forums:searching",
		}
		for _, k := range keys {
			require.NoError(t, c.Set(ctx, k, 1, 0))
		}

		require.NoError(t, c.InvalidatePrefix(ctx, "forums:detail:a:"))
		require.NoError(t, c.Delete(ctx, "forums:detail:a"))
		require.NoError(t, c.InvalidatePrefix(ctx, "forums:search:"))

		for k, want := range map[string]bool{
			"forums:detail:a":       false,
			"forums:detail:a:new":   false,
			"forums:detail:b":       true,
			"forums:list":           true,
			"forums:search:go/lang": false,
			"forums:search:[go]*":   false,
			"forums:searching":      true,
		} {
			ok, _ := c.Exists(ctx, k)
			assert.Equal(t, want, ok, k)
		}
	})
}
