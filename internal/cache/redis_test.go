package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupMiniredis(t *testing.T) *miniredis.Miniredis {
	t.Helper()
	mr := miniredis.RunT(t)
	SetClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	t.Cleanup(func() { SetClient(nil) })
	return mr
}

func TestAside(t *testing.T) {
	ctx := context.Background()

	t.Run("Miss fetches and stores", func(t *testing.T) {
		mr := setupMiniredis(t)

		fetches := 0
		var got uint
		err := Aside(ctx, UsernameKey("Alice"), &got, time.Minute, func() error {
			fetches++
			got = 42
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, uint(42), got)
		assert.Equal(t, 1, fetches)
		assert.True(t, mr.Exists("uname:alice"))
	})

	t.Run("Hit skips fetch", func(t *testing.T) {
		setupMiniredis(t)

		var first uint
		require.NoError(t, Aside(ctx, "k", &first, time.Minute, func() error {
			first = 7
			return nil
		}))

		var second uint
		err := Aside(ctx, "k", &second, time.Minute, func() error {
			t.Fatal("fetch must not run on a cache hit")
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, uint(7), second)
	})

	t.Run("Corrupt entry is dropped and refetched", func(t *testing.T) {
		mr := setupMiniredis(t)
		require.NoError(t, mr.Set("k", "not-json{"))

		var got uint
		err := Aside(ctx, "k", &got, time.Minute, func() error {
			got = 9
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, uint(9), got)
	})

	t.Run("Fetch error propagates and nothing is stored", func(t *testing.T) {
		mr := setupMiniredis(t)

		var got uint
		err := Aside(ctx, "k", &got, time.Minute, func() error {
			return assert.AnError
		})
		require.Error(t, err)
		assert.False(t, mr.Exists("k"))
	})

	t.Run("Nil client falls through to fetch", func(t *testing.T) {
		SetClient(nil)

		var got uint
		err := Aside(ctx, "k", &got, time.Minute, func() error {
			got = 3
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, uint(3), got)
	})
}

func TestInvalidate(t *testing.T) {
	ctx := context.Background()
	mr := setupMiniredis(t)

	require.NoError(t, mr.Set("a", "1"))
	require.NoError(t, mr.Set("b", "2"))

	Invalidate(ctx, "a", "b")
	assert.False(t, mr.Exists("a"))
	assert.False(t, mr.Exists("b"))

	// nil client and empty key list are both no-ops
	Invalidate(ctx)
	SetClient(nil)
	Invalidate(ctx, "a")
}

func TestUsernameKey(t *testing.T) {
	assert.Equal(t, "uname:alice", UsernameKey("Alice"))
	assert.Equal(t, UsernameKey("BOB"), UsernameKey("bob"))
}
