package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupStore(t *testing.T) (*Store, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewStore(rdb), mr
}

func TestStore_AsideCachesFetchedValue(t *testing.T) {
	store, mr := setupStore(t)
	ctx := context.Background()
	key := LikeCountKey(5)

	calls := 0
	fetch := func(dest *int64) func() error {
		return func() error {
			calls++
			*dest = 3
			return nil
		}
	}

	var first int64
	require.NoError(t, store.Aside(ctx, key, &first, time.Minute, fetch(&first)))
	assert.Equal(t, int64(3), first)

	var second int64
	require.NoError(t, store.Aside(ctx, key, &second, time.Minute, fetch(&second)))
	assert.Equal(t, int64(3), second)
	assert.Equal(t, 1, calls)

	raw, err := mr.Get(key)
	require.NoError(t, err)
	assert.Equal(t, "3", raw)
	assert.True(t, mr.TTL(key) > 0)
}

func TestStore_InvalidateForcesRefetch(t *testing.T) {
	store, _ := setupStore(t)
	ctx := context.Background()
	key := LikeCountKey(9)

	var n int64
	require.NoError(t, store.Aside(ctx, key, &n, time.Minute, func() error { n = 1; return nil }))

	store.Invalidate(ctx, key)

	var m int64
	require.NoError(t, store.Aside(ctx, key, &m, time.Minute, func() error { m = 2; return nil }))
	assert.Equal(t, int64(2), m)
}

func TestStore_FetchErrorIsNotCached(t *testing.T) {
	store, mr := setupStore(t)
	ctx := context.Background()
	key := LikeCountKey(11)
	boom := errors.New("db down")

	var n int64
	err := store.Aside(ctx, key, &n, time.Minute, func() error { return boom })
	assert.ErrorIs(t, err, boom)
	assert.False(t, mr.Exists(key))
}

func TestStore_RedisFailureFallsBackToFetch(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	rdb := NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	defer func() { _ = rdb.Close() }()
	store := NewStore(rdb)
	mr.Close()

	var n int64
	err = store.Aside(context.Background(), LikeCountKey(1), &n, time.Minute, func() error { n = 7; return nil })
	require.NoError(t, err)
	assert.Equal(t, int64(7), n)
}

func TestStore_NilStoreIsAlwaysAMiss(t *testing.T) {
	var store *Store
	ctx := context.Background()

	assert.False(t, store.Enabled())
	found, err := store.GetJSON(ctx, "k", new(int))
	assert.NoError(t, err)
	assert.False(t, found)
	assert.NoError(t, store.SetJSON(ctx, "k", 1, time.Minute))
	store.Invalidate(ctx, "k")

	var n int
	require.NoError(t, store.Aside(ctx, "k", &n, time.Minute, func() error { n = 4; return nil }))
	assert.Equal(t, 4, n)
}

func TestLikeCountKey(t *testing.T) {
	assert.Equal(t, "likes:post:42:count", LikeCountKey(42))
}

func TestStore_InvalidationDuringFetchSkipsWrite(t *testing.T) {
	store, mr := setupStore(t)
	ctx := context.Background()
	key := LikeCountKey(13)

	// A writer commits and invalidates after the reader counted but before it caches.
	var n int64
	require.NoError(t, store.Aside(ctx, key, &n, time.Minute, func() error {
		n = 0
		store.Invalidate(ctx, key)
		return nil
	}))
	assert.Equal(t, int64(0), n)
	assert.False(t, mr.Exists(key))

	var m int64
	require.NoError(t, store.Aside(ctx, key, &m, time.Minute, func() error { m = 1; return nil }))
	assert.Equal(t, int64(1), m)

	raw, err := mr.Get(key)
	require.NoError(t, err)
	assert.Equal(t, "1", raw)
}

func TestStore_InvalidateBumpsVersion(t *testing.T) {
	store, mr := setupStore(t)
	ctx := context.Background()
	key := LikeCountKey(14)

	store.Invalidate(ctx, key)
	store.Invalidate(ctx, key)

	raw, err := mr.Get(versionKey(key))
	require.NoError(t, err)
	assert.Equal(t, "2", raw)
	assert.True(t, mr.TTL(versionKey(key)) > 0)
}
