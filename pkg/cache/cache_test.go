package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type quote struct {
	Price string `json:"price"`
	Vol   int    `json:"vol"`
}

func TestMemoryCache_RoundTrip(t *testing.T) {
	mc := NewMemoryCache()
	defer mc.Close()
	ctx := context.Background()

	require.NoError(t, mc.Set(ctx, "btc", quote{Price: "65000.5", Vol: 3}, time.Minute))

	var got quote
	require.NoError(t, mc.Get(ctx, "btc", &got))
	assert.Equal(t, quote{Price: "65000.5", Vol: 3}, got)

	ok, err := mc.Exists(ctx, "btc")
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, mc.Delete(ctx, "btc"))
	assert.ErrorIs(t, mc.Get(ctx, "btc", &got), ErrCacheMiss)
}

func TestMemoryCache_Expiry(t *testing.T) {
	mc := NewMemoryCache()
	defer mc.Close()
	ctx := context.Background()

	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	mc.now = func() time.Time { return now }

	require.NoError(t, mc.Set(ctx, "k", 1, time.Second))
	now = now.Add(2 * time.Second)

	var v int
	assert.ErrorIs(t, mc.Get(ctx, "k", &v), ErrCacheMiss)
}

func TestMemoryCache_EvictsLeastRecentlyUsed(t *testing.T) {
	mc := NewMemoryCache(WithMemoryMaxSize(2))
	defer mc.Close()
	ctx := context.Background()

	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	mc.now = func() time.Time { return now }

	require.NoError(t, mc.Set(ctx, "a", 1, time.Hour))
	now = now.Add(time.Second)
	require.NoError(t, mc.Set(ctx, "b", 2, time.Hour))
	now = now.Add(time.Second)

	var v int
	require.NoError(t, mc.Get(ctx, "a", &v))
	now = now.Add(time.Second)

	require.NoError(t, mc.Set(ctx, "c", 3, time.Hour))
	assert.Equal(t, 2, mc.Len())
	assert.ErrorIs(t, mc.Get(ctx, "b", &v), ErrCacheMiss)
	require.NoError(t, mc.Get(ctx, "a", &v))
	assert.Equal(t, 1, v)
}

func TestMemoryCache_TryLock(t *testing.T) {
	mc := NewMemoryCache()
	defer mc.Close()
	ctx := context.Background()

	ok, err := mc.TryLock(ctx, "lock", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = mc.TryLock(ctx, "lock", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, mc.Unlock(ctx, "lock"))
	ok, _ = mc.TryLock(ctx, "lock", time.Minute)
	assert.True(t, ok)
}

func TestLayeredCache_FillsL1FromRemote(t *testing.T) {
	remote := NewMemoryCache()
	lc := NewLayeredCache(remote)
	defer lc.Close()
	ctx := context.Background()

	require.NoError(t, remote.Set(ctx, "eth", quote{Price: "3000"}, time.Hour))

	var got quote
	require.NoError(t, lc.Get(ctx, "eth", &got))
	assert.Equal(t, "3000", got.Price)

	require.NoError(t, remote.Delete(ctx, "eth"))
	got = quote{}
	require.NoError(t, lc.Get(ctx, "eth", &got))
	assert.Equal(t, "3000", got.Price)
}

func TestGetOrLoad(t *testing.T) {
	mc := NewMemoryCache()
	defer mc.Close()
	ctx := context.Background()

	calls := 0
	load := func(context.Context) (quote, error) {
		calls++
		return quote{Price: "1.5"}, nil
	}

	for i := 0; i < 3; i++ {
		v, err := GetOrLoad(ctx, mc, "sol", time.Minute, load)
		require.NoError(t, err)
		assert.Equal(t, "1.5", v.Price)
	}
	assert.Equal(t, 1, calls)

	boom := errors.New("boom")
	_, err := GetOrLoad(ctx, mc, "ada", time.Minute, func(context.Context) (quote, error) { return quote{}, boom })
	assert.ErrorIs(t, err, boom)
	ok, _ := mc.Exists(ctx, "ada")
	assert.False(t, ok)

	v, err := GetOrLoad[int](ctx, nil, "x", time.Minute, func(context.Context) (int, error) { return 7, nil })
	require.NoError(t, err)
	assert.Equal(t, 7, v)
}

func TestKey(t *testing.T) {
	assert.Equal(t, "coingecko:chart:bitcoin:60", Key("coingecko", "chart", "bitcoin", "60"))
	assert.Equal(t, "solo", Key("solo"))
}
