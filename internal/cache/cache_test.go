package cache_test

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/checkout-pricing/internal/cache"
)

type entry struct {
	Price string `json:"price"`
	Found bool   `json:"found"`
}

func TestJSONCacheRoundTripAndExpiry(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer func() { _ = client.Close() }()

	c := cache.New(client, "test:", time.Minute)
	ctx := context.Background()

	var got entry
	ok, err := c.GetJSON(ctx, cache.KeyPrice("WF-TS-001"), &got)
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, c.SetJSON(ctx, cache.KeyPrice("WF-TS-001"), entry{Price: "10.00", Found: true}))
	require.True(t, mr.Exists("test:price:WF-TS-001"))

	ok, err = c.GetJSON(ctx, cache.KeyPrice("WF-TS-001"), &got)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, entry{Price: "10.00", Found: true}, got)

	mr.FastForward(2 * time.Minute)
	ok, err = c.GetJSON(ctx, cache.KeyPrice("WF-TS-001"), &got)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestJSONCacheDelete(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer func() { _ = client.Close() }()

	c := cache.New(client, "test:", time.Minute)
	ctx := context.Background()
	require.NoError(t, c.SetJSON(ctx, cache.KeySetting("Currency"), "USD"))
	require.True(t, mr.Exists("test:setting:currency"))
	require.NoError(t, c.Delete(ctx, cache.KeySetting("currency")))
	require.False(t, mr.Exists("test:setting:currency"))
}

func TestJSONCacheDisabled(t *testing.T) {
	c := cache.New(nil, "test:", time.Minute)
	require.False(t, c.Enabled())
	ok, err := c.GetJSON(context.Background(), "k", &entry{})
	require.NoError(t, err)
	require.False(t, ok)
	require.NoError(t, c.SetJSON(context.Background(), "k", entry{}))
}
