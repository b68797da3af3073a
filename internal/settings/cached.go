package settings

import (
	"context"
	"errors"

	"github.com/noah-isme/checkout-pricing/internal/cache"
	"github.com/noah-isme/checkout-pricing/internal/obs"
	"github.com/noah-isme/checkout-pricing/internal/pricing"
)

type cachedSetting struct {
	Value string `json:"value"`
	Found bool   `json:"found"`
}

// Cached memoises another source in Redis for the cache TTL.
type Cached struct {
	Next  pricing.SettingsSource
	Cache *cache.JSONCache
}

var _ pricing.SettingsSource = Cached{}

// Setting implements pricing.SettingsSource.
func (c Cached) Setting(ctx context.Context, key string) (string, bool, error) {
	if c.Next == nil {
		return "", false, errors.New("settings: source not configured")
	}
	cacheKey := cache.KeySetting(key)
	var hit cachedSetting
	if ok, err := c.Cache.GetJSON(ctx, cacheKey, &hit); err == nil && ok {
		obs.RecordCacheLookup("setting", true)
		return hit.Value, hit.Found, nil
	}
	if c.Cache.Enabled() {
		obs.RecordCacheLookup("setting", false)
	}
	value, ok, err := c.Next.Setting(ctx, key)
	if err != nil {
		return "", false, err
	}
	_ = c.Cache.SetJSON(ctx, cacheKey, cachedSetting{Value: value, Found: ok})
	return value, ok, nil
}

// Invalidate drops cached values for the given keys.
func (c Cached) Invalidate(ctx context.Context, keys ...string) error {
	cacheKeys := make([]string, 0, len(keys))
	for _, k := range keys {
		cacheKeys = append(cacheKeys, cache.KeySetting(k))
	}
	return c.Cache.Delete(ctx, cacheKeys...)
}
