package settings_test

import (
	"context"
	"errors"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/jackc/pgx/v5"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/checkout-pricing/internal/cache"
	"github.com/noah-isme/checkout-pricing/internal/pricing"
	"github.com/noah-isme/checkout-pricing/internal/settings"
)

type fakeRow struct {
	value *string
	err   error
}

func (r fakeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	*(dest[0].(**string)) = r.value
	return nil
}

type fakeDB struct {
	values  map[string]*string
	err     error
	queries int
}

func (f *fakeDB) QueryRow(_ context.Context, _ string, args ...any) pgx.Row {
	f.queries++
	if f.err != nil {
		return fakeRow{err: f.err}
	}
	v, ok := f.values[args[0].(string)]
	if !ok {
		return fakeRow{err: pgx.ErrNoRows}
	}
	return fakeRow{value: v}
}

func strPtr(s string) *string { return &s }

func TestPGStoreSetting(t *testing.T) {
	db := &fakeDB{values: map[string]*string{
		pricing.KeyCurrency: strPtr("usd"),
		pricing.KeyTaxRate:  nil,
	}}
	store := settings.PGStore{DB: db}
	ctx := context.Background()

	v, ok, err := store.Setting(ctx, pricing.KeyCurrency)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "usd", v)

	_, ok, err = store.Setting(ctx, pricing.KeyTaxRate)
	require.NoError(t, err)
	require.False(t, ok)

	_, ok, err = store.Setting(ctx, pricing.KeyBusinessZip)
	require.NoError(t, err)
	require.False(t, ok)

	db.err = errors.New("timeout")
	_, _, err = store.Setting(ctx, pricing.KeyCurrency)
	require.ErrorContains(t, err, "timeout")
}

func TestEnvOverridesTakePrecedence(t *testing.T) {
	db := &fakeDB{values: map[string]*string{
		pricing.KeyShippingRateUSPS: strPtr("8.99"),
		pricing.KeyCurrency:         strPtr("USD"),
	}}
	overrides := settings.NewEnvOverrides(map[string]string{"SHIPPING_RATE_USPS": "7.50"})
	chain := settings.Chain{overrides, settings.PGStore{DB: db}}
	ctx := context.Background()

	v, ok, err := chain.Setting(ctx, pricing.KeyShippingRateUSPS)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "7.50", v)

	v, ok, err = chain.Setting(ctx, pricing.KeyCurrency)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "USD", v)

	_, ok, err = chain.Setting(ctx, pricing.KeyBusinessZip)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestBlankEnvOverrideFallsThrough(t *testing.T) {
	db := &fakeDB{values: map[string]*string{pricing.KeyShippingRateUSPS: strPtr("8.99")}}
	overrides := settings.NewEnvOverrides(map[string]string{"shipping_rate_usps": "  "})
	require.Empty(t, overrides.Keys())

	v, ok, err := settings.Chain{overrides, settings.PGStore{DB: db}}.Setting(context.Background(), pricing.KeyShippingRateUSPS)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "8.99", v)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("STORE_SETTING_FREE_SHIPPING_THRESHOLD", "75")
	overrides, err := settings.LoadEnvOverrides()
	require.NoError(t, err)
	require.Contains(t, overrides.Keys(), pricing.KeyFreeShippingThreshold)

	v, ok, err := overrides.Setting(context.Background(), pricing.KeyFreeShippingThreshold)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "75", v)
}

func TestChainStopsOnError(t *testing.T) {
	failing := &fakeDB{err: errors.New("boom")}
	chain := settings.Chain{settings.PGStore{DB: failing}, settings.NewEnvOverrides(map[string]string{"currency": "USD"})}
	_, _, err := chain.Setting(context.Background(), pricing.KeyCurrency)
	require.Error(t, err)
}

func TestCachedSettingsAndInvalidate(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer func() { _ = client.Close() }()

	db := &fakeDB{values: map[string]*string{pricing.KeyCurrency: strPtr("USD")}}
	cached := settings.Cached{Next: settings.PGStore{DB: db}, Cache: cache.New(client, "test:", time.Minute)}
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		v, ok, err := cached.Setting(ctx, pricing.KeyCurrency)
		require.NoError(t, err)
		require.True(t, ok)
		require.Equal(t, "USD", v)

		_, ok, err = cached.Setting(ctx, pricing.KeyBusinessZip)
		require.NoError(t, err)
		require.False(t, ok)
	}
	require.Equal(t, 2, db.queries)

	db.values[pricing.KeyCurrency] = strPtr("CAD")
	require.NoError(t, cached.Invalidate(ctx, pricing.KeyCurrency))
	v, _, err := cached.Setting(ctx, pricing.KeyCurrency)
	require.NoError(t, err)
	require.Equal(t, "CAD", v)
}

func TestLoadSettingsThroughChain(t *testing.T) {
	db := &fakeDB{values: map[string]*string{
		pricing.KeyFreeShippingThreshold: strPtr("50"),
		pricing.KeyLocalDeliveryFee:      strPtr("5"),
		pricing.KeyShippingRateUSPS:      strPtr("8.99"),
		pricing.KeyShippingRateFedEx:     strPtr("12.50"),
		pricing.KeyShippingRateUPS:       strPtr("11.25"),
		pricing.KeyTaxShipping:           strPtr("false"),
		pricing.KeyCurrency:              strPtr("usd"),
	}}
	chain := settings.Chain{settings.NewEnvOverrides(map[string]string{"tax_enabled": "true"}), settings.PGStore{DB: db}}

	_, err := pricing.LoadSettings(context.Background(), chain)
	var cfgErr *pricing.ConfigError
	require.ErrorAs(t, err, &cfgErr)
	require.Equal(t, pricing.KeyTaxRate, cfgErr.Key)
}
