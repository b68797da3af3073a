package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/checkout-pricing/internal/config"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := config.LoadForTests(map[string]string{
		"DATABASE_URL":          "postgres://localhost/checkout",
		"TAX_PROVIDER":          "",
		"RATE_LIMIT_STRATEGY":   "",
		"PRICING_STRICT_STATUS": "",
		"OBS_LOG_FORMAT":        "",
		"PORT":                  "",
		"TAX_CACHE_TTL":         "",
	})
	require.NoError(t, err)
	require.Equal(t, "db", cfg.TaxProvider)
	require.Equal(t, "sliding", cfg.RateLimitStrategy)
	require.False(t, cfg.StrictStatus)
	require.Equal(t, time.Minute, cfg.CatalogCacheTTL)
	require.Equal(t, 10*time.Minute, cfg.TaxCacheTTL)
	require.Equal(t, int64(64<<10), cfg.BodyLimitBytes)
	require.Equal(t, "json", cfg.Obs.LogFormat)
	require.Equal(t, ":8080", cfg.HTTPAddr())
}

func TestLoadOverrides(t *testing.T) {
	cfg, err := config.LoadForTests(map[string]string{
		"DATABASE_URL":                 "postgres://localhost/checkout",
		"PORT":                         ":9090",
		"PRICING_STRICT_STATUS":        "true",
		"PRICING_REJECT_INVALID_LINES": "yes",
		"TAX_PROVIDER":                 "HTTP",
		"TAX_API_URL":                  "https://rates.example.com",
		"RATE_LIMIT_STRATEGY":          "fixed",
		"SETTINGS_CACHE_TTL":           "0s",
		"TAX_CACHE_TTL":                "90s",
		"CORS_ALLOWED_ORIGINS":         "https://shop.example.com, https://admin.example.com",
	})
	require.NoError(t, err)
	require.True(t, cfg.StrictStatus)
	require.True(t, cfg.RejectInvalidLines)
	require.Equal(t, "http", cfg.TaxProvider)
	require.Equal(t, "fixed", cfg.RateLimitStrategy)
	require.Zero(t, cfg.SettingsCacheTTL)
	require.Equal(t, 90*time.Second, cfg.TaxCacheTTL)
	require.Equal(t, []string{"https://shop.example.com", "https://admin.example.com"}, cfg.CORSAllowedOrigins)
	require.Equal(t, ":9090", cfg.HTTPAddr())
}

func TestLoadValidation(t *testing.T) {
	_, err := config.LoadForTests(map[string]string{"DATABASE_URL": ""})
	require.ErrorContains(t, err, "DATABASE_URL is required")

	_, err = config.LoadForTests(map[string]string{
		"DATABASE_URL": "postgres://localhost/checkout",
		"TAX_PROVIDER": "http",
		"TAX_API_URL":  "",
	})
	require.ErrorContains(t, err, "TAX_API_URL is required")

	_, err = config.LoadForTests(map[string]string{
		"DATABASE_URL":        "postgres://localhost/checkout",
		"RATE_LIMIT_STRATEGY": "token-bucket",
	})
	require.ErrorContains(t, err, "RATE_LIMIT_STRATEGY must be one of: sliding fixed")
}
