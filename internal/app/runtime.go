package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/extra/redisotel/v9"
	redis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/noah-isme/checkout-pricing/internal/cache"
	"github.com/noah-isme/checkout-pricing/internal/catalog"
	"github.com/noah-isme/checkout-pricing/internal/config"
	"github.com/noah-isme/checkout-pricing/internal/health"
	"github.com/noah-isme/checkout-pricing/internal/obs"
	"github.com/noah-isme/checkout-pricing/internal/pricing"
	"github.com/noah-isme/checkout-pricing/internal/ratelimit"
	"github.com/noah-isme/checkout-pricing/internal/resilience"
	"github.com/noah-isme/checkout-pricing/internal/settings"
	"github.com/noah-isme/checkout-pricing/internal/taxrate"
)

const cachePrefix = "checkout:"

// Runtime owns the process-wide connections.
type Runtime struct {
	DB    *pgxpool.Pool
	Redis *redis.Client
}

// Connect opens the database pool and, when REDIS_URL is set, the Redis client.
func Connect(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*Runtime, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database config: %w", err)
	}
	poolConfig.ConnConfig.Tracer = obs.PGXTracer{}
	if poolConfig.ConnConfig.RuntimeParams == nil {
		poolConfig.ConnConfig.RuntimeParams = map[string]string{}
	}
	poolConfig.ConnConfig.RuntimeParams["application_name"] = "checkout-pricing"

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	rt := &Runtime{DB: pool}

	if cfg.RedisURL == "" {
		logger.Warn().Msg("REDIS_URL not set; caching and rate limiting disabled")
		return rt, nil
	}
	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		rt.Close()
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := redisotel.InstrumentTracing(client); err != nil {
		logger.Error().Err(err).Msg("instrument redis tracing")
	}
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		rt.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	rt.Redis = client
	return rt, nil
}

// Close releases every connection.
func (rt *Runtime) Close() {
	if rt.Redis != nil {
		_ = rt.Redis.Close()
	}
	if rt.DB != nil {
		rt.DB.Close()
	}
}

// Components builds the collaborators backed by the runtime connections.
func (rt *Runtime) Components(cfg *config.Config, logger zerolog.Logger, metrics *obs.HTTPMetrics) (Components, error) {
	overrides, err := settings.LoadEnvOverrides()
	if err != nil {
		return Components{}, err
	}
	if keys := overrides.Keys(); len(keys) > 0 {
		logger.Info().Strs("keys", keys).Msg("business settings overridden from environment")
	}

	var prices pricing.PriceLookup = catalog.Store{DB: rt.DB}
	var settingsSource pricing.SettingsSource = settings.PGStore{DB: rt.DB}
	var taxLookup taxrate.Lookup = taxrate.PGStore{DB: rt.DB}
	if cfg.TaxProvider == "http" {
		resilience.MustRegisterMetrics(nil)
		taxLookup = taxrate.NewHTTPProvider(cfg.TaxAPIURL, cfg.TaxAPITimeout, taxLookup, logger)
	}
	taxService := taxrate.Service{Source: taxLookup}

	var limiter ratelimit.Limiter
	if rt.Redis != nil {
		prices = catalog.CachedLookup{Next: prices, Cache: cache.New(rt.Redis, cachePrefix, cfg.CatalogCacheTTL)}
		settingsSource = settings.Cached{Next: settingsSource, Cache: cache.New(rt.Redis, cachePrefix, cfg.SettingsCacheTTL)}
		taxService.Cache = cache.New(rt.Redis, cachePrefix, cfg.TaxCacheTTL)

		switch cfg.RateLimitStrategy {
		case "fixed":
			fixed, err := ratelimit.NewFixedWindow(rt.Redis, cachePrefix+"ratelimit")
			if err != nil {
				return Components{}, err
			}
			limiter = fixed
		default:
			limiter = ratelimit.SlidingWindow{Client: rt.Redis, Prefix: cachePrefix + "ratelimit:"}
		}
	}

	return Components{
		Prices:   prices,
		Settings: settings.Chain{overrides, settingsSource},
		TaxRates: taxService,
		Limiter:  limiter,
		Probes:   rt.probes(),
		Metrics:  metrics,
	}, nil
}

func (rt *Runtime) probes() map[string]health.Probe {
	probes := map[string]health.Probe{
		"db": func(ctx context.Context, timeout time.Duration) error {
			ctx, cancel := context.WithTimeout(ctx, timeout)
			defer cancel()
			return rt.DB.Ping(ctx)
		},
	}
	if rt.Redis != nil {
		probes["redis"] = func(ctx context.Context, timeout time.Duration) error {
			ctx, cancel := context.WithTimeout(ctx, timeout)
			defer cancel()
			return rt.Redis.Ping(ctx).Err()
		}
	}
	return probes
}

// NewServer returns an http.Server with the configured timeouts.
func NewServer(cfg *config.Config, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              cfg.HTTPAddr(),
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       cfg.ReadTimeout,
		WriteTimeout:      cfg.WriteTimeout,
	}
}

// Shutdown drains readiness, then stops the server within the configured timeout.
func Shutdown(srv *http.Server, cfg *config.Config) error {
	health.SetReady(false)
	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
