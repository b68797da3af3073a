// Package app wires the HTTP server from configuration.
package app

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/noah-isme/checkout-pricing/internal/catalog"
	"github.com/noah-isme/checkout-pricing/internal/checkout"
	"github.com/noah-isme/checkout-pricing/internal/common"
	"github.com/noah-isme/checkout-pricing/internal/config"
	"github.com/noah-isme/checkout-pricing/internal/health"
	"github.com/noah-isme/checkout-pricing/internal/obs"
	"github.com/noah-isme/checkout-pricing/internal/pricing"
	"github.com/noah-isme/checkout-pricing/internal/ratelimit"
	"github.com/noah-isme/checkout-pricing/internal/security"
)

// Components are the collaborators the router serves.
type Components struct {
	Prices   pricing.PriceLookup
	Settings pricing.SettingsSource
	TaxRates pricing.TaxRateSource
	Limiter  ratelimit.Limiter
	Probes   map[string]health.Probe
	Metrics  *obs.HTTPMetrics
}

// NewRouter builds the chi router with middleware and routes.
func NewRouter(cfg *config.Config, logger zerolog.Logger, c Components) http.Handler {
	resolver := pricing.Resolver{Catalog: c.Prices}
	checkoutHandler := &checkout.Handler{
		Svc: &checkout.Service{
			Engine: pricing.Engine{
				Resolver:           resolver,
				TaxRates:           c.TaxRates,
				RejectInvalidLines: cfg.RejectInvalidLines,
			},
			Settings: c.Settings,
		},
		StrictStatus: cfg.StrictStatus,
	}
	catalogHandler := catalog.Handler{Resolver: resolver}
	healthHandler := health.Handler{Probes: c.Probes, Timeout: cfg.HealthTimeout}
	limit := ratelimit.Handler{
		Limiter: c.Limiter,
		Config: ratelimit.Config{
			Key:    ratelimit.ByClientIP,
			Window: cfg.RateLimitWindow,
			Max:    cfg.RateLimitMax,
		},
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	if cfg.Obs.EnableTracing {
		r.Use(obs.TracingMiddleware)
	}
	if c.Metrics != nil {
		r.Use(obs.HTTPObs{Metrics: c.Metrics}.Middleware)
	}
	r.Use(obs.RequestLogger{Logger: logger}.Middleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: allowedOrigins(cfg),
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID", "X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset"},
		MaxAge:         300,
	}))
	r.Use(security.Headers{HSTS: cfg.AppEnv == "production", TrustForwardedProto: true}.Middleware)

	if c.Metrics != nil {
		r.Handle("/metrics", promhttp.Handler())
	}
	r.Get("/health/live", healthHandler.Live)
	r.Get("/health/ready", healthHandler.Ready)

	quoteLimit := limit.WithScope("quote").Middleware
	catalogLimit := limit.WithScope("catalog").Middleware
	r.Group(func(api chi.Router) {
		api.Use(security.BodyLimit{Max: cfg.BodyLimitBytes}.Middleware)

		api.With(quoteLimit).HandleFunc("/api/checkout/pricing", checkoutHandler.Pricing)
		api.Route("/api/v1", func(v chi.Router) {
			v.With(quoteLimit).HandleFunc("/checkout/pricing", checkoutHandler.Pricing)
			v.With(catalogLimit).Get("/catalog/prices/{sku}", catalogHandler.Price)
		})
	})

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		common.JSONFailure(w, http.StatusNotFound, "Not found")
	})
	return r
}

func allowedOrigins(cfg *config.Config) []string {
	if len(cfg.CORSAllowedOrigins) == 0 {
		return []string{"*"}
	}
	return cfg.CORSAllowedOrigins
}
