// Package checkout serves checkout price quotes over HTTP.
package checkout

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/noah-isme/checkout-pricing/internal/obs"
	"github.com/noah-isme/checkout-pricing/internal/pricing"
)

// Quote outcomes recorded in pricing_quotes_total.
const (
	ResultOK          = "ok"
	ResultInvalid     = "invalid"
	ResultConfigError = "config_error"
	ResultError       = "error"
)

var tracer = otel.Tracer("github.com/noah-isme/checkout-pricing/internal/checkout")

// Service prices carts against a fresh settings snapshot on every call.
type Service struct {
	Engine   pricing.Engine
	Settings pricing.SettingsSource
}

// Quote loads the current settings and prices req.
func (s *Service) Quote(ctx context.Context, req pricing.Request) (pricing.Result, error) {
	start := time.Now()
	ctx, span := tracer.Start(ctx, "checkout.quote")
	defer span.End()
	span.SetAttributes(
		attribute.Int("cart.lines", len(req.Lines)),
		attribute.String("shipping.method", req.ShippingMethod),
	)

	res, err := s.quote(ctx, req)
	result := classify(err)
	obs.RecordQuote(result, time.Since(start))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, result)
		return pricing.Result{}, err
	}
	span.SetAttributes(
		attribute.String("tax.source", string(res.TaxQuote.Source)),
		attribute.String("pricing.total", res.Total.StringFixed(2)),
	)
	return res, nil
}

func (s *Service) quote(ctx context.Context, req pricing.Request) (pricing.Result, error) {
	if s == nil || s.Settings == nil {
		return pricing.Result{}, errors.New("checkout: settings source not configured")
	}
	settings, err := pricing.LoadSettings(ctx, s.Settings)
	if err != nil {
		return pricing.Result{}, err
	}
	return s.Engine.Price(ctx, settings, req)
}

func classify(err error) string {
	var cfgErr *pricing.ConfigError
	switch {
	case err == nil:
		return ResultOK
	case errors.As(err, &cfgErr):
		return ResultConfigError
	case errors.Is(err, pricing.ErrInvalidLine):
		return ResultInvalid
	default:
		return ResultError
	}
}
