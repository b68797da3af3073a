package pricing

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/noah-isme/checkout-pricing/internal/obs"
)

// PriceLookup returns the catalog retail price for an exact SKU.
type PriceLookup interface {
	Price(ctx context.Context, sku string) (price decimal.Decimal, ok bool, err error)
}

// ResolvedPrice is the outcome of resolving one requested SKU.
type ResolvedPrice struct {
	SKU         string
	ResolvedSKU string
	UnitPrice   decimal.Decimal
	Fallback    bool
}

// Resolver maps requested SKUs to authoritative unit prices.
type Resolver struct {
	Catalog PriceLookup
}

// Resolve looks up the exact SKU and, when it has no positive price, walks the
// fallback candidates. An SKU nothing matches resolves to a zero price so one bad
// catalog entry never blocks checkout; only catalog I/O failures are returned.
func (r Resolver) Resolve(ctx context.Context, sku string) (ResolvedPrice, error) {
	if r.Catalog == nil {
		return ResolvedPrice{}, errors.New("pricing: catalog not configured")
	}
	sku = strings.TrimSpace(sku)
	out := ResolvedPrice{SKU: sku, ResolvedSKU: sku, UnitPrice: decimal.Zero}

	price, ok, err := r.Catalog.Price(ctx, sku)
	if err != nil {
		return ResolvedPrice{}, fmt.Errorf("lookup price %s: %w", sku, err)
	}
	if ok && price.IsPositive() {
		out.UnitPrice = price
		return out, nil
	}

	logger := zerolog.Ctx(ctx)
	for _, candidate := range FallbackCandidates(sku) {
		price, ok, err := r.Catalog.Price(ctx, candidate)
		if err != nil {
			return ResolvedPrice{}, fmt.Errorf("lookup price %s: %w", candidate, err)
		}
		if !ok || !price.IsPositive() {
			continue
		}
		logger.Debug().
			Str("sku", sku).
			Str("resolved_sku", candidate).
			Str("unit_price", price.StringFixed(2)).
			Msg("price_fallback_match")
		recordFallback("matched")
		out.ResolvedSKU = candidate
		out.UnitPrice = price
		out.Fallback = true
		return out, nil
	}

	logger.Warn().Str("sku", sku).Msg("price_unresolved")
	recordFallback("unresolved")
	return out, nil
}

func recordFallback(outcome string) {
	if obs.PriceFallbackTotal != nil {
		obs.PriceFallbackTotal.WithLabelValues(outcome).Inc()
	}
}
