package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/noah-isme/checkout-pricing/internal/cache"
	"github.com/noah-isme/checkout-pricing/internal/obs"
	"github.com/noah-isme/checkout-pricing/internal/pricing"
)

// Querier is the subset of pgxpool.Pool used by the catalog.
type Querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

const priceBySKU = `SELECT retail_price::text FROM products WHERE sku = $1 AND active`

// Store reads retail prices from the products table.
type Store struct {
	DB Querier
}

var _ pricing.PriceLookup = Store{}

// Price returns the retail price for an exact SKU. Unknown SKUs and NULL prices
// report ok=false.
func (s Store) Price(ctx context.Context, sku string) (decimal.Decimal, bool, error) {
	if s.DB == nil {
		return decimal.Zero, false, errors.New("catalog: database not configured")
	}
	var raw *string
	err := s.DB.QueryRow(ctx, priceBySKU, strings.TrimSpace(sku)).Scan(&raw)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return decimal.Zero, false, nil
		}
		return decimal.Zero, false, fmt.Errorf("query price: %w", err)
	}
	if raw == nil {
		return decimal.Zero, false, nil
	}
	price, err := decimal.NewFromString(*raw)
	if err != nil {
		return decimal.Zero, false, fmt.Errorf("parse price for %s: %w", sku, err)
	}
	return price, true, nil
}

type cachedPrice struct {
	Price string `json:"price"`
	Found bool   `json:"found"`
}

// CachedLookup memoises price lookups, including misses, in Redis. Cache failures
// fall through to the underlying lookup.
type CachedLookup struct {
	Next  pricing.PriceLookup
	Cache *cache.JSONCache
}

var _ pricing.PriceLookup = CachedLookup{}

// Price implements pricing.PriceLookup.
func (c CachedLookup) Price(ctx context.Context, sku string) (decimal.Decimal, bool, error) {
	if c.Next == nil {
		return decimal.Zero, false, errors.New("catalog: lookup not configured")
	}
	key := cache.KeyPrice(sku)
	var hit cachedPrice
	if ok, err := c.Cache.GetJSON(ctx, key, &hit); err == nil && ok {
		obs.RecordCacheLookup("price", true)
		if !hit.Found {
			return decimal.Zero, false, nil
		}
		if price, err := decimal.NewFromString(hit.Price); err == nil {
			return price, true, nil
		}
	}
	if c.Cache.Enabled() {
		obs.RecordCacheLookup("price", false)
	}

	price, ok, err := c.Next.Price(ctx, sku)
	if err != nil {
		return decimal.Zero, false, err
	}
	entry := cachedPrice{Found: ok}
	if ok {
		entry.Price = price.String()
	}
	_ = c.Cache.SetJSON(ctx, key, entry)
	return price, ok, nil
}
