package taxrate

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"

	"github.com/noah-isme/checkout-pricing/internal/cache"
	"github.com/noah-isme/checkout-pricing/internal/obs"
	"github.com/noah-isme/checkout-pricing/internal/pricing"
)

// Record is the tax data known for one ZIP code.
type Record struct {
	Zip   string          `json:"zip"`
	State string          `json:"state"`
	Rate  decimal.Decimal `json:"rate"`
}

// Lookup fetches the record for a normalised five-digit ZIP.
type Lookup interface {
	Lookup(ctx context.Context, zip string) (Record, bool, error)
}

type cachedRecord struct {
	Record Record `json:"record"`
	Found  bool   `json:"found"`
}

// Service adapts a Lookup to pricing.TaxRateSource, normalising ZIPs and
// caching records in Redis.
type Service struct {
	Source Lookup
	Cache  *cache.JSONCache
}

var _ pricing.TaxRateSource = Service{}

// RateForZip returns the combined rate for zip, or zero when it is unknown.
func (s Service) RateForZip(ctx context.Context, zip string) (decimal.Decimal, error) {
	rec, ok, err := s.record(ctx, zip)
	if err != nil || !ok {
		return decimal.Zero, err
	}
	if rec.Rate.IsNegative() {
		return decimal.Zero, nil
	}
	return rec.Rate, nil
}

// StateForZip returns the state code for zip when known.
func (s Service) StateForZip(ctx context.Context, zip string) (string, bool, error) {
	rec, ok, err := s.record(ctx, zip)
	if err != nil || !ok || rec.State == "" {
		return "", false, err
	}
	return rec.State, true, nil
}

func (s Service) record(ctx context.Context, zip string) (Record, bool, error) {
	if s.Source == nil {
		return Record{}, false, errors.New("taxrate: source not configured")
	}
	normalized, ok := NormalizeZip(zip)
	if !ok {
		return Record{}, false, nil
	}
	key := cache.KeyZip(normalized)
	var hit cachedRecord
	if found, err := s.Cache.GetJSON(ctx, key, &hit); err == nil && found {
		obs.RecordCacheLookup("zip", true)
		return hit.Record, hit.Found, nil
	}
	if s.Cache.Enabled() {
		obs.RecordCacheLookup("zip", false)
	}
	rec, found, err := s.Source.Lookup(ctx, normalized)
	if err != nil {
		return Record{}, false, err
	}
	_ = s.Cache.SetJSON(ctx, key, cachedRecord{Record: rec, Found: found})
	return rec, found, nil
}
