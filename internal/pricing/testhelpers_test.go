package pricing_test

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"

	"github.com/noah-isme/checkout-pricing/internal/pricing"
)

type memoryCatalog struct {
	prices  map[string]string
	lookups []string
	err     error
}

func (m *memoryCatalog) Price(_ context.Context, sku string) (decimal.Decimal, bool, error) {
	m.lookups = append(m.lookups, sku)
	if m.err != nil {
		return decimal.Zero, false, m.err
	}
	raw, ok := m.prices[sku]
	if !ok {
		return decimal.Zero, false, nil
	}
	return decimal.RequireFromString(raw), true, nil
}

type memorySettings map[string]string

func (m memorySettings) Setting(_ context.Context, key string) (string, bool, error) {
	v, ok := m[key]
	return v, ok, nil
}

type failingSettings struct{}

func (failingSettings) Setting(context.Context, string) (string, bool, error) {
	return "", false, errors.New("settings table unavailable")
}

type zipRates struct {
	rates  map[string]string
	states map[string]string
	err    error
	calls  int
}

func (z *zipRates) RateForZip(_ context.Context, zip string) (decimal.Decimal, error) {
	z.calls++
	if z.err != nil {
		return decimal.Zero, z.err
	}
	raw, ok := z.rates[zip]
	if !ok {
		return decimal.Zero, nil
	}
	return decimal.RequireFromString(raw), nil
}

func (z *zipRates) StateForZip(_ context.Context, zip string) (string, bool, error) {
	if z.err != nil {
		return "", false, z.err
	}
	state, ok := z.states[zip]
	return state, ok, nil
}

func baseSettings() memorySettings {
	return memorySettings{
		pricing.KeyFreeShippingThreshold: "50.00",
		pricing.KeyLocalDeliveryFee:      "5.00",
		pricing.KeyShippingRateUSPS:      "8.99",
		pricing.KeyShippingRateFedEx:     "12.50",
		pricing.KeyShippingRateUPS:       "11.25",
		pricing.KeyTaxShipping:           "false",
		pricing.KeyTaxEnabled:            "false",
		pricing.KeyCurrency:              "usd",
	}
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}
