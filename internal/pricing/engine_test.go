package pricing_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/checkout-pricing/internal/pricing"
)

func newEngine(catalog *memoryCatalog, rates *zipRates) pricing.Engine {
	e := pricing.Engine{Resolver: pricing.Resolver{Catalog: catalog}}
	if rates != nil {
		e.TaxRates = rates
	}
	return e
}

func loadSettings(t *testing.T, src memorySettings) pricing.Settings {
	t.Helper()
	s, err := pricing.LoadSettings(context.Background(), src)
	require.NoError(t, err)
	return s
}

func TestPriceEndToEnd(t *testing.T) {
	catalog := &memoryCatalog{prices: map[string]string{"WF-TS-001": "10.00"}}
	engine := newEngine(catalog, &zipRates{})

	res, err := engine.Price(context.Background(), loadSettings(t, baseSettings()), pricing.Request{
		Lines:          []pricing.CartLine{{SKU: "WF-TS-001", Quantity: 2}},
		ShippingMethod: "USPS",
	})
	require.NoError(t, err)
	require.Equal(t, "20.00", res.Subtotal.StringFixed(2))
	require.Equal(t, "8.99", res.Shipping.StringFixed(2))
	require.Equal(t, "0.00", res.Tax.StringFixed(2))
	require.Equal(t, "28.99", res.Total.StringFixed(2))
	require.Equal(t, "USD", res.Currency)
	require.Equal(t, "USPS", res.ShippingMethod)
	require.Nil(t, res.Zip)
	require.Equal(t, "50.00", res.FreeShippingThreshold.StringFixed(2))
	require.Len(t, res.Lines, 1)
	require.Equal(t, "20.00", res.Lines[0].ExtendedPrice.StringFixed(2))
}

func TestPriceDefaultsToPickup(t *testing.T) {
	catalog := &memoryCatalog{prices: map[string]string{"WF-TS-001": "10.00"}}
	res, err := newEngine(catalog, nil).Price(context.Background(), loadSettings(t, baseSettings()), pricing.Request{
		Lines: []pricing.CartLine{{SKU: "WF-TS-001", Quantity: 1}},
	})
	require.NoError(t, err)
	require.Equal(t, pricing.DefaultShippingMethod, res.ShippingMethod)
	require.True(t, res.Shipping.IsZero())
}

func TestPriceSkipsInvalidLinesWithWarnings(t *testing.T) {
	catalog := &memoryCatalog{prices: map[string]string{"WF-TS-001": "10.00"}}
	res, err := newEngine(catalog, nil).Price(context.Background(), loadSettings(t, baseSettings()), pricing.Request{
		Lines: []pricing.CartLine{
			{SKU: "", Quantity: 3},
			{SKU: "WF-TS-001", Quantity: 0},
			{SKU: "WF-TS-001", Quantity: 1},
		},
	})
	require.NoError(t, err)
	require.Equal(t, "10.00", res.Subtotal.StringFixed(2))
	require.Len(t, res.Lines, 1)
	require.Len(t, res.Warnings, 2)
}

func TestPriceRejectsInvalidLinesWhenConfigured(t *testing.T) {
	engine := newEngine(&memoryCatalog{}, nil)
	engine.RejectInvalidLines = true
	_, err := engine.Price(context.Background(), loadSettings(t, baseSettings()), pricing.Request{
		Lines: []pricing.CartLine{{SKU: "WF-TS-001", Quantity: -1}},
	})
	require.ErrorIs(t, err, pricing.ErrInvalidLine)
}

func TestPriceWithZipTaxOnShipping(t *testing.T) {
	catalog := &memoryCatalog{prices: map[string]string{"WF-TS-001": "12.00"}}
	rates := &zipRates{rates: map[string]string{"90210": "0.08"}, states: map[string]string{"90210": "CA"}}
	src := baseSettings()
	src[pricing.KeyTaxShipping] = "true"
	src[pricing.KeyTaxEnabled] = "true"
	src[pricing.KeyTaxRate] = "0.05"

	res, err := newEngine(catalog, rates).Price(context.Background(), loadSettings(t, src), pricing.Request{
		Lines:          []pricing.CartLine{{SKU: "WF-TS-001-RED", Quantity: 3}},
		ShippingMethod: "FedEx",
		Zip:            "90210",
	})
	require.NoError(t, err)
	// (36.00 + 12.50) * 0.08 = 3.88
	require.Equal(t, "36.00", res.Subtotal.StringFixed(2))
	require.Equal(t, "12.50", res.Shipping.StringFixed(2))
	require.Equal(t, "3.88", res.Tax.StringFixed(2))
	require.Equal(t, "52.38", res.Total.StringFixed(2))
	require.NotNil(t, res.Zip)
	require.Equal(t, "90210", *res.Zip)
	require.Equal(t, pricing.TaxSourceZip, res.TaxQuote.Source)
	require.Equal(t, "WF-TS-001", res.Lines[0].ResolvedSKU)
	require.True(t, res.Lines[0].Fallback)
}

func TestPriceTotalInvariantAndIdempotence(t *testing.T) {
	catalog := &memoryCatalog{prices: map[string]string{"A-1": "3.33", "B-2": "19.99", "C-3": "0.01"}}
	rates := &zipRates{rates: map[string]string{"30301": "0.089"}}
	settings := loadSettings(t, func() memorySettings {
		src := baseSettings()
		src[pricing.KeyTaxShipping] = "true"
		return src
	}())
	req := pricing.Request{
		Lines: []pricing.CartLine{
			{SKU: "A-1", Quantity: 7},
			{SKU: "B-2", Quantity: 1},
			{SKU: "C-3", Quantity: 13},
		},
		ShippingMethod: "Local Delivery",
		Zip:            "30301",
	}
	engine := newEngine(catalog, rates)
	first, err := engine.Price(context.Background(), settings, req)
	require.NoError(t, err)
	second, err := engine.Price(context.Background(), settings, req)
	require.NoError(t, err)

	require.True(t, first.Total.Equal(pricing.Round(first.Subtotal.Add(first.Shipping).Add(first.Tax))))
	require.True(t, first.Total.Equal(second.Total))
	require.True(t, first.Tax.Equal(second.Tax))
	require.Equal(t, first.Lines, second.Lines)
}

func TestPriceRequiresCurrency(t *testing.T) {
	_, err := newEngine(&memoryCatalog{}, nil).Price(context.Background(), pricing.Settings{}, pricing.Request{})
	require.ErrorIs(t, err, pricing.ErrMissingSetting)
}

func TestPriceSurfacesCatalogFailure(t *testing.T) {
	catalog := &memoryCatalog{err: errors.New("db down")}
	_, err := newEngine(catalog, nil).Price(context.Background(), loadSettings(t, baseSettings()), pricing.Request{
		Lines: []pricing.CartLine{{SKU: "WF-TS-001", Quantity: 1}},
	})
	require.Error(t, err)
	var cfgErr *pricing.ConfigError
	require.False(t, errors.As(err, &cfgErr))
}
