package pricing

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// TaxSource names where the applied tax rate came from.
type TaxSource string

const (
	TaxSourceZip      TaxSource = "zip"
	TaxSourceSettings TaxSource = "settings"
	TaxSourceNone     TaxSource = "none"
)

// TaxRateSource is the ZIP-code tax lookup service.
type TaxRateSource interface {
	RateForZip(ctx context.Context, zip string) (decimal.Decimal, error)
	StateForZip(ctx context.Context, zip string) (state string, ok bool, err error)
}

// TaxInput carries everything tax resolution depends on.
type TaxInput struct {
	Subtotal decimal.Decimal
	Shipping decimal.Decimal
	Zip      string
	Settings TaxSettings
}

// TaxQuote is the resolved tax for a cart.
type TaxQuote struct {
	Enabled     bool
	Rate        decimal.Decimal
	Source      TaxSource
	TaxableBase decimal.Decimal
	Amount      decimal.Decimal
	Zip         string
	State       string
}

// ResolveTax picks the applicable rate, preferring a positive ZIP-derived rate over the
// configured flat rate, and computes the tax on the taxable base.
func ResolveTax(ctx context.Context, in TaxInput, rates TaxRateSource) (TaxQuote, error) {
	zip := strings.TrimSpace(in.Zip)
	if zip == "" {
		zip = strings.TrimSpace(in.Settings.BusinessZip)
	}
	quote := TaxQuote{
		Rate:   decimal.Zero,
		Source: TaxSourceNone,
		Amount: decimal.Zero,
		Zip:    zip,
	}

	zipRate := decimal.Zero
	if zip != "" {
		if rates == nil {
			return TaxQuote{}, errors.New("pricing: tax rate service not configured")
		}
		rate, err := rates.RateForZip(ctx, zip)
		if err != nil {
			return TaxQuote{}, fmt.Errorf("tax rate for zip %s: %w", zip, err)
		}
		zipRate = rate
		state, ok, err := rates.StateForZip(ctx, zip)
		if err != nil {
			return TaxQuote{}, fmt.Errorf("state for zip %s: %w", zip, err)
		}
		if ok {
			quote.State = state
		}
	}

	switch {
	case zipRate.IsPositive():
		quote.Rate = zipRate
		quote.Source = TaxSourceZip
	case in.Settings.Enabled && in.Settings.Rate.IsPositive():
		quote.Rate = in.Settings.Rate
		quote.Source = TaxSourceSettings
	}

	quote.TaxableBase = in.Subtotal
	if in.Settings.TaxShipping {
		quote.TaxableBase = quote.TaxableBase.Add(in.Shipping)
	}
	quote.Enabled = quote.Rate.IsPositive()
	if quote.Enabled {
		quote.Amount = Round(quote.TaxableBase.Mul(quote.Rate))
	}
	return quote, nil
}
