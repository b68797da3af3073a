package pricing

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// ErrInvalidLine is returned for malformed cart lines when the engine rejects them.
var ErrInvalidLine = errors.New("invalid cart line")

// CartLine is a requested SKU and quantity.
type CartLine struct {
	SKU      string
	Quantity int
}

// Valid reports whether the line can be priced.
func (l CartLine) Valid() bool {
	return strings.TrimSpace(l.SKU) != "" && l.Quantity > 0
}

// PricedLine is a cart line with its resolved price.
type PricedLine struct {
	SKU           string
	ResolvedSKU   string
	Quantity      int
	UnitPrice     decimal.Decimal
	ExtendedPrice decimal.Decimal
	Fallback      bool
}

// Request describes one pricing computation.
type Request struct {
	Lines          []CartLine
	ShippingMethod string
	Zip            string
}

// Result is a fully computed price breakdown. Monetary fields are rounded to cents.
type Result struct {
	Subtotal              decimal.Decimal
	Shipping              decimal.Decimal
	Tax                   decimal.Decimal
	Total                 decimal.Decimal
	Currency              string
	Zip                   *string
	ShippingMethod        string
	FreeShippingThreshold decimal.Decimal

	Lines         []PricedLine
	ShippingQuote ShippingQuote
	TaxQuote      TaxQuote
	Warnings      []string
}

// Engine aggregates price resolution, shipping and tax into a checkout total.
type Engine struct {
	Resolver           Resolver
	TaxRates           TaxRateSource
	RejectInvalidLines bool
}

// Price computes the totals for req under the given settings snapshot.
func (e Engine) Price(ctx context.Context, settings Settings, req Request) (Result, error) {
	if strings.TrimSpace(settings.Currency) == "" {
		return Result{}, missing(KeyCurrency)
	}
	method := strings.TrimSpace(req.ShippingMethod)
	if method == "" {
		method = DefaultShippingMethod
	}

	subtotal := decimal.Zero
	lines := make([]PricedLine, 0, len(req.Lines))
	var warnings []string
	for i, line := range req.Lines {
		if !line.Valid() {
			if e.RejectInvalidLines {
				return Result{}, fmt.Errorf("line %d: %w", i, ErrInvalidLine)
			}
			warnings = append(warnings, fmt.Sprintf("skipped line %d: sku %q quantity %d", i, line.SKU, line.Quantity))
			continue
		}
		resolved, err := e.Resolver.Resolve(ctx, line.SKU)
		if err != nil {
			return Result{}, err
		}
		extended := resolved.UnitPrice.Mul(decimal.NewFromInt(int64(line.Quantity)))
		subtotal = subtotal.Add(extended)
		lines = append(lines, PricedLine{
			SKU:           resolved.SKU,
			ResolvedSKU:   resolved.ResolvedSKU,
			Quantity:      line.Quantity,
			UnitPrice:     resolved.UnitPrice,
			ExtendedPrice: extended,
			Fallback:      resolved.Fallback,
		})
		if resolved.UnitPrice.IsZero() {
			warnings = append(warnings, fmt.Sprintf("no price found for sku %q", resolved.SKU))
		}
	}

	shipping := CalculateShipping(subtotal, method, settings.Shipping)
	tax, err := ResolveTax(ctx, TaxInput{
		Subtotal: subtotal,
		Shipping: shipping.Fee,
		Zip:      req.Zip,
		Settings: settings.Tax,
	}, e.TaxRates)
	if err != nil {
		return Result{}, err
	}

	res := Result{
		Subtotal:              Round(subtotal),
		Shipping:              Round(shipping.Fee),
		Tax:                   Round(tax.Amount),
		Total:                 Round(subtotal.Add(shipping.Fee).Add(tax.Amount)),
		Currency:              settings.Currency,
		ShippingMethod:        method,
		FreeShippingThreshold: Round(settings.Shipping.FreeThreshold),
		Lines:                 lines,
		ShippingQuote:         shipping,
		TaxQuote:              tax,
		Warnings:              warnings,
	}
	if tax.Zip != "" {
		zip := tax.Zip
		res.Zip = &zip
	}
	return res, nil
}

// Round rounds a monetary amount to cents, half away from zero.
func Round(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// Money renders an amount as a JSON number rounded to two decimal places.
type Money decimal.Decimal

// MarshalJSON implements json.Marshaler.
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(Round(decimal.Decimal(m)).StringFixed(2)), nil
}
