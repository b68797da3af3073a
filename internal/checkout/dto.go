package checkout

import (
	"encoding/json"
	"math"
	"reflect"
	"strings"

	validator "github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/noah-isme/checkout-pricing/internal/pricing"
)

// PricingRequest is the JSON body accepted by the pricing endpoint.
type PricingRequest struct {
	ItemIDs        []string  `json:"itemIds" validate:"required,max=500"`
	Quantities     []float64 `json:"quantities" validate:"required,max=500"`
	ShippingMethod string    `json:"shippingMethod" validate:"max=64"`
	Zip            string    `json:"zip" validate:"max=10"`
	Debug          bool      `json:"debug"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

func validationMessage(err error) string {
	errs, ok := err.(validator.ValidationErrors)
	if !ok || len(errs) == 0 {
		return "Invalid request"
	}
	e := errs[0]
	switch e.Tag() {
	case "required":
		return e.Field() + " is required"
	case "max":
		if e.Kind() == reflect.String {
			return e.Field() + " must be at most " + e.Param() + " characters"
		}
		return e.Field() + " must contain at most " + e.Param() + " entries"
	default:
		return e.Field() + " is invalid"
	}
}

// toRequest pairs itemIds with quantities. Quantities that are not whole numbers
// become zero so the engine treats the line as invalid.
func (p PricingRequest) toRequest() pricing.Request {
	lines := make([]pricing.CartLine, len(p.ItemIDs))
	for i, sku := range p.ItemIDs {
		lines[i] = pricing.CartLine{SKU: sku, Quantity: wholeQuantity(p.Quantities[i])}
	}
	return pricing.Request{Lines: lines, ShippingMethod: p.ShippingMethod, Zip: p.Zip}
}

func wholeQuantity(q float64) int {
	if math.IsNaN(q) || math.IsInf(q, 0) || q != math.Trunc(q) || q > math.MaxInt32 || q < math.MinInt32 {
		return 0
	}
	return int(q)
}

// rate renders a decimal as a JSON number without padding.
type rate decimal.Decimal

func (r rate) MarshalJSON() ([]byte, error) {
	return json.Marshal(json.Number(decimal.Decimal(r).String()))
}

// PricingBody is the "pricing" object of a successful response.
type PricingBody struct {
	Subtotal              pricing.Money `json:"subtotal"`
	Shipping              pricing.Money `json:"shipping"`
	Tax                   pricing.Money `json:"tax"`
	Total                 pricing.Money `json:"total"`
	Currency              string        `json:"currency"`
	Zip                   *string       `json:"zip"`
	ShippingMethod        string        `json:"shippingMethod"`
	FreeShippingThreshold pricing.Money `json:"freeShippingThreshold"`
}

// LineTrace describes how one cart line was priced.
type LineTrace struct {
	SKU         string        `json:"sku"`
	ResolvedSKU string        `json:"resolvedSku"`
	Quantity    int           `json:"quantity"`
	UnitPrice   pricing.Money `json:"unitPrice"`
	LineTotal   pricing.Money `json:"lineTotal"`
	Fallback    bool          `json:"fallback"`
}

// DebugTrace is returned when the caller sets "debug": true.
type DebugTrace struct {
	QuoteID             string        `json:"quoteId"`
	TaxEnabled          bool          `json:"taxEnabled"`
	TaxSource           string        `json:"taxSource"`
	TaxRate             rate          `json:"taxRate"`
	TaxableBase         pricing.Money `json:"taxableBase"`
	Zip                 *string       `json:"zip"`
	State               string        `json:"state,omitempty"`
	ShippingRule        string        `json:"shippingRule"`
	FreeShippingApplied bool          `json:"freeShippingApplied"`
	Lines               []LineTrace   `json:"lines"`
	Warnings            []string      `json:"warnings,omitempty"`
}

// PricingResponse is the success envelope.
type PricingResponse struct {
	Success  bool        `json:"success"`
	Pricing  PricingBody `json:"pricing"`
	Debug    *DebugTrace `json:"debug,omitempty"`
	Warnings []string    `json:"warnings,omitempty"`
}

func newPricingBody(res pricing.Result) PricingBody {
	return PricingBody{
		Subtotal:              pricing.Money(res.Subtotal),
		Shipping:              pricing.Money(res.Shipping),
		Tax:                   pricing.Money(res.Tax),
		Total:                 pricing.Money(res.Total),
		Currency:              res.Currency,
		Zip:                   res.Zip,
		ShippingMethod:        res.ShippingMethod,
		FreeShippingThreshold: pricing.Money(res.FreeShippingThreshold),
	}
}

func newDebugTrace(quoteID string, res pricing.Result) *DebugTrace {
	lines := make([]LineTrace, 0, len(res.Lines))
	for _, l := range res.Lines {
		lines = append(lines, LineTrace{
			SKU:         l.SKU,
			ResolvedSKU: l.ResolvedSKU,
			Quantity:    l.Quantity,
			UnitPrice:   pricing.Money(l.UnitPrice),
			LineTotal:   pricing.Money(l.ExtendedPrice),
			Fallback:    l.Fallback,
		})
	}
	return &DebugTrace{
		QuoteID:             quoteID,
		TaxEnabled:          res.TaxQuote.Enabled,
		TaxSource:           string(res.TaxQuote.Source),
		TaxRate:             rate(res.TaxQuote.Rate),
		TaxableBase:         pricing.Money(res.TaxQuote.TaxableBase),
		Zip:                 res.Zip,
		State:               res.TaxQuote.State,
		ShippingRule:        res.ShippingQuote.Method.String(),
		FreeShippingApplied: res.ShippingQuote.Free,
		Lines:               lines,
		Warnings:            res.Warnings,
	}
}
