package pricing

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Setting keys consumed by the pricing engine.
const (
	KeyFreeShippingThreshold = "free_shipping_threshold"
	KeyLocalDeliveryFee      = "local_delivery_fee"
	KeyShippingRateUSPS      = "shipping_rate_usps"
	KeyShippingRateFedEx     = "shipping_rate_fedex"
	KeyShippingRateUPS       = "shipping_rate_ups"
	KeyTaxShipping           = "tax_shipping"
	KeyTaxEnabled            = "tax_enabled"
	KeyTaxRate               = "tax_rate"
	KeyCurrency              = "currency"
	KeyBusinessZip           = "business_zip"
)

var (
	// ErrMissingSetting marks a required setting that is absent or blank.
	ErrMissingSetting = errors.New("missing required setting")
	// ErrInvalidSetting marks a setting whose value cannot be used.
	ErrInvalidSetting = errors.New("invalid numeric setting")
)

// ConfigError reports a setting that prevents pricing from being computed.
type ConfigError struct {
	Key string
	Err error
}

// Error renders the message shown to API callers.
func (e *ConfigError) Error() string {
	if e == nil {
		return ""
	}
	if errors.Is(e.Err, ErrInvalidSetting) {
		return "Invalid numeric setting: " + e.Key
	}
	return "Missing required setting: " + e.Key
}

// Unwrap exposes the sentinel for errors.Is.
func (e *ConfigError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func missing(key string) error { return &ConfigError{Key: key, Err: ErrMissingSetting} }
func invalid(key string) error { return &ConfigError{Key: key, Err: ErrInvalidSetting} }

// SettingsSource returns raw business settings by logical key.
type SettingsSource interface {
	Setting(ctx context.Context, key string) (value string, ok bool, err error)
}

// ShippingSettings holds the shipping tier configuration.
type ShippingSettings struct {
	FreeThreshold decimal.Decimal
	LocalDelivery decimal.Decimal
	USPS          decimal.Decimal
	FedEx         decimal.Decimal
	UPS           decimal.Decimal
}

// TaxSettings holds the configured flat-rate tax policy.
type TaxSettings struct {
	Enabled     bool
	Rate        decimal.Decimal
	TaxShipping bool
	BusinessZip string
}

// Settings is the complete configuration snapshot for one pricing request.
type Settings struct {
	Currency string
	Shipping ShippingSettings
	Tax      TaxSettings
}

// LoadSettings reads and validates every setting the engine needs. Any missing or
// malformed required value yields a *ConfigError; nothing is defaulted.
func LoadSettings(ctx context.Context, src SettingsSource) (Settings, error) {
	if src == nil {
		return Settings{}, errors.New("pricing: settings source not configured")
	}
	r := settingsReader{ctx: ctx, src: src}
	var s Settings
	var err error

	if s.Shipping.FreeThreshold, err = r.money(KeyFreeShippingThreshold); err != nil {
		return Settings{}, err
	}
	if s.Shipping.LocalDelivery, err = r.money(KeyLocalDeliveryFee); err != nil {
		return Settings{}, err
	}
	if s.Shipping.USPS, err = r.money(KeyShippingRateUSPS); err != nil {
		return Settings{}, err
	}
	if s.Shipping.FedEx, err = r.money(KeyShippingRateFedEx); err != nil {
		return Settings{}, err
	}
	if s.Shipping.UPS, err = r.money(KeyShippingRateUPS); err != nil {
		return Settings{}, err
	}

	taxShipping, ok, err := r.raw(KeyTaxShipping)
	if err != nil {
		return Settings{}, err
	}
	if !ok {
		return Settings{}, missing(KeyTaxShipping)
	}
	if s.Tax.TaxShipping, ok = ParseBool(taxShipping); !ok {
		return Settings{}, invalid(KeyTaxShipping)
	}

	if enabled, ok, err := r.raw(KeyTaxEnabled); err != nil {
		return Settings{}, err
	} else if ok {
		if s.Tax.Enabled, ok = ParseBool(enabled); !ok {
			return Settings{}, invalid(KeyTaxEnabled)
		}
	}
	if s.Tax.Enabled {
		if s.Tax.Rate, err = r.money(KeyTaxRate); err != nil {
			return Settings{}, err
		}
	}

	if zip, ok, err := r.raw(KeyBusinessZip); err != nil {
		return Settings{}, err
	} else if ok {
		s.Tax.BusinessZip = zip
	}

	currency, ok, err := r.raw(KeyCurrency)
	if err != nil {
		return Settings{}, err
	}
	if !ok {
		return Settings{}, missing(KeyCurrency)
	}
	s.Currency = strings.ToUpper(currency)
	return s, nil
}

type settingsReader struct {
	ctx context.Context
	src SettingsSource
}

func (r settingsReader) raw(key string) (string, bool, error) {
	value, ok, err := r.src.Setting(r.ctx, key)
	if err != nil {
		return "", false, fmt.Errorf("read setting %s: %w", key, err)
	}
	value = strings.TrimSpace(value)
	if !ok || value == "" {
		return "", false, nil
	}
	return value, true, nil
}

func (r settingsReader) money(key string) (decimal.Decimal, error) {
	value, ok, err := r.raw(key)
	if err != nil {
		return decimal.Zero, err
	}
	if !ok {
		return decimal.Zero, missing(key)
	}
	amount, err := decimal.NewFromString(value)
	if err != nil || amount.IsNegative() {
		return decimal.Zero, invalid(key)
	}
	return amount, nil
}

// ParseBool interprets the boolean spellings stored in the settings table.
// ok is false for anything it does not recognise.
func ParseBool(value string) (v, ok bool) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes", "on":
		return true, true
	case "0", "false", "no", "off":
		return false, true
	default:
		return false, false
	}
}
