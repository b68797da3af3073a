package pricing_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/checkout-pricing/internal/pricing"
)

func shippingSettings() pricing.ShippingSettings {
	return pricing.ShippingSettings{
		FreeThreshold: dec("50.00"),
		LocalDelivery: dec("5.00"),
		USPS:          dec("8.99"),
		FedEx:         dec("12.50"),
		UPS:           dec("11.25"),
	}
}

func TestCalculateShippingTiers(t *testing.T) {
	cfg := shippingSettings()
	cases := []struct {
		name     string
		subtotal string
		method   string
		fee      string
		want     pricing.Method
	}{
		{"pickup", "10.00", "Customer Pickup", "0", pricing.MethodCustomerPickup},
		{"local", "10.00", "Local Delivery", "5.00", pricing.MethodLocalDelivery},
		{"usps", "10.00", "USPS", "8.99", pricing.MethodUSPS},
		{"fedex", "10.00", "FedEx", "12.50", pricing.MethodFedEx},
		{"ups", "10.00", "UPS", "11.25", pricing.MethodUPS},
		{"unknown uses usps", "10.00", "Carrier Pigeon", "8.99", pricing.MethodUnknown},
		{"lowercase is unknown", "10.00", "fedex", "8.99", pricing.MethodUnknown},
		{"just under threshold", "49.99", "UPS", "11.25", pricing.MethodUPS},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			quote := pricing.CalculateShipping(dec(tc.subtotal), tc.method, cfg)
			require.Equal(t, tc.want, quote.Method)
			require.True(t, quote.Fee.Equal(dec(tc.fee)), "fee %s", quote.Fee)
		})
	}
}

func TestCalculateShippingFreeAtThresholdForAnyMethod(t *testing.T) {
	cfg := shippingSettings()
	for _, method := range []string{"Customer Pickup", "Local Delivery", "USPS", "FedEx", "UPS", "Carrier Pigeon"} {
		quote := pricing.CalculateShipping(dec("50.00"), method, cfg)
		require.True(t, quote.Fee.IsZero(), "method %s", method)
	}
}

func TestCalculateShippingZeroThresholdDisablesFreeShipping(t *testing.T) {
	cfg := shippingSettings()
	cfg.FreeThreshold = dec("0")
	quote := pricing.CalculateShipping(dec("1000.00"), "USPS", cfg)
	require.True(t, quote.Fee.Equal(dec("8.99")))
	require.False(t, quote.Free)
}

func TestMethodRoundTrip(t *testing.T) {
	for _, m := range []pricing.Method{pricing.MethodCustomerPickup, pricing.MethodLocalDelivery, pricing.MethodUSPS, pricing.MethodFedEx, pricing.MethodUPS} {
		require.Equal(t, m, pricing.ParseMethod(m.String()))
	}
	require.Equal(t, "Unknown", pricing.MethodUnknown.String())
}
