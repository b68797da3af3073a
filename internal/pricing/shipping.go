package pricing

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Method identifies a shipping option offered at checkout.
type Method int

const (
	MethodUnknown Method = iota
	MethodCustomerPickup
	MethodLocalDelivery
	MethodUSPS
	MethodFedEx
	MethodUPS
)

// DefaultShippingMethod is used when the request names no method.
const DefaultShippingMethod = "Customer Pickup"

func (m Method) String() string {
	switch m {
	case MethodCustomerPickup:
		return "Customer Pickup"
	case MethodLocalDelivery:
		return "Local Delivery"
	case MethodUSPS:
		return "USPS"
	case MethodFedEx:
		return "FedEx"
	case MethodUPS:
		return "UPS"
	default:
		return "Unknown"
	}
}

// ParseMethod maps the storefront's method label to a Method.
func ParseMethod(label string) Method {
	switch strings.TrimSpace(label) {
	case "Customer Pickup":
		return MethodCustomerPickup
	case "Local Delivery":
		return MethodLocalDelivery
	case "USPS":
		return MethodUSPS
	case "FedEx":
		return MethodFedEx
	case "UPS":
		return MethodUPS
	default:
		return MethodUnknown
	}
}

// ShippingQuote is the fee charged for the chosen method.
type ShippingQuote struct {
	Method Method
	Fee    decimal.Decimal
	Free   bool
}

// CalculateShipping applies the shipping tiers. Pickup is always free, and once the
// free-shipping threshold is met every method is free. Unrecognised methods are
// charged the USPS rate.
func CalculateShipping(subtotal decimal.Decimal, label string, cfg ShippingSettings) ShippingQuote {
	method := ParseMethod(label)
	if method == MethodCustomerPickup {
		return ShippingQuote{Method: method, Fee: decimal.Zero}
	}
	if cfg.FreeThreshold.IsPositive() && subtotal.GreaterThanOrEqual(cfg.FreeThreshold) {
		return ShippingQuote{Method: method, Fee: decimal.Zero, Free: true}
	}
	switch method {
	case MethodLocalDelivery:
		return ShippingQuote{Method: method, Fee: cfg.LocalDelivery}
	case MethodFedEx:
		return ShippingQuote{Method: method, Fee: cfg.FedEx}
	case MethodUPS:
		return ShippingQuote{Method: method, Fee: cfg.UPS}
	default:
		return ShippingQuote{Method: method, Fee: cfg.USPS}
	}
}
