// Package pricing holds the single authoritative display-price formatter.
// Every screen that renders a price goes through Format so that a given
// magnitude always produces the same string.
package pricing

import (
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

// Placeholder is rendered for missing or non-finite values.
const Placeholder = "-"

// Currency selects the display currency.
type Currency string

const (
	USD Currency = "USD"
	INR Currency = "INR"
)

// DefaultUSDToINR is the fixed conversion rate applied for INR display.
// It is a configuration constant, not a live FX rate.
const DefaultUSDToINR = 83.0

var thousand = decimal.NewFromInt(1000)

// Formatter converts USD prices into display strings.
type Formatter struct {
	currency Currency
	usdToINR decimal.Decimal
}

// NewFormatter builds a formatter for the given currency. A non-positive
// rate falls back to DefaultUSDToINR.
func NewFormatter(currency Currency, usdToINR float64) Formatter {
	if usdToINR <= 0 {
		usdToINR = DefaultUSDToINR
	}
	if currency != INR {
		currency = USD
	}
	return Formatter{currency: currency, usdToINR: decimal.NewFromFloat(usdToINR)}
}

// Symbol returns the currency sign used as prefix.
func (f Formatter) Symbol() string {
	if f.currency == INR {
		return "₹"
	}
	return "$"
}

// Format renders a USD price under the configured display currency.
// Non-finite or non-positive input yields Placeholder, never a panic.
//
// Magnitude tiers (after conversion):
//
//	>= 100,000  abbreviated to thousands with one decimal ("123.4K")
//	>= 1,000    grouped integer ("12,345")
//	>= 1        two decimals
//	<  1        four decimals
func (f Formatter) Format(usd float64) string {
	if math.IsNaN(usd) || math.IsInf(usd, 0) || usd <= 0 {
		return Placeholder
	}

	value := decimal.NewFromFloat(usd)
	if f.currency == INR {
		value = value.Mul(f.usdToINR)
	}

	switch {
	case value.GreaterThanOrEqual(decimal.NewFromInt(100_000)):
		return f.Symbol() + value.Div(thousand).StringFixed(1) + "K"
	case value.GreaterThanOrEqual(thousand):
		return f.Symbol() + groupThousands(value.Round(0).StringFixed(0))
	case value.GreaterThanOrEqual(decimal.NewFromInt(1)):
		return f.Symbol() + value.StringFixed(2)
	default:
		return f.Symbol() + value.StringFixed(4)
	}
}

// FormatPtr renders an optional price; nil maps to Placeholder.
func (f Formatter) FormatPtr(usd *float64) string {
	if usd == nil {
		return Placeholder
	}
	return f.Format(*usd)
}

func groupThousands(digits string) string {
	if len(digits) <= 3 {
		return digits
	}
	var b strings.Builder
	lead := len(digits) % 3
	if lead > 0 {
		b.WriteString(digits[:lead])
	}
	for i := lead; i < len(digits); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(digits[i : i+3])
	}
	return b.String()
}
