// Package money formats decimal amounts for display. The storefront sells in a
// single currency.
package money

import (
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
)

// Currency is the storefront's currency.
var Currency = currency.USD

// symbol is the en-US narrow symbol of Currency.
const symbol = "$"

// Round rounds v to the currency's standard number of decimal places.
func Round(v decimal.Decimal) decimal.Decimal {
	return v.Round(scale())
}

// Format renders v the way en-US shoppers read prices, e.g. "$1,112.20". The
// amount is formatted from its exact decimal digits.
func Format(v decimal.Decimal) string {
	digits := Round(v).StringFixed(scale())

	var b strings.Builder
	if strings.HasPrefix(digits, "-") {
		b.WriteByte('-')
		digits = digits[1:]
	}
	b.WriteString(symbol)

	whole, frac, hasFrac := strings.Cut(digits, ".")
	for i, r := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	if hasFrac {
		b.WriteByte('.')
		b.WriteString(frac)
	}
	return b.String()
}

func scale() int32 {
	s, _ := currency.Standard.Rounding(Currency)
	return int32(s)
}
