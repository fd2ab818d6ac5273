// Package units provides shared constants and rounding for price display
package units

import (
	"fmt"
	"math"
	"strconv"
)

// Currency constants
const (
	USD = "usd"
	EUR = "eur"
	GBP = "gbp"
	INR = "inr"
)

// ValidCurrencies contains all valid currency values
var ValidCurrencies = []string{USD, EUR, GBP, INR}

// IsValid checks if the given currency is in the list of valid currencies
func IsValid(currency string) bool {
	for _, valid := range ValidCurrencies {
		if currency == valid {
			return true
		}
	}
	return false
}

// GetValidCurrenciesString returns a comma-separated string of valid currencies for error messages
func GetValidCurrenciesString() string {
	return "usd, eur, gbp, inr"
}

// symbols maps currency codes to display symbols
var symbols = map[string]string{
	USD: "$",
	EUR: "€",
	GBP: "£",
	INR: "₹",
}

// Symbol returns the display symbol for a currency, defaulting to the code
// itself for unknown currencies.
func Symbol(currency string) string {
	if s, ok := symbols[currency]; ok {
		return s
	}
	return currency
}

// FormatPrice renders a price with two decimals and the currency symbol.
func FormatPrice(v float64, currency string) string {
	return fmt.Sprintf("%s%.2f", Symbol(currency), v)
}

// Round2 rounds to two decimal places. Prices and inventory statistics are
// stored at this precision. Rounding goes through the decimal formatter
// rather than math.Round(v*100)/100: the multiplication can push a value
// like 2.675 (really 2.6749999...) across the rounding boundary its decimal
// representation sits below.
func Round2(v float64) float64 {
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return v
	}
	rounded, err := strconv.ParseFloat(strconv.FormatFloat(v, 'f', 2, 64), 64)
	if err != nil {
		return v
	}
	return rounded
}

// Round0 rounds to the nearest whole unit.
func Round0(v float64) float64 {
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return v
	}
	return math.Round(v)
}
