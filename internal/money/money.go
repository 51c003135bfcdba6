// Package money converts between user-facing dollar amounts and integer cents.
package money

import (
	"fmt"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// MinDollars is the smallest amount accepted for budgets, expenses and income.
var MinDollars = decimal.RequireFromString("0.01")

// ToCents rounds a dollar amount to whole cents, half away from zero.
func ToCents(dollars decimal.Decimal) int64 {
	return dollars.Mul(hundred).Round(0).IntPart()
}

// FromFloat converts a float dollar value into a decimal without binary noise.
func FromFloat(dollars float64) decimal.Decimal {
	return decimal.NewFromFloat(dollars)
}

// Parse reads a dollar string such as "12.34".
func Parse(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("parse amount %q: %w", s, err)
	}
	return d, nil
}

// AtLeastMin reports whether dollars meets the one-cent minimum.
func AtLeastMin(dollars decimal.Decimal) bool {
	return dollars.GreaterThanOrEqual(MinDollars)
}

// Format renders cents as a dollar string with two decimals.
func Format(cents int64) string {
	return decimal.New(cents, -2).StringFixed(2)
}

// half is added before flooring so halves round toward positive infinity,
// -2.5 to -2 and 2.5 to 3.
var half = decimal.New(5, -1)

// RoundRatio returns num * mul / den rounded to the nearest integer, halves
// rounding up. den must be non-zero.
func RoundRatio(num, mul, den int64) int64 {
	return decimal.NewFromInt(num).
		Mul(decimal.NewFromInt(mul)).
		Div(decimal.NewFromInt(den)).
		Add(half).
		Floor().
		IntPart()
}
