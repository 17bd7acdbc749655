// Package money holds the fixed-point helpers shared by the ledger. Amounts
// are shopspring decimals with two decimal places; arithmetic that must split
// a value works in integer cents.
package money

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Places is the number of decimal places every stored amount carries.
const Places = 2

// Zero is the zero amount.
var Zero = decimal.Zero

// Parse reads a decimal string and rejects values with more than two decimals.
func Parse(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("parse amount %q: %w", s, err)
	}
	if !HasValidPrecision(d) {
		return decimal.Zero, fmt.Errorf("amount %q has more than %d decimal places", s, Places)
	}
	return d, nil
}

// HasValidPrecision reports whether d has at most two decimal places.
func HasValidPrecision(d decimal.Decimal) bool {
	return d.Equal(d.Truncate(Places))
}

// IsValidAmount reports whether d is a positive amount with at most two decimals.
func IsValidAmount(d decimal.Decimal) bool {
	return d.IsPositive() && HasValidPrecision(d)
}

// Quantize rounds d to two decimal places.
func Quantize(d decimal.Decimal) decimal.Decimal {
	return d.Round(Places)
}

// ToCents converts d to integer cents, truncating any extra precision.
func ToCents(d decimal.Decimal) int64 {
	return d.Shift(Places).IntPart()
}

// FromCents converts integer cents to an amount.
func FromCents(cents int64) decimal.Decimal {
	return decimal.New(cents, -Places)
}

// Divide splits total into n parts. Every part is total/n truncated to cents,
// and the first part absorbs the rounding remainder so the parts always sum
// back to total.
func Divide(total decimal.Decimal, n int) []decimal.Decimal {
	if n <= 0 {
		return nil
	}

	cents := ToCents(total)
	per := cents / int64(n)
	parts := make([]decimal.Decimal, n)
	for i := range parts {
		parts[i] = FromCents(per)
	}
	parts[0] = FromCents(cents - per*int64(n-1))
	return parts
}

// Sum adds values.
func Sum(values ...decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, v := range values {
		total = total.Add(v)
	}
	return total
}
