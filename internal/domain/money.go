package domain

import (
	"errors"

	"github.com/shopspring/decimal"
)

var (
	ErrAmountMalformed   = errors.New("amount must be a valid decimal number")
	ErrAmountNotPositive = errors.New("amount must be positive")
	ErrAmountTooPrecise  = errors.New("amount must have at most two decimal places")
)

// Round2 rounds a monetary value to two decimal places, the smallest unit
// the ledger tracks.
func Round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// ParseAmount parses a monetary amount from its string form. Amounts are
// exact fixed-point values with at most two decimal places.
func ParseAmount(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, ErrAmountMalformed
	}
	if d.Exponent() < -2 {
		return decimal.Zero, ErrAmountTooPrecise
	}
	return d, nil
}

// ParsePositiveAmount parses a monetary amount and rejects zero and
// negative values.
func ParsePositiveAmount(s string) (decimal.Decimal, error) {
	d, err := ParseAmount(s)
	if err != nil {
		return decimal.Zero, err
	}
	if d.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero, ErrAmountNotPositive
	}
	return d, nil
}
