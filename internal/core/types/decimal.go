// Package types provides common type aliases and utilities.
package types

import (
	"github.com/shopspring/decimal"
)

// Money represents a monetary value with full precision.
// Uses decimal.Decimal to avoid floating-point errors.
type Money = decimal.Decimal

// Quantity represents a stock quantity with full precision.
//
// Quantities are decimal (not scaled integers) because set-mode reconciliation
// compares against a sub-unit tolerance: a target of 7.00005 at balance 7 must
// compare inside the tolerance, not round to 7.0001 first.
type Quantity = decimal.Decimal

// QuantityTolerance is the dead band for set-mode reconciliation.
// A target within this distance of the current balance writes nothing.
var QuantityTolerance = decimal.New(1, -4) // 0.0001

// NewMoneyFromString creates a Money value from a string.
// This is the preferred method for monetary values.
func NewMoneyFromString(s string) (Money, error) {
	return decimal.NewFromString(s)
}

// MustMoney creates a Money value from a string, panics on error.
// Use only for constants and tests.
func MustMoney(s string) Money {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

// MustQuantity creates a Quantity from a string, panics on error.
// Use only for constants and tests.
func MustQuantity(s string) Quantity {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

// Zero returns zero decimal value.
func Zero() decimal.Decimal {
	return decimal.Zero
}

// WithinTolerance reports whether two quantities differ by less than
// QuantityTolerance.
func WithinTolerance(a, b Quantity) bool {
	return a.Sub(b).Abs().LessThan(QuantityTolerance)
}

// ClampMoney bounds v to [min, max].
func ClampMoney(v, min, max Money) Money {
	if v.LessThan(min) {
		return min
	}
	if v.GreaterThan(max) {
		return max
	}
	return v
}
