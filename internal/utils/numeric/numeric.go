// Package numeric holds the fixed-point helpers shared by the simulation core.
package numeric

import (
	"errors"
	"math"

	"github.com/shopspring/decimal"
)

// ErrInvalidDecimal is returned when a floating point value has no fixed-point representation.
var ErrInvalidDecimal = errors.New("invalid decimal")

// Hundred is used to turn percentages into fractions.
var Hundred = decimal.NewFromInt(100)

// FromFloat converts f to a decimal, rejecting NaN and infinities.
func FromFloat(f float64) (decimal.Decimal, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return decimal.Zero, ErrInvalidDecimal
	}
	return decimal.NewFromFloat(f), nil
}

// FromFloatPtr converts an optional float. A nil input yields a nil output.
func FromFloatPtr(f *float64) (*decimal.Decimal, error) {
	if f == nil {
		return nil, nil
	}
	d, err := FromFloat(*f)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// ToFloat converts d to a float64 intermediate, failing when the value overflows.
func ToFloat(d decimal.Decimal) (float64, error) {
	f, _ := d.Float64()
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, ErrInvalidDecimal
	}
	return f, nil
}

// Round rounds d to precision places, midpoint to even.
func Round(d decimal.Decimal, precision int32) decimal.Decimal {
	return d.RoundBank(precision)
}

// Quo divides n by d and rounds to precision. A zero divisor yields zero.
func Quo(n, d decimal.Decimal, precision int32) decimal.Decimal {
	if d.IsZero() {
		return decimal.Zero
	}
	return Round(n.Div(d), precision)
}

// Unit returns the smallest representable amount at precision, 10^-precision.
func Unit(precision int32) decimal.Decimal {
	return decimal.New(1, -precision)
}
