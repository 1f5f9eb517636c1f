// Package valuation maps an adopted user count and an initial price to a token valuation.
package valuation

import (
	"fmt"
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

// maxFixedPoint is the largest magnitude a valuation may take before it is
// treated as unrepresentable (2^96-1, a 96-bit fixed-point mantissa).
const maxFixedPoint = 79228162514264337593543950335.0

// Model values a token from its adopted user count.
type Model interface {
	Evaluate(users uint64, initialPrice decimal.Decimal) decimal.Decimal
	Name() string
}

// Linear values the token at users × initial price.
type Linear struct{}

// Exponential values the token at initial price × e^(users/Factor).
type Exponential struct {
	Factor float64
}

func (Linear) Name() string { return "linear" }

func (Exponential) Name() string { return "exponential" }

func (Linear) Evaluate(users uint64, initialPrice decimal.Decimal) decimal.Decimal {
	return decimal.NewFromUint64(users).Mul(initialPrice)
}

// Evaluate saturates to initialPrice when Factor cannot be used as a divisor or
// the exponential overflows the fixed-point range.
func (e Exponential) Evaluate(users uint64, initialPrice decimal.Decimal) decimal.Decimal {
	if e.Factor == 0 || math.IsNaN(e.Factor) || math.IsInf(e.Factor, 0) {
		return initialPrice
	}

	growth := math.Exp(float64(users) / e.Factor)
	if math.IsInf(growth, 0) || math.IsNaN(growth) || growth > maxFixedPoint {
		return initialPrice
	}

	return initialPrice.Mul(decimal.NewFromFloat(growth))
}

// Evaluate applies m, returning zero when no model is configured.
func Evaluate(m Model, users uint64, initialPrice decimal.Decimal) decimal.Decimal {
	if m == nil {
		return decimal.Zero
	}
	return m.Evaluate(users, initialPrice)
}

// Parse builds a model from its name. An empty name means no model.
func Parse(name string, factor float64) (Model, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "":
		return nil, nil
	case "linear":
		return Linear{}, nil
	case "exponential":
		return Exponential{Factor: factor}, nil
	default:
		return nil, fmt.Errorf("unknown valuation model: %s", name)
	}
}

// Spec is the interchange form of a model.
type Spec struct {
	Model  string  `json:"model"`
	Factor float64 `json:"factor,omitempty"`
}

// SpecOf returns the interchange form of m, or nil for no model.
func SpecOf(m Model) *Spec {
	switch v := m.(type) {
	case Linear:
		return &Spec{Model: v.Name()}
	case Exponential:
		return &Spec{Model: v.Name(), Factor: v.Factor}
	default:
		return nil
	}
}

// Build returns the model named by s.
func (s *Spec) Build() (Model, error) {
	if s == nil {
		return nil, nil
	}
	return Parse(s.Model, s.Factor)
}
