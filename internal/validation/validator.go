// Package validation rejects simulation inputs outside the ranges the service supports.
package validation

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/songzhibin97/tokensim/internal/engine"
	"github.com/songzhibin97/tokensim/internal/models"
	"github.com/songzhibin97/tokensim/internal/token"
	"github.com/songzhibin97/tokensim/internal/utils/numeric"
)

var one = decimal.NewFromInt(1)

type BasicValidator struct {
	limits Limits
}

func NewBasicValidator(limits Limits) *BasicValidator {
	return &BasicValidator{limits: limits}
}

func (v *BasicValidator) Check(t *token.Token, opts *engine.Options) *Assessment {
	a := &Assessment{
		IsAcceptable: true,
		Violations:   make([]string, 0),
		Warnings:     make([]string, 0),
	}

	if t != nil {
		v.checkToken(a, t)
	}
	if opts != nil {
		v.checkOptions(a, opts)
	}
	if t != nil && opts != nil {
		v.checkDynamics(a, t, opts)
	}

	a.IsAcceptable = len(a.Violations) == 0
	return a
}

func (v *BasicValidator) Validate(t *token.Token, opts *engine.Options) error {
	a := v.Check(t, opts)
	if a.IsAcceptable {
		return nil
	}
	return fmt.Errorf("%w: %s", ErrValidationFailed, strings.Join(a.Violations, "; "))
}

func (v *BasicValidator) checkToken(a *Assessment, t *token.Token) {
	if p := t.AirdropPercentage; p != nil && !inPercentRange(*p) {
		a.Violations = append(a.Violations,
			"airdrop percentage must be more than 0 and less than or equal to 100")
	}

	if !inPercentRange(t.InitialSupplyPercentage) {
		a.Violations = append(a.Violations,
			"initial supply percentage must be more than 0 and less than or equal to 100")
	}
}

func (v *BasicValidator) checkOptions(a *Assessment, opts *engine.Options) {
	if opts.TotalUsers < 1 || opts.TotalUsers > v.limits.MaxTotalUsers {
		a.Violations = append(a.Violations,
			fmt.Sprintf("total users must be more than 0 and less than or equal to %d", v.limits.MaxTotalUsers))
	}

	if opts.DecimalPrecision < v.limits.MinPrecision || opts.DecimalPrecision > v.limits.MaxPrecision {
		a.Violations = append(a.Violations,
			fmt.Sprintf("decimal precision must be between %d and %d", v.limits.MinPrecision, v.limits.MaxPrecision))
	}

	if maxDuration := v.maxDuration(opts.IntervalType); opts.Duration < 1 || opts.Duration > maxDuration {
		a.Violations = append(a.Violations,
			fmt.Sprintf("duration must be more than 0 and less than or equal to %d for %s intervals", maxDuration, opts.IntervalType))
	}

	if opts.MarketVolatility.IsNegative() || opts.MarketVolatility.GreaterThan(one) {
		a.Violations = append(a.Violations,
			"market volatility must be more than or equal to 0 and less than or equal to 1")
	}

	if fee := opts.TransactionFeePercentage; fee != nil && !inPercentRange(*fee) {
		a.Violations = append(a.Violations,
			"transaction fee percentage must be more than 0 and less than or equal to 100")
	}
}

// checkDynamics checks how the inputs evolve over the run.
func (v *BasicValidator) checkDynamics(a *Assessment, t *token.Token, opts *engine.Options) {
	if t.BurnRate != nil && t.BurnRate.GreaterThanOrEqual(one) {
		a.Warnings = append(a.Warnings, "burn rate of 1 or more drives balances negative")
	}

	// 复利增长后的用户数同样受 MaxTotalUsers 限制，每个区间都会生成完整用户集
	if rate := opts.AdoptionRate; rate != nil && rate.IsPositive() {
		grown := decimal.NewFromUint64(opts.TotalUsers).Mul(one.Add(*rate).Pow(decimal.NewFromUint64(opts.Duration)))
		if grown.GreaterThan(decimal.NewFromUint64(v.limits.MaxTotalUsers)) {
			a.Violations = append(a.Violations,
				fmt.Sprintf("adoption rate grows the population to about %s users, more than %d",
					numeric.Round(grown, 0), v.limits.MaxTotalUsers))
		}
	}
}

func (v *BasicValidator) maxDuration(interval models.SimulationInterval) uint64 {
	switch interval {
	case models.IntervalHourly:
		return v.limits.MaxHourlyDuration
	case models.IntervalWeekly:
		return v.limits.MaxWeeklyDuration
	case models.IntervalMonthly:
		return v.limits.MaxMonthlyDuration
	default:
		return v.limits.MaxDailyDuration
	}
}

func inPercentRange(p decimal.Decimal) bool {
	return p.IsPositive() && p.LessThanOrEqual(numeric.Hundred)
}

var _ Validator = (*BasicValidator)(nil)
