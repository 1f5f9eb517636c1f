// Package report derives the interval and final economic metrics of a simulation.
package report

import (
	"github.com/shopspring/decimal"

	"github.com/songzhibin97/tokensim/internal/models"
	"github.com/songzhibin97/tokensim/internal/utils/numeric"
)

// CalculateLiquidity returns trades per base time unit.
func CalculateLiquidity(trades, intervalLength decimal.Decimal, precision int32) decimal.Decimal {
	return numeric.Quo(trades, intervalLength, precision)
}

// CalculateAdoptionRate returns the share of users holding a positive balance.
func CalculateAdoptionRate(users []models.User, precision int32) decimal.Decimal {
	return numeric.Quo(holders(users), decimal.NewFromInt(int64(len(users))), precision)
}

// CalculateUserRetention returns the share of users still holding a positive
// balance. It is computed exactly like the adoption rate.
func CalculateUserRetention(users []models.User, precision int32) decimal.Decimal {
	return numeric.Quo(holders(users), decimal.NewFromInt(int64(len(users))), precision)
}

// CalculateBurnRate returns totalBurned per unit of denominator.
func CalculateBurnRate(totalBurned, denominator decimal.Decimal, precision int32) decimal.Decimal {
	return numeric.Quo(totalBurned, denominator, precision)
}

// CalculateInflationRate returns totalNewTokens per unit of denominator.
func CalculateInflationRate(totalNewTokens, denominator decimal.Decimal, precision int32) decimal.Decimal {
	return numeric.Quo(totalNewTokens, denominator, precision)
}

func holders(users []models.User) decimal.Decimal {
	var n int64
	for _, u := range users {
		if u.Balance.IsPositive() {
			n++
		}
	}
	return decimal.NewFromInt(n)
}

// Aggregator turns raw trading statistics into report metrics.
type Aggregator struct {
	precision  int32
	volatility decimal.Decimal
	totalUsers uint64
	duration   uint64
}

func NewAggregator(precision int32, volatility decimal.Decimal, totalUsers, duration uint64) *Aggregator {
	return &Aggregator{
		precision:  precision,
		volatility: volatility,
		totalUsers: totalUsers,
		duration:   duration,
	}
}

// FinalizeInterval fills the derived fields of a raw interval report. Burn and
// inflation rates are expressed per user of the interval population.
func (a *Aggregator) FinalizeInterval(r *models.SimulationReport, users []models.User, intervalLength uint64) {
	population := decimal.NewFromInt(int64(len(users)))

	r.Trades = r.SuccessfulTrades + r.FailedTrades
	r.Liquidity = CalculateLiquidity(decimal.NewFromUint64(r.Trades), decimal.NewFromUint64(intervalLength), a.precision)
	r.AdoptionRate = CalculateAdoptionRate(users, a.precision)
	r.UserRetention = CalculateUserRetention(users, a.precision)
	r.BurnRate = CalculateBurnRate(r.TotalBurned, population, a.precision)
	r.InflationRate = CalculateInflationRate(r.TotalNewTokens, population, a.precision)
	r.MarketVolatility = a.volatility
	if intervalLength > 0 {
		r.NetworkActivity = r.Trades / intervalLength
	}
}

// Final folds the interval history into the summary report.
//
// Liquidity, adoption, retention and price are interval means. Burn and
// inflation totals are re-derived as Σ rate × total users and divided by the
// total trade count, so the final rates are per trade while interval rates are
// per user.
func (a *Aggregator) Final(intervals []models.SimulationReport, users []models.User) models.SimulationReport {
	final := models.SimulationReport{MarketVolatility: a.volatility}
	totalUsers := decimal.NewFromUint64(a.totalUsers)

	var liquidity, adoption, retention, price decimal.Decimal
	for _, r := range intervals {
		final.ProfitLoss = final.ProfitLoss.Add(r.ProfitLoss)
		final.Trades += r.Trades
		final.SuccessfulTrades += r.SuccessfulTrades
		final.FailedTrades += r.FailedTrades

		final.TotalBurned = final.TotalBurned.Add(r.BurnRate.Mul(totalUsers))
		final.TotalNewTokens = final.TotalNewTokens.Add(r.InflationRate.Mul(totalUsers))

		liquidity = liquidity.Add(r.Liquidity)
		adoption = adoption.Add(r.AdoptionRate)
		retention = retention.Add(r.UserRetention)
		price = price.Add(r.TokenPrice)
	}

	count := decimal.NewFromInt(int64(len(intervals)))
	trades := decimal.NewFromUint64(final.Trades)

	final.Liquidity = numeric.Quo(liquidity, count, a.precision)
	final.AdoptionRate = numeric.Quo(adoption, count, a.precision)
	final.UserRetention = numeric.Quo(retention, count, a.precision)
	final.TokenPrice = numeric.Quo(price, count, a.precision)
	final.BurnRate = CalculateBurnRate(final.TotalBurned, trades, a.precision)
	final.InflationRate = CalculateInflationRate(final.TotalNewTokens, trades, a.precision)
	if a.duration > 0 {
		final.NetworkActivity = final.Trades / a.duration
	}
	if len(intervals) > 0 {
		final.Interval = intervals[len(intervals)-1].Interval
	}

	final.TokenDistribution = make([]decimal.Decimal, len(users))
	for i, u := range users {
		final.TokenDistribution[i] = u.Balance
	}

	return final
}
