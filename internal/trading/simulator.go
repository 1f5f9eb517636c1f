package trading

import (
	"fmt"
	"math/rand/v2"

	"github.com/songzhibin97/tokensim/internal/models"
	"github.com/songzhibin97/tokensim/internal/utils/numeric"
)

const (
	minTradeFraction = 0.01
	maxTradeFraction = 0.10
)

// BasicSimulator flips a fair coin per user and pass and trades a random slice
// of the user's balance on success.
type BasicSimulator struct {
	params Params
	rng    *rand.Rand
}

func NewBasicSimulator(params Params, rng *rand.Rand) *BasicSimulator {
	return &BasicSimulator{
		params: params,
		rng:    rng,
	}
}

func (s *BasicSimulator) ProcessInterval(users []models.User, subIntervals uint64) (*models.SimulationReport, error) {
	report := &models.SimulationReport{}

	for pass := uint64(0); pass < subIntervals; pass++ {
		for i := range users {
			user := &users[i]
			if user.Balance.IsZero() {
				continue
			}

			// 失败交易
			if s.rng.Float64() >= 0.5 {
				report.FailedTrades++
				continue
			}

			if err := s.trade(user, report); err != nil {
				return nil, fmt.Errorf("trade for user %s: %w", user.ID, err)
			}
		}
	}

	return report, nil
}

// trade executes one successful coin flip for user.
func (s *BasicSimulator) trade(user *models.User, report *models.SimulationReport) error {
	balance, err := numeric.ToFloat(user.Balance)
	if err != nil {
		return err
	}

	fraction := minTradeFraction + s.rng.Float64()*(maxTradeFraction-minTradeFraction)
	maxAmount := balance * fraction
	if maxAmount <= 0 {
		report.FailedTrades++
		return nil
	}

	amount, err := numeric.FromFloat(s.rng.Float64() * maxAmount)
	if err != nil {
		return err
	}
	amount = numeric.Round(amount, s.params.Precision)

	user.Balance = user.Balance.Sub(amount)
	report.ProfitLoss = report.ProfitLoss.Add(amount)
	report.SuccessfulTrades++

	if s.params.BurnRate != nil {
		burned := amount.Mul(*s.params.BurnRate)
		user.Balance = user.Balance.Sub(burned)
		report.TotalBurned = report.TotalBurned.Add(burned)
	}

	if s.params.InflationRate != nil {
		minted := amount.Mul(*s.params.InflationRate)
		user.Balance = user.Balance.Add(minted)
		report.TotalNewTokens = report.TotalNewTokens.Add(minted)
	}

	if s.params.TransactionFeePercentage != nil {
		fee := amount.Mul(s.params.TransactionFeePercentage.Div(numeric.Hundred))
		user.Balance = user.Balance.Sub(numeric.Round(fee, s.params.Precision))
	}

	return nil
}

var _ Simulator = (*BasicSimulator)(nil)

