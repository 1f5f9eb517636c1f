package trading

import (
	"github.com/shopspring/decimal"

	"github.com/songzhibin97/tokensim/internal/models"
)

// Simulator defines methods for simulating trading activity
type Simulator interface {
	// ProcessInterval runs subIntervals trading passes over users, mutating
	// their balances, and returns the raw statistics of the interval
	ProcessInterval(users []models.User, subIntervals uint64) (*models.SimulationReport, error)
}

// Params 交易模拟参数
type Params struct {
	Precision                int32            // 金额精度
	BurnRate                 *decimal.Decimal // 每笔交易销毁比例
	InflationRate            *decimal.Decimal // 每笔交易增发比例
	TransactionFeePercentage *decimal.Decimal // 交易手续费百分比
}
