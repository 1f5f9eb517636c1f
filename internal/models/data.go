package models

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SimulationStatus 模拟状态
type SimulationStatus string

const (
	SimulationStatusPending   SimulationStatus = "pending"
	SimulationStatusRunning   SimulationStatus = "running"
	SimulationStatusCompleted SimulationStatus = "completed"
)

// SimulationInterval 模拟时间间隔类型
type SimulationInterval string

const (
	IntervalHourly  SimulationInterval = "hourly"
	IntervalDaily   SimulationInterval = "daily"
	IntervalWeekly  SimulationInterval = "weekly"
	IntervalMonthly SimulationInterval = "monthly"
)

// Hours returns the length of one interval in base time units.
// Unknown values fall back to daily.
func (i SimulationInterval) Hours() uint64 {
	switch i {
	case IntervalHourly:
		return 1
	case IntervalWeekly:
		return 24 * 7
	case IntervalMonthly:
		return 24 * 30
	default:
		return 24
	}
}

// Valid reports whether i is one of the known interval types.
func (i SimulationInterval) Valid() bool {
	switch i {
	case IntervalHourly, IntervalDaily, IntervalWeekly, IntervalMonthly:
		return true
	}
	return false
}

// User 模拟用户
type User struct {
	ID      uuid.UUID       `json:"id"`
	Balance decimal.Decimal `json:"balance"`
}

// NewUser creates a user with a fresh random ID.
func NewUser(balance decimal.Decimal) User {
	return User{ID: uuid.New(), Balance: balance}
}

// SimulationReport 模拟报告（区间报告与最终报告共用）
type SimulationReport struct {
	Interval          int64             `json:"interval"` // unix millis of the interval start
	ProfitLoss        decimal.Decimal   `json:"profit_loss"`
	Trades            uint64            `json:"trades"`
	SuccessfulTrades  uint64            `json:"successful_trades"`
	FailedTrades      uint64            `json:"failed_trades"`
	TokenDistribution []decimal.Decimal `json:"token_distribution,omitempty"` // final report only
	MarketVolatility  decimal.Decimal   `json:"market_volatility"`
	Liquidity         decimal.Decimal   `json:"liquidity"`
	AdoptionRate      decimal.Decimal   `json:"adoption_rate"`
	BurnRate          decimal.Decimal   `json:"burn_rate"`
	InflationRate     decimal.Decimal   `json:"inflation_rate"`
	UserRetention     decimal.Decimal   `json:"user_retention"`
	NetworkActivity   uint64            `json:"network_activity"`
	TokenPrice        decimal.Decimal   `json:"token_price"`
	TotalBurned       decimal.Decimal   `json:"total_burned"`
	TotalNewTokens    decimal.Decimal   `json:"total_new_tokens"`
}
