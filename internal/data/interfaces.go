package data

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/songzhibin97/tokensim/internal/engine"
)

// FeeCollector 负责从链上数据源获取单笔交易手续费
type FeeCollector interface {
	// CollectFee returns the current per-transaction fee in native token units
	CollectFee(ctx context.Context) (decimal.Decimal, error)
}

// PriceCollector 负责从交易所获取代币价格
type PriceCollector interface {
	// CollectPrice returns the last traded price of symbol
	CollectPrice(ctx context.Context, symbol string) (decimal.Decimal, error)
}

// SimulationStorage 处理模拟结果的持久化
type SimulationStorage interface {
	// SaveSimulation upserts the simulation together with its final report
	SaveSimulation(ctx context.Context, sim *engine.Simulation) error

	// SaveIntervalReports replaces the stored interval reports of the simulation
	SaveIntervalReports(ctx context.Context, sim *engine.Simulation) error

	// GetSimulation loads a simulation with its interval reports
	GetSimulation(ctx context.Context, id uuid.UUID) (*engine.Simulation, error)

	// ListSimulations returns the most recent simulations without interval reports
	ListSimulations(ctx context.Context, limit int) ([]*engine.Simulation, error)
}
