package engine

import (
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/songzhibin97/tokensim/internal/models"
	"github.com/songzhibin97/tokensim/internal/utils/numeric"
	"github.com/songzhibin97/tokensim/internal/valuation"
)

const (
	defaultDuration         = 7
	defaultMarketVolatility = 0.5
	defaultPrecision        = 4
)

// Options 模拟参数，构建后只读
type Options struct {
	Duration                 uint64                    `json:"duration"`
	TotalUsers               uint64                    `json:"total_users"`
	MarketVolatility         decimal.Decimal           `json:"market_volatility"`
	DecimalPrecision         int32                     `json:"decimal_precision"`
	IntervalType             models.SimulationInterval `json:"interval_type"`
	TransactionFeePercentage *decimal.Decimal          `json:"transaction_fee_percentage,omitempty"`
	AdoptionRate             *decimal.Decimal          `json:"adoption_rate,omitempty"`
	ValuationModel           valuation.Model           `json:"-"`
}

// OptionsConfig describes simulation options before validation. Nil fields
// take their defaults; TotalUsers is required.
type OptionsConfig struct {
	Duration                 *uint64                   `json:"duration,omitempty"`
	TotalUsers               uint64                    `json:"total_users"`
	MarketVolatility         *float64                  `json:"market_volatility,omitempty"`
	DecimalPrecision         *int32                    `json:"decimal_precision,omitempty"`
	IntervalType             models.SimulationInterval `json:"interval_type,omitempty"`
	TransactionFeePercentage *float64                  `json:"transaction_fee_percentage,omitempty"`
	AdoptionRate             *float64                  `json:"adoption_rate,omitempty"`
	Valuation                *valuation.Spec           `json:"valuation,omitempty"`
}

// NewOptions validates cfg and fills in defaults.
func NewOptions(cfg OptionsConfig) (*Options, error) {
	if cfg.TotalUsers == 0 {
		return nil, ErrMissingTotalUsers
	}

	o := &Options{
		Duration:         defaultDuration,
		TotalUsers:       cfg.TotalUsers,
		MarketVolatility: decimal.NewFromFloat(defaultMarketVolatility),
		DecimalPrecision: defaultPrecision,
		IntervalType:     models.IntervalDaily,
	}
	if cfg.Duration != nil {
		o.Duration = *cfg.Duration
	}
	if cfg.DecimalPrecision != nil {
		o.DecimalPrecision = *cfg.DecimalPrecision
	}
	if cfg.IntervalType != "" {
		if !cfg.IntervalType.Valid() {
			return nil, fmt.Errorf("unknown interval type: %s", cfg.IntervalType)
		}
		o.IntervalType = cfg.IntervalType
	}

	var err error
	if cfg.MarketVolatility != nil {
		if o.MarketVolatility, err = numeric.FromFloat(*cfg.MarketVolatility); err != nil {
			return nil, fmt.Errorf("market volatility: %w", err)
		}
	}
	if o.TransactionFeePercentage, err = numeric.FromFloatPtr(cfg.TransactionFeePercentage); err != nil {
		return nil, fmt.Errorf("transaction fee percentage: %w", err)
	}
	if o.AdoptionRate, err = numeric.FromFloatPtr(cfg.AdoptionRate); err != nil {
		return nil, fmt.Errorf("adoption rate: %w", err)
	}
	if o.ValuationModel, err = cfg.Valuation.Build(); err != nil {
		return nil, err
	}

	return o, nil
}

type optionsAlias Options

func (o Options) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		optionsAlias
		Valuation *valuation.Spec `json:"valuation,omitempty"`
	}{
		optionsAlias: optionsAlias(o),
		Valuation:    valuation.SpecOf(o.ValuationModel),
	})
}

func (o *Options) UnmarshalJSON(data []byte) error {
	aux := struct {
		*optionsAlias
		Valuation *valuation.Spec `json:"valuation,omitempty"`
	}{
		optionsAlias: (*optionsAlias)(o),
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	model, err := aux.Valuation.Build()
	if err != nil {
		return err
	}
	o.ValuationModel = model
	return nil
}
