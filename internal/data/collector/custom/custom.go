package custom

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/songzhibin97/tokensim/internal/data/collector"
	"github.com/songzhibin97/tokensim/internal/utils/numeric"
)

// FixedFeeSource returns a configured fee without any network call
type FixedFeeSource struct {
	fee decimal.Decimal
}

// NewFixedFeeSource rejects fees without a fixed-point representation.
func NewFixedFeeSource(fee float64) (*FixedFeeSource, error) {
	d, err := numeric.FromFloat(fee)
	if err != nil {
		return nil, err
	}
	return &FixedFeeSource{fee: d}, nil
}

func (f *FixedFeeSource) Name() string {
	return "custom"
}

func (f *FixedFeeSource) CollectFee(context.Context) (decimal.Decimal, error) {
	return f.fee, nil
}

var _ collector.FeeSource = (*FixedFeeSource)(nil)
