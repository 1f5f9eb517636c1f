package collector

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"
)

var (
	ErrInvalidAPIKey        = errors.New("invalid api key")
	ErrInvalidAPIRequest    = errors.New("invalid api request")
	ErrInvalidAPIConversion = errors.New("invalid api conversion")
	ErrNoSources            = errors.New("no fee sources configured")
)

// MultiSourceCollector implements data.FeeCollector by trying sources in order
type MultiSourceCollector struct {
	sources []FeeSource
	logger  *slog.Logger
}

type FeeSource interface {
	Name() string
	CollectFee(ctx context.Context) (decimal.Decimal, error)
}

func NewMultiSourceCollector(sources []FeeSource, logger *slog.Logger) *MultiSourceCollector {
	if logger == nil {
		logger = slog.Default()
	}
	return &MultiSourceCollector{
		sources: sources,
		logger:  logger,
	}
}

// CollectFee returns the fee of the first source that answers
func (c *MultiSourceCollector) CollectFee(ctx context.Context) (decimal.Decimal, error) {
	if len(c.sources) == 0 {
		return decimal.Zero, ErrNoSources
	}

	var errs []error
	for _, source := range c.sources {
		fee, err := source.CollectFee(ctx)
		if err == nil {
			c.logger.Info("collected transaction fee", "source", source.Name(), "fee", fee)
			return fee, nil
		}
		c.logger.Error("failed to collect transaction fee", "source", source.Name(), "error", err)
		errs = append(errs, fmt.Errorf("%s: %w", source.Name(), err))
	}

	return decimal.Zero, fmt.Errorf("failed to collect transaction fee from all sources: %w", errors.Join(errs...))
}
