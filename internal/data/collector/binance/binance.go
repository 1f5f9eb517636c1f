package binance

import (
	"context"
	"fmt"

	"github.com/adshao/go-binance/v2"
	"github.com/shopspring/decimal"
)

// PriceSource seeds token prices from Binance spot tickers
type PriceSource struct {
	client *binance.Client
}

// NewPriceSource creates a public market data client. Keys are only needed
// for rate-limit tiers; empty strings are fine.
func NewPriceSource(apiKey, secretKey string, testnet bool) *PriceSource {
	if testnet {
		binance.UseTestnet = true
	}
	return &PriceSource{
		client: binance.NewClient(apiKey, secretKey),
	}
}

func (p *PriceSource) Name() string {
	return "binance"
}

// CollectPrice returns the last price of symbol, e.g. BTCUSDT
func (p *PriceSource) CollectPrice(ctx context.Context, symbol string) (decimal.Decimal, error) {
	prices, err := p.client.NewListPricesService().Symbol(symbol).Do(ctx)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to get ticker price: %w", err)
	}

	for _, price := range prices {
		if price.Symbol != symbol {
			continue
		}
		d, err := decimal.NewFromString(price.Price)
		if err != nil {
			return decimal.Zero, fmt.Errorf("failed to parse price %q: %w", price.Price, err)
		}
		return d, nil
	}

	return decimal.Zero, fmt.Errorf("symbol %s not found", symbol)
}
