package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/songzhibin97/tokensim/internal/ai"
	"github.com/songzhibin97/tokensim/internal/ai/deepseek"
	"github.com/songzhibin97/tokensim/internal/ai/openai"
	"github.com/songzhibin97/tokensim/internal/configs"
	"github.com/songzhibin97/tokensim/internal/data"
	"github.com/songzhibin97/tokensim/internal/data/collector"
	"github.com/songzhibin97/tokensim/internal/data/collector/binance"
	"github.com/songzhibin97/tokensim/internal/data/collector/custom"
	"github.com/songzhibin97/tokensim/internal/data/collector/ethereum"
	"github.com/songzhibin97/tokensim/internal/data/collector/solana"
	"github.com/songzhibin97/tokensim/internal/data/storage"
	"github.com/songzhibin97/tokensim/internal/engine"
	"github.com/songzhibin97/tokensim/internal/observability"
	"github.com/songzhibin97/tokensim/internal/token"
	"github.com/songzhibin97/tokensim/internal/utils/logging"
	"github.com/songzhibin97/tokensim/internal/validation"
)

// app holds the components shared by the subcommands.
type app struct {
	config  *configs.Config
	log     *slog.Logger
	metrics *observability.Metrics
}

func newApp(cmd *cobra.Command) (*app, error) {
	path, _ := cmd.Flags().GetString("conf")

	// 加载配置
	config, err := configs.Load(path)
	if err != nil {
		return nil, err
	}

	log := logging.NewLogger(config.LogLevel, cmd.ErrOrStderr())
	log.Debug("loaded config", "path", path)

	if config.Proxy != "" {
		_ = os.Setenv("HTTP_PROXY", config.Proxy)
		_ = os.Setenv("HTTPS_PROXY", config.Proxy)
		log.Debug("set proxy ok", "proxy", config.Proxy)
	}

	return &app{
		config:  config,
		log:     log,
		metrics: observability.NewMetrics(""),
	}, nil
}

func (a *app) validator() validation.Validator {
	return validation.NewBasicValidator(a.config.Limits)
}

// feeCollector returns nil when no fee source is configured.
func (a *app) feeCollector() (data.FeeCollector, error) {
	fee := a.config.Fee
	if len(fee.Sources) == 0 {
		return nil, nil
	}

	sources := make([]collector.FeeSource, 0, len(fee.Sources))
	for _, name := range fee.Sources {
		switch strings.ToLower(strings.TrimSpace(name)) {
		case "ethereum":
			sources = append(sources, ethereum.NewEtherscanFeeSource(fee.EtherscanAPIKey, fee.EtherscanURL))
		case "solana":
			sources = append(sources, solana.NewRPCFeeSource(fee.SolanaRPCURL))
		case "custom":
			source, err := custom.NewFixedFeeSource(fee.Custom)
			if err != nil {
				return nil, fmt.Errorf("custom fee: %w", err)
			}
			sources = append(sources, source)
		default:
			return nil, fmt.Errorf("unknown fee source: %s", name)
		}
	}

	return collector.NewMultiSourceCollector(sources, a.log), nil
}

// priceCollector returns nil when no market symbol is configured.
func (a *app) priceCollector() data.PriceCollector {
	p := a.config.Price
	if p.Symbol == "" {
		return nil
	}
	return binance.NewPriceSource(p.APIKey, p.SecretKey, p.Testnet)
}

// storage returns nil when no database is configured.
func (a *app) storage(ctx context.Context) (*storage.PostgresStorage, error) {
	if a.config.Database.ConnStr == "" {
		return nil, nil
	}
	return storage.NewPostgresStorage(ctx, a.config.Database.ConnStr)
}

// analyzer returns nil when no provider is configured.
func (a *app) analyzer() (ai.Analyzer, error) {
	c := a.config.AIConfig
	switch strings.ToLower(c.Provider) {
	case "":
		return nil, nil
	case "openai":
		return openai.NewOpenAIAnalyzer(c.APIKey, c.BaseURL, c.ModelType), nil
	case "deepseek":
		return deepseek.NewDeepSeekAnalyzer(c.APIKey, c.BaseURL, c.ModelType), nil
	default:
		return nil, fmt.Errorf("unknown ai provider: %s", c.Provider)
	}
}

// buildSimulation resolves the external inputs and returns a pending simulation.
func (a *app) buildSimulation(ctx context.Context) (*engine.Simulation, error) {
	tokenCfg, err := a.config.TokenConfig()
	if err != nil {
		return nil, err
	}
	tk, err := token.New(tokenCfg)
	if err != nil {
		return nil, fmt.Errorf("token: %w", err)
	}

	if prices := a.priceCollector(); prices != nil {
		price, err := prices.CollectPrice(ctx, a.config.Price.Symbol)
		if err != nil {
			return nil, fmt.Errorf("price: %w", err)
		}
		tk.InitialPrice = price
		a.log.Info("seeded initial price", "symbol", a.config.Price.Symbol, "price", price)
	}

	optsCfg := a.config.OptionsConfig()
	opts, err := engine.NewOptions(optsCfg)
	if err != nil {
		return nil, fmt.Errorf("options: %w", err)
	}

	if opts.TransactionFeePercentage == nil {
		fees, err := a.feeCollector()
		if err != nil {
			return nil, err
		}
		if fees != nil {
			fee, err := fees.CollectFee(ctx)
			a.metrics.ObserveFeeCollection(err)
			if err != nil {
				return nil, fmt.Errorf("fee: %w", err)
			}
			opts.TransactionFeePercentage = &fee
		}
	}

	if err := a.validator().Validate(tk, opts); err != nil {
		return nil, err
	}

	return engine.New(engine.Config{
		Name:        a.config.Simulation.Name,
		Description: a.config.Simulation.Description,
		Token:       tk,
		Options:     opts,
		Logger:      a.log,
		Rand:        engine.NewRand(a.config.Seed),
	})
}
