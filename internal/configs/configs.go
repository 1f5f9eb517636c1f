package configs

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"

	"github.com/songzhibin97/tokensim/internal/engine"
	"github.com/songzhibin97/tokensim/internal/models"
	"github.com/songzhibin97/tokensim/internal/token"
	"github.com/songzhibin97/tokensim/internal/utils/numeric"
	"github.com/songzhibin97/tokensim/internal/validation"
	"github.com/songzhibin97/tokensim/internal/valuation"
)

const envPrefix = "TOKENSIM"

type Config struct {
	// 基础配置
	LogLevel string `json:"log_level" yaml:"log_level" mapstructure:"log_level"` // debug/info/warn/error
	Seed     uint64 `json:"seed" yaml:"seed" mapstructure:"seed"`                // 随机种子，0 表示随机
	Proxy    string `json:"proxy" yaml:"proxy" mapstructure:"proxy"`             // HTTP(S) 代理

	// 代币参数
	Token TokenConfig `json:"token" yaml:"token" mapstructure:"token"`

	// 模拟参数
	Simulation SimulationConfig `json:"simulation" yaml:"simulation" mapstructure:"simulation"`

	// 手续费来源
	Fee FeeConfig `json:"fee" yaml:"fee" mapstructure:"fee"`

	// 价格来源
	Price PriceConfig `json:"price" yaml:"price" mapstructure:"price"`

	Database Database `json:"database" yaml:"database" mapstructure:"database"`

	// AI 模型参数
	AIConfig AIConfig `json:"ai_config" yaml:"ai_config" mapstructure:"ai_config"`

	Server ServerConfig `json:"server" yaml:"server" mapstructure:"server"`

	// 输入校验上下限
	Limits validation.Limits `json:"limits" yaml:"limits" mapstructure:"limits"`
}

type TokenConfig struct {
	Name                    string        `json:"name" yaml:"name" mapstructure:"name"`
	Symbol                  string        `json:"symbol" yaml:"symbol" mapstructure:"symbol"`
	TotalSupply             *int64        `json:"total_supply" yaml:"total_supply" mapstructure:"total_supply"`
	CurrentSupply           *float64      `json:"current_supply" yaml:"current_supply" mapstructure:"current_supply"`
	InitialSupplyPercentage *float64      `json:"initial_supply_percentage" yaml:"initial_supply_percentage" mapstructure:"initial_supply_percentage"`
	InflationRate           *float64      `json:"inflation_rate" yaml:"inflation_rate" mapstructure:"inflation_rate"`
	BurnRate                *float64      `json:"burn_rate" yaml:"burn_rate" mapstructure:"burn_rate"`
	InitialPrice            *float64      `json:"initial_price" yaml:"initial_price" mapstructure:"initial_price"`
	AirdropPercentage       *float64      `json:"airdrop_percentage" yaml:"airdrop_percentage" mapstructure:"airdrop_percentage"`
	UnlockSchedule          []UnlockEvent `json:"unlock_schedule" yaml:"unlock_schedule" mapstructure:"unlock_schedule"`
	Vesting                 *Vesting      `json:"vesting" yaml:"vesting" mapstructure:"vesting"`
}

type UnlockEvent struct {
	Date   time.Time `json:"date" yaml:"date" mapstructure:"date"`
	Amount float64   `json:"amount" yaml:"amount" mapstructure:"amount"`
}

type Vesting struct {
	Start                time.Time      `json:"start" yaml:"start" mapstructure:"start"`
	AllocationPercentage float64        `json:"allocation_percentage" yaml:"allocation_percentage" mapstructure:"allocation_percentage"` // 0.25 表示 25%
	Cliffs               []VestingCliff `json:"cliffs" yaml:"cliffs" mapstructure:"cliffs"`
}

type VestingCliff struct {
	AllocationPercentage float64       `json:"allocation_percentage" yaml:"allocation_percentage" mapstructure:"allocation_percentage"`
	Duration             time.Duration `json:"duration" yaml:"duration" mapstructure:"duration"` // eg: 720h
}

type SimulationConfig struct {
	Name                     string   `json:"name" yaml:"name" mapstructure:"name"`
	Description              string   `json:"description" yaml:"description" mapstructure:"description"`
	Duration                 *uint64  `json:"duration" yaml:"duration" mapstructure:"duration"`
	TotalUsers               uint64   `json:"total_users" yaml:"total_users" mapstructure:"total_users"`
	MarketVolatility         *float64 `json:"market_volatility" yaml:"market_volatility" mapstructure:"market_volatility"`
	DecimalPrecision         *int32   `json:"decimal_precision" yaml:"decimal_precision" mapstructure:"decimal_precision"`
	IntervalType             string   `json:"interval_type" yaml:"interval_type" mapstructure:"interval_type"` // hourly/daily/weekly/monthly
	TransactionFeePercentage *float64 `json:"transaction_fee_percentage" yaml:"transaction_fee_percentage" mapstructure:"transaction_fee_percentage"`
	AdoptionRate             *float64 `json:"adoption_rate" yaml:"adoption_rate" mapstructure:"adoption_rate"`
	ValuationModel           string   `json:"valuation_model" yaml:"valuation_model" mapstructure:"valuation_model"` // linear/exponential
	ValuationFactor          float64  `json:"valuation_factor" yaml:"valuation_factor" mapstructure:"valuation_factor"`
}

type FeeConfig struct {
	Sources []string `json:"sources" yaml:"sources" mapstructure:"sources"` // 按顺序尝试: ethereum/solana/custom

	EtherscanAPIKey string  `json:"etherscan_api_key" yaml:"etherscan_api_key" mapstructure:"etherscan_api_key"`
	EtherscanURL    string  `json:"etherscan_url" yaml:"etherscan_url" mapstructure:"etherscan_url"`
	SolanaRPCURL    string  `json:"solana_rpc_url" yaml:"solana_rpc_url" mapstructure:"solana_rpc_url"`
	Custom          float64 `json:"custom" yaml:"custom" mapstructure:"custom"`
}

type PriceConfig struct {
	Symbol    string `json:"symbol" yaml:"symbol" mapstructure:"symbol"` // eg: BTCUSDT，为空时使用 token.initial_price
	Testnet   bool   `json:"testnet" yaml:"testnet" mapstructure:"testnet"`
	APIKey    string `json:"api_key" yaml:"api_key" mapstructure:"api_key"`
	SecretKey string `json:"secret_key" yaml:"secret_key" mapstructure:"secret_key"`
}

type Database struct {
	ConnStr string `json:"conn_str" yaml:"conn_str" mapstructure:"conn_str"` // 数据库连接字符串，为空时不持久化
}

type AIConfig struct {
	Provider  string `json:"provider" yaml:"provider" mapstructure:"provider"` // openai/deepseek，为空时不生成解读
	APIKey    string `json:"api_key" yaml:"api_key" mapstructure:"api_key"`     // AI服务API密钥
	BaseURL   string `json:"base_url" yaml:"base_url" mapstructure:"base_url"`
	ModelType string `json:"model_type" yaml:"model_type" mapstructure:"model_type"` // AI模型类型
}

type ServerConfig struct {
	Addr string `json:"addr" yaml:"addr" mapstructure:"addr"`
}

// Load reads the config file at path. The format follows the extension
// (yaml, yml or json) and TOKENSIM_ prefixed environment variables override
// file values, eg: TOKENSIM_DATABASE_CONN_STR.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigFile(path)
	if ext := strings.TrimPrefix(filepath.Ext(path), "."); ext == "" {
		v.SetConfigType("yaml")
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	config := &Config{}
	err := v.Unmarshal(config, viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeHookFunc(time.RFC3339),
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	)))
	if err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}

	return config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log_level", "info")
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("simulation.name", "simulation")
	v.SetDefault("database.conn_str", "")
	v.SetDefault("ai_config.api_key", "")
	v.SetDefault("fee.etherscan_api_key", "")

	limits := validation.DefaultLimits()
	v.SetDefault("limits.max_total_users", limits.MaxTotalUsers)
	v.SetDefault("limits.min_precision", limits.MinPrecision)
	v.SetDefault("limits.max_precision", limits.MaxPrecision)
	v.SetDefault("limits.max_hourly_duration", limits.MaxHourlyDuration)
	v.SetDefault("limits.max_daily_duration", limits.MaxDailyDuration)
	v.SetDefault("limits.max_weekly_duration", limits.MaxWeeklyDuration)
	v.SetDefault("limits.max_monthly_duration", limits.MaxMonthlyDuration)
}

// TokenConfig adapts the token section to the token builder.
func (c *Config) TokenConfig() (token.Config, error) {
	t := c.Token
	cfg := token.Config{
		Name:                    t.Name,
		Symbol:                  t.Symbol,
		TotalSupply:             t.TotalSupply,
		CurrentSupply:           t.CurrentSupply,
		InitialSupplyPercentage: t.InitialSupplyPercentage,
		InflationRate:           t.InflationRate,
		BurnRate:                t.BurnRate,
		InitialPrice:            t.InitialPrice,
		AirdropPercentage:       t.AirdropPercentage,
	}

	for _, ev := range t.UnlockSchedule {
		cfg.UnlockSchedule = append(cfg.UnlockSchedule, token.UnlockEventConfig{Date: ev.Date, Amount: ev.Amount})
	}

	if t.Vesting != nil {
		allocation, err := numeric.FromFloat(t.Vesting.AllocationPercentage)
		if err != nil {
			return token.Config{}, fmt.Errorf("vesting allocation: %w", err)
		}
		schedule := &token.VestingSchedule{AllocationPercentage: allocation}
		for _, cliff := range t.Vesting.Cliffs {
			pct, err := numeric.FromFloat(cliff.AllocationPercentage)
			if err != nil {
				return token.Config{}, fmt.Errorf("vesting cliff allocation: %w", err)
			}
			schedule.Cliffs = append(schedule.Cliffs, token.VestingCliff{
				AllocationPercentage: pct,
				Duration:             uint64(cliff.Duration / time.Second),
			})
		}
		cfg.Vesting = schedule
		cfg.VestingStart = t.Vesting.Start
	}

	return cfg, nil
}

// OptionsConfig adapts the simulation section to the options builder.
func (c *Config) OptionsConfig() engine.OptionsConfig {
	s := c.Simulation
	cfg := engine.OptionsConfig{
		Duration:                 s.Duration,
		TotalUsers:               s.TotalUsers,
		MarketVolatility:         s.MarketVolatility,
		DecimalPrecision:         s.DecimalPrecision,
		IntervalType:             models.SimulationInterval(strings.ToLower(s.IntervalType)),
		TransactionFeePercentage: s.TransactionFeePercentage,
		AdoptionRate:             s.AdoptionRate,
	}
	if s.ValuationModel != "" {
		cfg.Valuation = &valuation.Spec{Model: s.ValuationModel, Factor: s.ValuationFactor}
	}
	return cfg
}
