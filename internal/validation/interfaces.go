package validation

import (
	"errors"

	"github.com/songzhibin97/tokensim/internal/engine"
	"github.com/songzhibin97/tokensim/internal/token"
)

// ErrValidationFailed wraps every rejected simulation input.
var ErrValidationFailed = errors.New("validation failed")

// Validator defines methods for checking simulation inputs before a run
type Validator interface {
	// Check evaluates the token and options without failing
	Check(t *token.Token, opts *engine.Options) *Assessment

	// Validate returns an error wrapping ErrValidationFailed when Check finds a violation
	Validate(t *token.Token, opts *engine.Options) error
}

// Limits 输入参数上下限
type Limits struct {
	MaxTotalUsers      uint64 `json:"max_total_users" yaml:"max_total_users" mapstructure:"max_total_users"`
	MinPrecision       int32  `json:"min_precision" yaml:"min_precision" mapstructure:"min_precision"`
	MaxPrecision       int32  `json:"max_precision" yaml:"max_precision" mapstructure:"max_precision"`
	MaxHourlyDuration  uint64 `json:"max_hourly_duration" yaml:"max_hourly_duration" mapstructure:"max_hourly_duration"`
	MaxDailyDuration   uint64 `json:"max_daily_duration" yaml:"max_daily_duration" mapstructure:"max_daily_duration"`
	MaxWeeklyDuration  uint64 `json:"max_weekly_duration" yaml:"max_weekly_duration" mapstructure:"max_weekly_duration"`
	MaxMonthlyDuration uint64 `json:"max_monthly_duration" yaml:"max_monthly_duration" mapstructure:"max_monthly_duration"`
}

// DefaultLimits returns the limits the HTTP service enforces.
func DefaultLimits() Limits {
	return Limits{
		MaxTotalUsers:      100_000,
		MinPrecision:       1,
		MaxPrecision:       18,
		MaxHourlyDuration:  24,
		MaxDailyDuration:   365,
		MaxWeeklyDuration:  52,
		MaxMonthlyDuration: 12,
	}
}

// Assessment 输入检查结果
type Assessment struct {
	IsAcceptable bool     `json:"is_acceptable"`
	Violations   []string `json:"violations"`
	Warnings     []string `json:"warnings"`
}
