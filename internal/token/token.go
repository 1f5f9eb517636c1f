// Package token owns the token supply ledger: airdrops, unlock schedules and vesting.
package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/songzhibin97/tokensim/internal/utils/numeric"
)

// ErrMissingName is returned by New when the token has no name.
var ErrMissingName = errors.New("missing token name")

const (
	defaultSymbol      = "TKN"
	defaultTotalSupply = 1_000_000
)

// Token 代币及其供应量状态
type Token struct {
	ID                      uuid.UUID        `json:"id"`
	Name                    string           `json:"name"`
	Symbol                  string           `json:"symbol"`
	TotalSupply             decimal.Decimal  `json:"total_supply"`
	CurrentSupply           decimal.Decimal  `json:"current_supply"`
	InitialSupplyPercentage decimal.Decimal  `json:"initial_supply_percentage"`
	InflationRate           *decimal.Decimal `json:"inflation_rate,omitempty"`
	BurnRate                *decimal.Decimal `json:"burn_rate,omitempty"`
	InitialPrice            decimal.Decimal  `json:"initial_price"`
	AirdropPercentage       *decimal.Decimal `json:"airdrop_percentage,omitempty"`
	UnlockSchedule          []UnlockEvent    `json:"unlock_schedule,omitempty"`
}

// UnlockEvent 解锁事件
type UnlockEvent struct {
	Date   time.Time       `json:"date"`
	Amount decimal.Decimal `json:"amount"`
}

// UnlockEventConfig is the float form of an unlock event accepted by New.
type UnlockEventConfig struct {
	Date   time.Time `json:"date" yaml:"date" mapstructure:"date"`
	Amount float64   `json:"amount" yaml:"amount" mapstructure:"amount"`
}

// Config describes a token before validation. Nil fields take their defaults.
type Config struct {
	Name                    string              `json:"name"`
	Symbol                  string              `json:"symbol,omitempty"`
	TotalSupply             *int64              `json:"total_supply,omitempty"`
	CurrentSupply           *float64            `json:"current_supply,omitempty"`
	InitialSupplyPercentage *float64            `json:"initial_supply_percentage,omitempty"`
	InflationRate           *float64            `json:"inflation_rate,omitempty"`
	BurnRate                *float64            `json:"burn_rate,omitempty"`
	InitialPrice            *float64            `json:"initial_price,omitempty"`
	AirdropPercentage       *float64            `json:"airdrop_percentage,omitempty"`
	UnlockSchedule          []UnlockEventConfig `json:"unlock_schedule,omitempty"`

	// Vesting is expanded into dated unlock events starting at VestingStart
	// (the build time when zero).
	Vesting      *VestingSchedule `json:"vesting,omitempty"`
	VestingStart time.Time        `json:"vesting_start,omitempty"`
}

// New validates cfg and builds a token with a fresh ID.
func New(cfg Config) (*Token, error) {
	if cfg.Name == "" {
		return nil, ErrMissingName
	}

	t := &Token{
		ID:                      uuid.New(),
		Name:                    cfg.Name,
		Symbol:                  cfg.Symbol,
		TotalSupply:             decimal.NewFromInt(defaultTotalSupply),
		CurrentSupply:           decimal.Zero,
		InitialSupplyPercentage: decimal.NewFromInt(100),
		InitialPrice:            decimal.NewFromInt(1),
	}
	if t.Symbol == "" {
		t.Symbol = defaultSymbol
	}
	if cfg.TotalSupply != nil {
		t.TotalSupply = decimal.NewFromInt(*cfg.TotalSupply)
	}

	var err error
	if cfg.CurrentSupply != nil {
		if t.CurrentSupply, err = numeric.FromFloat(*cfg.CurrentSupply); err != nil {
			return nil, fmt.Errorf("current supply: %w", err)
		}
	}
	if cfg.InitialSupplyPercentage != nil {
		if t.InitialSupplyPercentage, err = numeric.FromFloat(*cfg.InitialSupplyPercentage); err != nil {
			return nil, fmt.Errorf("initial supply percentage: %w", err)
		}
	}
	if cfg.InitialPrice != nil {
		if t.InitialPrice, err = numeric.FromFloat(*cfg.InitialPrice); err != nil {
			return nil, fmt.Errorf("initial price: %w", err)
		}
	}
	if t.InflationRate, err = numeric.FromFloatPtr(cfg.InflationRate); err != nil {
		return nil, fmt.Errorf("inflation rate: %w", err)
	}
	if t.BurnRate, err = numeric.FromFloatPtr(cfg.BurnRate); err != nil {
		return nil, fmt.Errorf("burn rate: %w", err)
	}
	if t.AirdropPercentage, err = numeric.FromFloatPtr(cfg.AirdropPercentage); err != nil {
		return nil, fmt.Errorf("airdrop percentage: %w", err)
	}

	for _, ev := range cfg.UnlockSchedule {
		amount, err := numeric.FromFloat(ev.Amount)
		if err != nil {
			return nil, fmt.Errorf("unlock amount: %w", err)
		}
		t.AddUnlockEvent(ev.Date, amount)
	}

	if cfg.Vesting != nil {
		if err := cfg.Vesting.Validate(); err != nil {
			return nil, err
		}
		start := cfg.VestingStart
		if start.IsZero() {
			start = time.Now().UTC()
		}
		for _, ev := range cfg.Vesting.UnlockEvents(start, t.TotalSupply) {
			t.AddUnlockEvent(ev.Date, ev.Amount)
		}
	}

	return t, nil
}

// Airdrop credits percentage of the total supply to the current supply and
// returns the amount actually distributed. The credit is capped so the current
// supply never exceeds the total supply.
func (t *Token) Airdrop(percentage decimal.Decimal) decimal.Decimal {
	amount := numeric.Round(t.TotalSupply.Mul(percentage).Div(numeric.Hundred), 0)
	remaining := t.TotalSupply.Sub(t.CurrentSupply)
	if remaining.IsNegative() {
		remaining = decimal.Zero
	}
	if amount.GreaterThan(remaining) {
		amount = remaining
	}

	t.CurrentSupply = t.CurrentSupply.Add(amount)
	return amount
}

// AddUnlockEvent appends an event to the schedule. Events keep insertion order.
func (t *Token) AddUnlockEvent(date time.Time, amount decimal.Decimal) {
	t.UnlockSchedule = append(t.UnlockSchedule, UnlockEvent{Date: date, Amount: amount})
}

// ProcessUnlocks releases every event dated at or before now into the current
// supply and drops it from the schedule. It returns the released amount.
func (t *Token) ProcessUnlocks(now time.Time) decimal.Decimal {
	released := decimal.Zero
	pending := t.UnlockSchedule[:0]
	for _, ev := range t.UnlockSchedule {
		if !ev.Date.After(now) {
			released = released.Add(ev.Amount)
			continue
		}
		pending = append(pending, ev)
	}

	t.UnlockSchedule = pending
	t.CurrentSupply = t.CurrentSupply.Add(released)
	return released
}

// InitialSupply returns the whole-token share of the total supply available at launch.
func (t *Token) InitialSupply() decimal.Decimal {
	return numeric.Round(t.TotalSupply.Mul(t.InitialSupplyPercentage).Div(numeric.Hundred), 0)
}
