// Package engine drives a token economy simulation from launch to the final report.
package engine

import (
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/songzhibin97/tokensim/internal/models"
	"github.com/songzhibin97/tokensim/internal/population"
	"github.com/songzhibin97/tokensim/internal/report"
	"github.com/songzhibin97/tokensim/internal/token"
	"github.com/songzhibin97/tokensim/internal/trading"
	"github.com/songzhibin97/tokensim/internal/utils/numeric"
	"github.com/songzhibin97/tokensim/internal/valuation"
)

// Simulation 一次代币经济模拟
type Simulation struct {
	ID              uuid.UUID                 `json:"id"`
	Name            string                    `json:"name"`
	Token           *token.Token              `json:"token"`
	Description     string                    `json:"description,omitempty"`
	Status          models.SimulationStatus   `json:"status"`
	Options         *Options                  `json:"options"`
	IntervalReports []models.SimulationReport `json:"interval_reports"`
	Report          *models.SimulationReport  `json:"report,omitempty"`
	CreatedAt       time.Time                 `json:"created_at"`
	UpdatedAt       time.Time                 `json:"updated_at"`

	logger    *slog.Logger
	rng       *rand.Rand
	clock     func() time.Time
	simulator trading.Simulator
}

// Config describes a simulation before validation.
type Config struct {
	Name        string
	Description string
	Token       *token.Token
	Options     *Options

	// Logger defaults to a discard logger.
	Logger *slog.Logger
	// Rand is the only source of randomness of the run. A randomly seeded
	// generator is used when nil.
	Rand *rand.Rand
	// Clock defaults to time.Now.
	Clock func() time.Time
	// Simulator defaults to a trading.BasicSimulator over the token rates.
	Simulator trading.Simulator
}

// New validates cfg and returns a pending simulation.
func New(cfg Config) (*Simulation, error) {
	if cfg.Name == "" {
		return nil, ErrMissingName
	}
	if cfg.Token == nil {
		return nil, ErrMissingToken
	}
	if cfg.Options == nil {
		return nil, ErrMissingOptions
	}

	s := &Simulation{
		ID:              uuid.New(),
		Name:            cfg.Name,
		Token:           cfg.Token,
		Description:     cfg.Description,
		Status:          models.SimulationStatusPending,
		Options:         cfg.Options,
		IntervalReports: []models.SimulationReport{},
		logger:          cfg.Logger,
		rng:             cfg.Rand,
		clock:           cfg.Clock,
		simulator:       cfg.Simulator,
	}
	s.CreatedAt = s.now()
	s.UpdatedAt = s.CreatedAt

	return s, nil
}

// NewRand returns a generator seeded from seed. A zero seed picks a random one.
func NewRand(seed uint64) *rand.Rand {
	if seed == 0 {
		return rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

func (s *Simulation) now() time.Time {
	if s.clock != nil {
		return s.clock()
	}
	return time.Now().UTC()
}

func (s *Simulation) log() *slog.Logger {
	if s.logger == nil {
		s.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return s.logger
}

func (s *Simulation) setStatus(status models.SimulationStatus) {
	s.Status = status
	s.UpdatedAt = s.now()
	s.log().Debug("simulation status changed", "id", s.ID, "status", status)
}

// Run executes every interval and builds the final report.
//
// A simulation runs once: any status other than pending returns ErrAlreadyRun.
// A numeric error aborts the run. The status then stays running and the
// interval reports committed so far are kept.
func (s *Simulation) Run() error {
	if s.Status != models.SimulationStatusPending {
		return fmt.Errorf("%w: status %s", ErrAlreadyRun, s.Status)
	}
	if s.rng == nil {
		s.rng = NewRand(0)
	}
	opts := s.Options
	precision := opts.DecimalPrecision

	s.setStatus(models.SimulationStatusRunning)

	users := s.launchPopulation()

	hours := opts.IntervalType.Hours()
	start := s.now()
	simulator := s.simulator
	if simulator == nil {
		simulator = trading.NewBasicSimulator(trading.Params{
			Precision:                precision,
			BurnRate:                 s.Token.BurnRate,
			InflationRate:            s.Token.InflationRate,
			TransactionFeePercentage: opts.TransactionFeePercentage,
		}, s.rng)
	}
	aggregator := report.NewAggregator(precision, opts.MarketVolatility, opts.TotalUsers, opts.Duration)

	for elapsed := uint64(0); elapsed < opts.Duration*hours; elapsed += hours {
		at := start.Add(time.Duration(elapsed) * time.Hour)
		if released := s.Token.ProcessUnlocks(at); released.IsPositive() {
			s.log().Debug("tokens unlocked", "id", s.ID, "amount", released)
		}

		count := s.adoptedCount(uint64(len(users)))
		users = population.Generate(s.rng, count, s.Token.InitialSupply(), s.Token.InitialPrice, precision)
		price := valuation.Evaluate(opts.ValuationModel, count, s.Token.InitialPrice)

		r, err := simulator.ProcessInterval(users, hours)
		if err != nil {
			return fmt.Errorf("interval %d: %w", len(s.IntervalReports), err)
		}
		aggregator.FinalizeInterval(r, users, hours)
		r.TokenPrice = price
		r.Interval = at.UnixMilli()

		s.IntervalReports = append(s.IntervalReports, *r)
		s.log().Debug("interval processed",
			"id", s.ID,
			"seq", len(s.IntervalReports)-1,
			"users", count,
			"trades", r.Trades,
			"token_price", r.TokenPrice,
		)
	}

	final := aggregator.Final(s.IntervalReports, users)
	s.Report = &final
	s.log().Debug("final report generated",
		"id", s.ID,
		"trades", final.Trades,
		"profit_loss", final.ProfitLoss,
	)

	s.setStatus(models.SimulationStatusCompleted)
	return nil
}

// launchPopulation applies the configured airdrop and spreads it evenly over
// the launch population.
func (s *Simulation) launchPopulation() []models.User {
	opts := s.Options
	precision := opts.DecimalPrecision

	airdropped := decimal.Zero
	if s.Token.AirdropPercentage != nil {
		airdropped = s.Token.Airdrop(*s.Token.AirdropPercentage)
	}

	users := population.Generate(s.rng, opts.TotalUsers, s.Token.InitialSupply(), s.Token.InitialPrice, precision)
	if len(users) == 0 || !airdropped.IsPositive() {
		return users
	}

	share := numeric.Round(airdropped.Div(decimal.NewFromInt(int64(len(users)))), precision)
	for i := range users {
		users[i].Balance = users[i].Balance.Add(share)
	}
	s.log().Debug("airdrop distributed", "id", s.ID, "amount", airdropped, "per_user", share)

	return users
}

func (s *Simulation) adoptedCount(current uint64) uint64 {
	if s.Options.AdoptionRate == nil {
		return current
	}
	grown := decimal.NewFromUint64(current).Mul(decimal.NewFromInt(1).Add(*s.Options.AdoptionRate))
	n := numeric.Round(grown, 0).IntPart()
	if n < 0 {
		return 0
	}
	return uint64(n)
}
