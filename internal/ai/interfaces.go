package ai

import (
	"context"

	"github.com/songzhibin97/tokensim/internal/engine"
)

// Analyzer defines methods for narrating simulation results
type Analyzer interface {
	// SummarizeSimulation explains the final report of a completed simulation
	SummarizeSimulation(ctx context.Context, sim *engine.Simulation) (*Summary, error)
}

// Summary 模拟结果解读
type Summary struct {
	Summary         string   `json:"summary"`
	Risks           []string `json:"risks"`
	Recommendations []string `json:"recommendations"`
}
