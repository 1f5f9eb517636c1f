package main

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/songzhibin97/tokensim/internal/ai"
	"github.com/songzhibin97/tokensim/internal/engine"
)

func newRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run the configured simulation once and print its report",
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")
			ctx := cmd.Context()

			a, err := newApp(cmd)
			if err != nil {
				return err
			}

			sim, err := a.buildSimulation(ctx)
			if err != nil {
				return err
			}

			start := time.Now()
			runErr := sim.Run()
			a.metrics.ObserveSimulation(sim, time.Since(start), runErr)
			if runErr != nil {
				return fmt.Errorf("run simulation: %w", runErr)
			}
			a.log.Info("simulation completed", "id", sim.ID, "intervals", len(sim.IntervalReports), "elapsed", time.Since(start))

			store, err := a.storage(ctx)
			if err != nil {
				return err
			}
			if store != nil {
				defer store.Close()
				if err := store.SaveSimulation(ctx, sim); err != nil {
					return err
				}
				if err := store.SaveIntervalReports(ctx, sim); err != nil {
					return err
				}
				a.log.Info("simulation saved", "id", sim.ID)
			}

			var summary *ai.Summary
			analyzer, err := a.analyzer()
			if err != nil {
				return err
			}
			if analyzer != nil {
				summary, err = analyzer.SummarizeSimulation(ctx, sim)
				if err != nil {
					// 解读失败不影响模拟结果
					a.log.Warn("summarize simulation failed", "error", err)
				}
			}

			out := cmd.OutOrStdout()
			if jsonOut {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(runOutput{Simulation: sim, Summary: summary})
			}
			printReport(out, sim, summary)
			return nil
		},
	}
}

type runOutput struct {
	Simulation *engine.Simulation `json:"simulation"`
	Summary    *ai.Summary        `json:"summary,omitempty"`
}

func printReport(w io.Writer, sim *engine.Simulation, summary *ai.Summary) {
	r := sim.Report
	fmt.Fprintf(w, "Simulation %s (%s)\n", sim.Name, sim.ID)
	fmt.Fprintf(w, "  token:            %s (%s)\n", sim.Token.Name, sim.Token.Symbol)
	fmt.Fprintf(w, "  intervals:        %d x %s\n", len(sim.IntervalReports), sim.Options.IntervalType)
	if r == nil {
		return
	}
	fmt.Fprintf(w, "  trades:           %d (%d ok, %d failed)\n", r.Trades, r.SuccessfulTrades, r.FailedTrades)
	fmt.Fprintf(w, "  profit/loss:      %s\n", r.ProfitLoss)
	fmt.Fprintf(w, "  token price:      %s\n", r.TokenPrice)
	fmt.Fprintf(w, "  liquidity:        %s\n", r.Liquidity)
	fmt.Fprintf(w, "  adoption rate:    %s\n", r.AdoptionRate)
	fmt.Fprintf(w, "  user retention:   %s\n", r.UserRetention)
	fmt.Fprintf(w, "  burn rate:        %s\n", r.BurnRate)
	fmt.Fprintf(w, "  inflation rate:   %s\n", r.InflationRate)
	fmt.Fprintf(w, "  total burned:     %s\n", r.TotalBurned)
	fmt.Fprintf(w, "  total new tokens: %s\n", r.TotalNewTokens)
	fmt.Fprintf(w, "  network activity: %d\n", r.NetworkActivity)

	if summary == nil {
		return
	}
	fmt.Fprintf(w, "\n%s\n", summary.Summary)
	for _, risk := range summary.Risks {
		fmt.Fprintf(w, "  - risk: %s\n", risk)
	}
	for _, rec := range summary.Recommendations {
		fmt.Fprintf(w, "  - recommendation: %s\n", rec)
	}
}
