package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/songzhibin97/tokensim/internal/api"
	"github.com/songzhibin97/tokensim/internal/data"
	"github.com/songzhibin97/tokensim/internal/data/storage"
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the simulation HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
				a.config.Server.Addr = addr
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			var store data.SimulationStorage = storage.NewMemoryStorage()
			pg, err := a.storage(ctx)
			if err != nil {
				return err
			}
			if pg != nil {
				defer pg.Close()
				store = pg
			}

			analyzer, err := a.analyzer()
			if err != nil {
				return err
			}

			server := api.NewServer(api.Config{
				Addr:      a.config.Server.Addr,
				Storage:   store,
				Validator: a.validator(),
				Metrics:   a.metrics,
				Analyzer:  analyzer,
				Logger:    a.log,
			})
			a.log.Info("starting api server", "addr", a.config.Server.Addr)
			return server.ListenAndServe(ctx)
		},
	}
	cmd.Flags().String("addr", "", "listen address, overrides server.addr")
	return cmd
}
