package main

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/report-generator/internal/app"
)

func newServeCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and gRPC health endpoint",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			boot, err := app.NewBootLogger(g.cfg.Log)
			if err != nil {
				return err
			}
			defer boot.Sync()

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			a, err := app.Build(ctx, g.cfg, g.logger)
			if err != nil {
				return err
			}
			defer a.Close()
			return app.Serve(ctx, a, boot)
		},
	}
}
