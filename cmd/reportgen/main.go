// Command reportgen builds marketing report decks from analytics exports.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/report-generator/internal/app"
	"github.com/joseph-ayodele/report-generator/internal/common"
)

type globals struct {
	cfg      *common.Config
	logger   *slog.Logger
	logLevel string
}

func newRootCmd() *cobra.Command {
	g := &globals{}
	root := &cobra.Command{
		Use:           "reportgen",
		Short:         "Generate customer marketing report decks",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := common.LoadConfig()
			if err != nil {
				return err
			}
			if g.logLevel != "" {
				cfg.Log.Level = g.logLevel
			}
			g.cfg = cfg
			g.logger = app.NewLogger(cfg.Log, cmd.ErrOrStderr())
			slog.SetDefault(g.logger)
			return nil
		},
	}
	root.PersistentFlags().StringVar(&g.logLevel, "log-level", "", "override log.level (debug, info, warn, error)")

	root.AddCommand(
		newAnalyzeCmd(g),
		newRenderCmd(g),
		newCredentialCmd(g),
		newServeCmd(g),
	)
	return root
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
