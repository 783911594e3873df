package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/report-generator/internal/app"
)

func newCredentialCmd(g *globals) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "credential",
		Short: "Manage the stored Gemini API key",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "set <api-key>",
			Short: "Store the API key",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				if strings.TrimSpace(args[0]) == "" {
					return fmt.Errorf("api key is empty")
				}
				a, err := app.Build(cmd.Context(), g.cfg, g.logger)
				if err != nil {
					return err
				}
				defer a.Close()
				return a.Credentials.Set(cmd.Context(), args[0])
			},
		},
		&cobra.Command{
			Use:   "get",
			Short: "Show the stored API key, masked",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				a, err := app.Build(cmd.Context(), g.cfg, g.logger)
				if err != nil {
					return err
				}
				defer a.Close()
				v, err := a.Credentials.Get(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), mask(v))
				return nil
			},
		},
		&cobra.Command{
			Use:   "clear",
			Short: "Remove the stored API key",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				a, err := app.Build(cmd.Context(), g.cfg, g.logger)
				if err != nil {
					return err
				}
				defer a.Close()
				return a.Credentials.Clear(cmd.Context())
			},
		},
	)
	return cmd
}

// mask keeps the first four characters of a key.
func mask(v string) string {
	if v == "" {
		return "(not set)"
	}
	if len(v) <= 4 {
		return strings.Repeat("*", len(v))
	}
	return v[:4] + strings.Repeat("*", len(v)-4)
}
