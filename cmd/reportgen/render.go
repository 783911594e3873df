package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/report-generator/internal/common"
	"github.com/joseph-ayodele/report-generator/internal/llm"
	"github.com/joseph-ayodele/report-generator/internal/render"
)

// newRenderCmd re-renders a deck from report JSON saved by analyze --json.
func newRenderCmd(g *globals) *cobra.Command {
	var customer, in, outDir string
	cmd := &cobra.Command{
		Use:   "render",
		Short: "Render a deck from saved report JSON without calling the model",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := common.ValidateCustomerName(customer); err != nil {
				return err
			}
			raw, err := os.ReadFile(in)
			if err != nil {
				return err
			}
			data, err := llm.ParseReport(llm.ReportValidator(), raw)
			if err != nil {
				return fmt.Errorf("%s: %w", in, err)
			}
			b, err := render.New(g.logger).Render(cmd.Context(), data, customer)
			if err != nil {
				return err
			}
			if err := os.MkdirAll(outDir, 0o755); err != nil {
				return err
			}
			return writeOut(cmd, filepath.Join(outDir, render.FileName(customer)), b)
		},
	}
	cmd.Flags().StringVar(&customer, "customer", "", "customer name shown on the cover")
	cmd.Flags().StringVar(&in, "in", "", "report JSON file")
	cmd.Flags().StringVarP(&outDir, "out", "o", ".", "output directory")
	_ = cmd.MarkFlagRequired("customer")
	_ = cmd.MarkFlagRequired("in")
	return cmd
}
