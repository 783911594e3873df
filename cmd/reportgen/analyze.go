package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/report-generator/internal/app"
	"github.com/joseph-ayodele/report-generator/internal/common"
	"github.com/joseph-ayodele/report-generator/internal/export"
	"github.com/joseph-ayodele/report-generator/internal/ingest"
	"github.com/joseph-ayodele/report-generator/internal/session"
)

type analyzeFlags struct {
	customer     string
	outDir       string
	apiKey       string
	xlsx         bool
	saveJSON     bool
	skipHidden   bool
	maxFileBytes int64
}

func newAnalyzeCmd(g *globals) *cobra.Command {
	f := &analyzeFlags{}
	cmd := &cobra.Command{
		Use:   "analyze [file or dir...]",
		Short: "Extract a report from local files and write the deck",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAnalyze(cmd, g, f, args)
		},
	}
	cmd.Flags().StringVar(&f.customer, "customer", "", "customer name shown on the cover")
	cmd.Flags().StringVarP(&f.outDir, "out", "o", ".", "output directory")
	cmd.Flags().StringVar(&f.apiKey, "api-key", "", "Gemini API key for this run (stored in the configured credential backend)")
	cmd.Flags().BoolVar(&f.xlsx, "xlsx", false, "also write the report as a workbook")
	cmd.Flags().BoolVar(&f.saveJSON, "json", false, "also write the extracted report JSON")
	cmd.Flags().BoolVar(&f.skipHidden, "skip-hidden", true, "ignore dotfiles and files in hidden directories")
	cmd.Flags().Int64Var(&f.maxFileBytes, "max-file-bytes", 0, "skip files larger than this; 0 means no limit")
	_ = cmd.MarkFlagRequired("customer")
	return cmd
}

func runAnalyze(cmd *cobra.Command, g *globals, f *analyzeFlags, paths []string) error {
	if err := common.ValidateCustomerName(f.customer); err != nil {
		return err
	}
	ctx := cmd.Context()
	loaded, err := ingest.LoadPaths(ctx, paths, ingest.Options{
		SkipHidden:   f.skipHidden,
		MaxFileBytes: f.maxFileBytes,
		Logger:       g.logger,
	})
	if err != nil {
		return err
	}
	for _, s := range loaded.Skipped {
		fmt.Fprintf(cmd.ErrOrStderr(), "skipped %s: %s\n", s.Path, s.Reason)
	}

	a, err := app.Build(ctx, g.cfg, g.logger)
	if err != nil {
		return err
	}
	defer a.Close()

	ctrl := a.Controller
	if f.apiKey != "" {
		if err := ctrl.SaveCredential(ctx, f.apiKey); err != nil {
			return err
		}
	}
	if err := ctrl.AddFiles(loaded.Files...); err != nil {
		return err
	}
	ctrl.SetCustomerName(f.customer)
	if err := ctrl.Analyze(ctx); err != nil {
		snap := ctrl.Snapshot()
		if snap.Error != "" {
			return fmt.Errorf("%s", snap.Error)
		}
		return fmt.Errorf("%s", session.Message(err))
	}
	for _, w := range ctrl.Snapshot().Warnings {
		fmt.Fprintf(cmd.ErrOrStderr(), "warning: %s\n", w)
	}

	if err := os.MkdirAll(f.outDir, 0o755); err != nil {
		return err
	}
	art, err := ctrl.Download(ctx)
	if err != nil {
		return err
	}
	if err := writeOut(cmd, filepath.Join(f.outDir, art.Name), art.Data); err != nil {
		return err
	}

	data, customer, err := ctrl.Report()
	if err != nil {
		return err
	}
	if f.xlsx {
		b, err := a.Exporter.ReportXLSX(ctx, data, customer)
		if err != nil {
			return err
		}
		if err := writeOut(cmd, filepath.Join(f.outDir, export.FileName(customer)), b); err != nil {
			return err
		}
	}
	if f.saveJSON {
		b, err := json.MarshalIndent(data, "", "  ")
		if err != nil {
			return err
		}
		if err := writeOut(cmd, filepath.Join(f.outDir, customer+"_Report.json"), b); err != nil {
			return err
		}
	}
	return nil
}

func writeOut(cmd *cobra.Command, path string, data []byte) error {
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), path)
	return nil
}
