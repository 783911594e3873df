package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/joseph-ayodele/report-generator/internal/app"
	"github.com/joseph-ayodele/report-generator/internal/common"
)

func main() {
	cfg, err := common.LoadConfig()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(2)
	}

	boot, err := app.NewBootLogger(cfg.Log)
	if err != nil {
		fmt.Fprintln(os.Stderr, "logger:", err)
		os.Exit(2)
	}
	defer boot.Sync()

	logger := app.NewLogger(cfg.Log, os.Stdout)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.Build(ctx, cfg, logger)
	if err != nil {
		boot.Fatal("startup failed", zap.Error(err))
	}
	err = app.Serve(ctx, a, boot)
	if cerr := a.Close(); cerr != nil {
		boot.Warn("close failed", zap.Error(cerr))
	}
	if err != nil {
		boot.Error("serve", zap.Error(err))
		_ = boot.Sync()
		os.Exit(1)
	}
}
