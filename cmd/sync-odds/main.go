package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/scorewise/scorewise/internal/app"
)

func main() {
	if err := run(); err != nil {
		slog.Error("sync-odds failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", app.DefaultConfigPath(), "Path to config file (can be set via CONFIG_PATH env var)")
	timeout := flag.Duration("timeout", 15*time.Minute, "Hard deadline for the run")
	flag.Parse()

	a, err := app.Bootstrap(*configPath, "sync-odds")
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return a.OddsJob().Run(ctx, app.RequestID())
}
