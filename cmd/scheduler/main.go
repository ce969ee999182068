// The scheduler runs every sync job in one long-lived process on fixed
// intervals, for deployments without an external cron or function platform.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/scorewise/scorewise/internal/app"
)

const (
	fixturesSchedule   = "@every 2h"
	oddsSchedule       = "@every 5m"
	liveScoresSchedule = "@every 1m"
	transitionSchedule = "@every 1m"
)

// job is the shared surface of the sync drivers.
type job interface {
	Run(ctx context.Context, requestID string) error
}

func main() {
	if err := run(); err != nil {
		slog.Error("scheduler failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", app.DefaultConfigPath(), "Path to config file (can be set via CONFIG_PATH env var)")
	runFor := flag.Duration("run-for", 0, "Auto-stop after duration (e.g. 1h). 0 = run until SIGINT/SIGTERM")
	flag.Parse()

	a, err := app.Bootstrap(*configPath, "scheduler")
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, cancel := createContext(*runFor)
	defer cancel()
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// A slow run must not stack on top of itself.
	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))

	schedule(ctx, c, "sync-fixtures", fixturesSchedule, a.FixturesJob())
	schedule(ctx, c, "sync-odds", oddsSchedule, a.OddsJob())
	schedule(ctx, c, "sync-live-scores", liveScoresSchedule, a.LiveScoresJob())
	schedule(ctx, c, "transition-events", transitionSchedule, a.TransitionJob())

	// Seed the card immediately instead of waiting two hours.
	runOnce(ctx, "sync-fixtures", a.FixturesJob())

	c.Start()
	slog.Info("scheduler started",
		"fixtures", fixturesSchedule, "odds", oddsSchedule,
		"live_scores", liveScoresSchedule, "transition", transitionSchedule)

	<-ctx.Done()
	slog.Info("shutting down, waiting for running jobs")
	<-c.Stop().Done()
	slog.Info("scheduler stopped gracefully")
	return nil
}

func schedule(ctx context.Context, c *cron.Cron, name, spec string, j job) {
	if _, err := c.AddFunc(spec, func() { runOnce(ctx, name, j) }); err != nil {
		// Specs are compile-time constants, a failure here is a programming error.
		panic(err)
	}
}

func runOnce(ctx context.Context, name string, j job) {
	if ctx.Err() != nil {
		return
	}
	if err := j.Run(ctx, app.RequestID()); err != nil {
		slog.Error("scheduled job failed", "job", name, "error", err)
	}
}

func createContext(runFor time.Duration) (context.Context, context.CancelFunc) {
	if runFor > 0 {
		return context.WithTimeout(context.Background(), runFor)
	}
	return context.WithCancel(context.Background())
}
