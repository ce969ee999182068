// Package app wires the process-wide dependency graph shared by every
// entrypoint: config, logging, storage, alerting, proxies and the source
// provider.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"github.com/scorewise/scorewise/internal/jobs"
	"github.com/scorewise/scorewise/internal/notify"
	"github.com/scorewise/scorewise/internal/pkg/config"
	"github.com/scorewise/scorewise/internal/pkg/dedup"
	"github.com/scorewise/scorewise/internal/pkg/logging"
	"github.com/scorewise/scorewise/internal/pkg/models"
	"github.com/scorewise/scorewise/internal/pkg/proxy"
	"github.com/scorewise/scorewise/internal/pkg/queue"
	"github.com/scorewise/scorewise/internal/pkg/runtrack"
	"github.com/scorewise/scorewise/internal/pkg/sourcehealth"
	"github.com/scorewise/scorewise/internal/pkg/storage"
	"github.com/scorewise/scorewise/internal/pkg/teams"
	"github.com/scorewise/scorewise/internal/scraper/orchestrator"

	// Register all scraping sources via init().
	_ "github.com/scorewise/scorewise/internal/scraper/sources/all"
)

const defaultConfigPath = "configs/production.yaml"

// DefaultConfigPath resolves the config file location, preferring the
// CONFIG_PATH environment variable.
func DefaultConfigPath() string {
	if p := os.Getenv("CONFIG_PATH"); p != "" {
		return p
	}
	return defaultConfigPath
}

// RequestID returns the platform-assigned invocation ID, or a fresh UUID for
// local runs.
func RequestID() string {
	if id := os.Getenv("REQUEST_ID"); id != "" {
		return id
	}
	return uuid.NewString()
}

// App owns every long-lived component. Build one per process with Bootstrap
// and tear it down with Close.
type App struct {
	Config   *config.Config
	Store    *storage.Store
	Tracker  *runtrack.Tracker
	Health   *sourcehealth.Tracker
	Provider *orchestrator.Provider
	Queue    *queue.SettlementProducer

	notifier *notify.TelegramNotifier
}

// Bootstrap loads configuration, sets up logging for the named service and
// constructs the shared components. A missing .env file is not an error.
func Bootstrap(configPath, service string) (*App, error) {
	_ = godotenv.Load()

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	logging.Setup(cfg.Logging.Level, service, "")

	store, err := storage.New(&cfg.Postgres)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}

	notifier := notify.NewTelegramNotifier(cfg.Alerts.TelegramBotToken, cfg.Alerts.TelegramChatID)

	tracker := runtrack.New(store)
	tracker.SetAlertSink(notifier.Notify)

	health := sourcehealth.NewTracker(func(alert models.ScraperAlert) {
		if err := store.InsertAlert(context.Background(), &alert); err != nil {
			slog.Error("failed to persist source alert", "type", alert.AlertType, "error", err)
		}
		notifier.Notify(alert)
	})

	proxies := proxy.NewManager(cfg.Proxy)

	return &App{
		Config:   cfg,
		Store:    store,
		Tracker:  tracker,
		Health:   health,
		Provider: orchestrator.NewProvider(cfg, proxies),
		Queue:    queue.NewSettlementProducer(cfg.Queue),
		notifier: notifier,
	}, nil
}

// Close releases everything Bootstrap opened, draining the alert queue last
// so shutdown alerts still go out.
func (a *App) Close() {
	a.Provider.Close()
	if err := a.Queue.Close(); err != nil {
		slog.Error("failed to close settlement producer", "error", err)
	}
	if err := a.Store.Close(); err != nil {
		slog.Error("failed to close postgres", "error", err)
	}
	a.notifier.Stop()
}

func (a *App) handles() []orchestrator.SourceHandle {
	return a.Provider.Handles(a.Config.Scraper.EnabledSources)
}

// sourceOrder lists resolved source names in configured priority order.
func (a *App) sourceOrder() []string {
	handles := a.handles()
	names := make([]string, 0, len(handles))
	for _, h := range handles {
		names = append(names, h.Info.Name)
	}
	return names
}

// LiveScoresJob assembles the live-scores driver.
func (a *App) LiveScoresJob() *jobs.SyncLiveScores {
	collector := orchestrator.NewLive(a.Health, a.handles(), a.Config.Scraper.SourceTimeout)
	return jobs.NewSyncLiveScores(a.Store, collector, a.Queue, a.Tracker, a.Config.Scraper.Sports)
}

// OddsJob assembles the odds driver.
func (a *App) OddsJob() *jobs.SyncOdds {
	collector := orchestrator.NewOdds(a.Health, a.handles(), a.Config.Scraper.SourceTimeout)
	return jobs.NewSyncOdds(a.Store, collector, a.Tracker, a.Config.Scraper.Sports, a.sourceOrder())
}

// FixturesJob assembles the fixtures driver.
func (a *App) FixturesJob() *jobs.SyncFixtures {
	collector := orchestrator.NewFixtures(a.Health, a.handles(), a.Config.Scraper.SourceTimeout,
		a.Config.Scraper.FixtureDays, a.Config.Scraper.MinFixturesPerSport)
	folder := dedup.New(a.Store, teams.NewResolver(a.Store))
	return jobs.NewSyncFixtures(folder, collector, a.Tracker, a.Config.Scraper.Sports)
}

// TransitionJob assembles the scheduled-to-live transition driver.
func (a *App) TransitionJob() *jobs.TransitionEvents {
	return jobs.NewTransitionEvents(a.Store, a.Tracker)
}
