// Applies database migrations from the migrations/ directory.
package main

import (
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/joho/godotenv"

	"github.com/scorewise/scorewise/internal/app"
	"github.com/scorewise/scorewise/internal/pkg/config"
	"github.com/scorewise/scorewise/internal/pkg/logging"
)

func main() {
	if err := run(); err != nil {
		slog.Error("migrate failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", app.DefaultConfigPath(), "Path to config file (can be set via CONFIG_PATH env var)")
	dir := flag.String("dir", "migrations", "Directory holding the migration files")
	down := flag.Bool("down", false, "Roll back one migration instead of applying all pending ones")
	flag.Parse()

	_ = godotenv.Load()
	cfg, err := config.Load(*configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logging.Setup(cfg.Logging.Level, "migrate", "")

	m, err := migrate.New("file://"+*dir, cfg.Postgres.DSN)
	if err != nil {
		return fmt.Errorf("create migrator: %w", err)
	}
	defer m.Close()

	if *down {
		err = m.Steps(-1)
	} else {
		err = m.Up()
	}
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("apply migrations: %w", err)
	}

	version, dirty, verr := m.Version()
	if verr != nil && !errors.Is(verr, migrate.ErrNilVersion) {
		return fmt.Errorf("read migration version: %w", verr)
	}
	slog.Info("migrations applied", "version", version, "dirty", dirty)
	return nil
}
