package config

import (
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"github.com/scorewise/scorewise/internal/pkg/proxy"
)

// Config is the full engine configuration. The YAML file carries deployment
// shape (sources, intervals, thresholds); the environment overlays secrets
// and platform settings on top.
type Config struct {
	Postgres PostgresConfig `yaml:"postgres"`
	Scraper  ScraperConfig  `yaml:"scraper"`
	Queue    QueueConfig    `yaml:"queue"`
	Alerts   AlertsConfig   `yaml:"alerts"`
	Logging  LoggingConfig  `yaml:"logging"`

	// Env-only sections.
	Proxy   proxy.Config  `yaml:"-"`
	Captcha CaptchaConfig `yaml:"-"`
}

type PostgresConfig struct {
	DSN string `yaml:"dsn" env:"DATABASE_URL"`
}

type ScraperConfig struct {
	UserAgent      string        `yaml:"user_agent"`
	Timeout        time.Duration `yaml:"timeout"`         // JSON API deadline
	BrowserTimeout time.Duration `yaml:"browser_timeout"` // JS-heavy page deadline
	SourceTimeout  time.Duration `yaml:"source_timeout"`  // hard cap per source attempt

	// EnabledSources restricts the registry; empty means all registered.
	EnabledSources []string `yaml:"enabled_sources"`

	// Sports to sync, by slug.
	Sports []string `yaml:"sports"`

	// FixtureDays is how far ahead sync-fixtures looks.
	FixtureDays int `yaml:"fixture_days"`

	// MinFixturesPerSport is the floor under which the fixtures
	// orchestrator falls back to the secondary source.
	MinFixturesPerSport map[string]int `yaml:"min_fixtures_per_sport"`
}

type QueueConfig struct {
	Brokers         string `yaml:"brokers" env:"SETTLEMENT_QUEUE_URL"`
	SettlementTopic string `yaml:"settlement_topic" env:"SETTLEMENT_QUEUE_TOPIC" envDefault:"event-settlement"`
	Enabled         bool   `yaml:"enabled" env:"SETTLEMENT_QUEUE_ENABLED"`
}

type AlertsConfig struct {
	TelegramBotToken string `yaml:"telegram_bot_token" env:"TELEGRAM_BOT_TOKEN"`
	TelegramChatID   int64  `yaml:"telegram_chat_id" env:"TELEGRAM_CHAT_ID"`
}

type LoggingConfig struct {
	Level string `yaml:"level" env:"LOG_LEVEL" envDefault:"INFO"`
}

type CaptchaConfig struct {
	Enabled          bool   `env:"CAPTCHA_ENABLED"`
	TwoCaptchaKey    string `env:"TWOCAPTCHA_API_KEY"`
	AntiCaptchaKey   string `env:"ANTICAPTCHA_API_KEY"`
	CapMonsterAPIKey string `env:"CAPMONSTER_API_KEY"`
}

// Load reads the YAML file (when path is non-empty), then overlays
// environment variables. Defaults are applied last.
func Load(configPath string) (*Config, error) {
	var cfg Config

	if configPath != "" {
		data, err := os.ReadFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}
	if err := env.Parse(&cfg.Proxy); err != nil {
		return nil, fmt.Errorf("failed to parse proxy environment: %w", err)
	}
	if err := env.Parse(&cfg.Captcha); err != nil {
		return nil, fmt.Errorf("failed to parse captcha environment: %w", err)
	}

	cfg.applyDefaults()
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Scraper.UserAgent == "" {
		c.Scraper.UserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/142.0.0.0 Safari/537.36"
	}
	if c.Scraper.Timeout <= 0 {
		c.Scraper.Timeout = 15 * time.Second
	}
	if c.Scraper.BrowserTimeout <= 0 {
		c.Scraper.BrowserTimeout = 60 * time.Second
	}
	if c.Scraper.SourceTimeout <= 0 {
		c.Scraper.SourceTimeout = 2 * time.Minute
	}
	if c.Scraper.FixtureDays <= 0 {
		c.Scraper.FixtureDays = 7
	}
	if len(c.Scraper.Sports) == 0 {
		c.Scraper.Sports = []string{"football"}
	}
	if c.Scraper.MinFixturesPerSport == nil {
		c.Scraper.MinFixturesPerSport = map[string]int{
			"football":   20,
			"basketball": 10,
			"tennis":     3,
		}
	}
}
