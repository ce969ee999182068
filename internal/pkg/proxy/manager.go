package proxy

import (
	"fmt"
	"log/slog"
	"sync"
	"time"
)

const (
	// maxConsecutiveFailures on one provider before it is cooled down.
	maxConsecutiveFailures = 3
	providerCooldown       = 5 * time.Minute
)

// Config carries provider credentials, usually filled from the environment.
// Providers with empty credentials are simply not constructed.
type Config struct {
	DataImpulseUsername string `env:"DATAIMPULSE_USERNAME"`
	DataImpulsePassword string `env:"DATAIMPULSE_PASSWORD"`
	IPRoyalUsername     string `env:"IPROYAL_USERNAME"`
	IPRoyalPassword     string `env:"IPROYAL_PASSWORD"`
	PacketStreamAPIKey  string `env:"PACKETSTREAM_API_KEY"`
	ScraperAPIKey       string `env:"SCRAPERAPI_KEY"`
	ScraperAPILimit     int    `env:"SCRAPERAPI_LIMIT"`
	SmartproxyUsername  string `env:"SMARTPROXY_USERNAME"`
	SmartproxyPassword  string `env:"SMARTPROXY_PASSWORD"`
	OxylabsUsername     string `env:"OXYLABS_USERNAME"`
	OxylabsPassword     string `env:"OXYLABS_PASSWORD"`
	BrightDataUsername  string `env:"BRIGHTDATA_USERNAME"`
	BrightDataPassword  string `env:"BRIGHTDATA_PASSWORD"`
	ProxyList           string `env:"PROXY_LIST"`
	Country             string `env:"PROXY_COUNTRY" envDefault:"gb"`
}

type providerHealth struct {
	successes     int
	failures      int
	consecutive   int
	cooldownUntil time.Time
}

// Manager selects proxies from tiered providers in strict priority order
// (cheapest first) with per-provider health and automatic failover.
type Manager struct {
	mu        sync.Mutex
	providers []Provider
	health    map[string]*providerHealth
	now       func() time.Time
}

// NewManager builds the provider chain from whatever credentials are
// configured, cheapest tier first.
func NewManager(cfg Config) *Manager {
	country := cfg.Country
	if country == "" {
		country = "gb"
	}

	var providers []Provider
	if cfg.DataImpulseUsername != "" && cfg.DataImpulsePassword != "" {
		providers = append(providers, &dataImpulse{username: cfg.DataImpulseUsername, password: cfg.DataImpulsePassword, country: country})
	}
	if cfg.IPRoyalUsername != "" && cfg.IPRoyalPassword != "" {
		providers = append(providers, &ipRoyal{username: cfg.IPRoyalUsername, password: cfg.IPRoyalPassword, country: country})
	}
	if cfg.PacketStreamAPIKey != "" {
		providers = append(providers, &packetStream{apiKey: cfg.PacketStreamAPIKey, country: country})
	}
	if cfg.ScraperAPIKey != "" {
		providers = append(providers, &scraperAPI{apiKey: cfg.ScraperAPIKey, country: country, limit: cfg.ScraperAPILimit})
	}
	if cfg.SmartproxyUsername != "" && cfg.SmartproxyPassword != "" {
		providers = append(providers, &smartproxy{username: cfg.SmartproxyUsername, password: cfg.SmartproxyPassword, country: country})
	}
	if cfg.OxylabsUsername != "" && cfg.OxylabsPassword != "" {
		providers = append(providers, &oxylabs{username: cfg.OxylabsUsername, password: cfg.OxylabsPassword, country: country})
	}
	if cfg.BrightDataUsername != "" && cfg.BrightDataPassword != "" {
		providers = append(providers, &brightData{username: cfg.BrightDataUsername, password: cfg.BrightDataPassword, country: country})
	}
	if entries := parseStaticList(cfg.ProxyList); len(entries) > 0 {
		providers = append(providers, &staticList{entries: entries})
	}

	m := &Manager{
		providers: providers,
		health:    make(map[string]*providerHealth),
		now:       time.Now,
	}
	if len(providers) > 0 {
		names := make([]string, 0, len(providers))
		for _, p := range providers {
			names = append(names, p.Name())
		}
		slog.Info("proxy manager initialized", "providers", names)
	}
	return m
}

// newManagerWithProviders is the test seam for injecting fake providers.
func newManagerWithProviders(providers ...Provider) *Manager {
	return &Manager{
		providers: providers,
		health:    make(map[string]*providerHealth),
		now:       time.Now,
	}
}

// Available reports whether any provider is configured at all.
func (m *Manager) Available() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.providers) > 0
}

// GetProxy returns a proxy from the highest-priority provider not in
// cooldown. When every provider is cooling down, the one whose cooldown
// expires earliest is cleared and used (degraded-mode fallback).
func (m *Manager) GetProxy() (ProxyConfig, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.providers) == 0 {
		return ProxyConfig{}, fmt.Errorf("no proxy providers configured")
	}

	candidates := m.activeProvidersLocked()
	if len(candidates) == 0 {
		earliest := m.clearEarliestCooldownLocked()
		candidates = []Provider{earliest}
		slog.Warn("all proxy providers cooling down, reusing earliest", "provider", earliest.Name())
	}

	var lastErr error
	for _, p := range candidates {
		cfg, err := p.Proxy()
		if err != nil {
			lastErr = err
			m.recordFailureLocked(p.Name())
			continue
		}
		return cfg, nil
	}
	return ProxyConfig{}, fmt.Errorf("all proxy providers failed: %w", lastErr)
}

// MarkSuccess records a successful request through the proxy: the provider's
// consecutive-failure counter is zeroed and any cooldown cleared.
func (m *Manager) MarkSuccess(p ProxyConfig) {
	m.mu.Lock()
	defer m.mu.Unlock()
	h := m.healthLocked(p.Provider)
	h.successes++
	h.consecutive = 0
	h.cooldownUntil = time.Time{}
}

// MarkFailed records a failed request through the proxy.
func (m *Manager) MarkFailed(p ProxyConfig) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.recordFailureLocked(p.Provider)
}

func (m *Manager) recordFailureLocked(provider string) {
	h := m.healthLocked(provider)
	h.failures++
	h.consecutive++
	if h.consecutive >= maxConsecutiveFailures {
		h.cooldownUntil = m.now().Add(providerCooldown)
		slog.Warn("proxy provider cooling down",
			"provider", provider, "consecutive_failures", h.consecutive, "until", h.cooldownUntil)
	}
}

func (m *Manager) activeProvidersLocked() []Provider {
	var out []Provider
	for _, p := range m.providers {
		h := m.healthLocked(p.Name())
		if h.cooldownUntil.IsZero() || !m.now().Before(h.cooldownUntil) {
			out = append(out, p)
		}
	}
	return out
}

func (m *Manager) clearEarliestCooldownLocked() Provider {
	var best Provider
	var bestUntil time.Time
	for _, p := range m.providers {
		h := m.healthLocked(p.Name())
		if best == nil || h.cooldownUntil.Before(bestUntil) {
			best = p
			bestUntil = h.cooldownUntil
		}
	}
	m.healthLocked(best.Name()).cooldownUntil = time.Time{}
	return best
}

func (m *Manager) healthLocked(provider string) *providerHealth {
	h, ok := m.health[provider]
	if !ok {
		h = &providerHealth{}
		m.health[provider] = h
	}
	return h
}
