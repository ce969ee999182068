package proxy

import (
	"fmt"
	"testing"
	"time"
)

type fakeProvider struct {
	name string
	fail bool
}

func (p *fakeProvider) Name() string { return p.name }
func (p *fakeProvider) Proxy() (ProxyConfig, error) {
	if p.fail {
		return ProxyConfig{}, fmt.Errorf("%s unavailable", p.name)
	}
	return ProxyConfig{Server: "http://" + p.name + ":8080", Provider: p.name}, nil
}

func TestGetProxy_PriorityOrder(t *testing.T) {
	m := newManagerWithProviders(
		&fakeProvider{name: "cheap"},
		&fakeProvider{name: "expensive"},
	)

	cfg, err := m.GetProxy()
	if err != nil {
		t.Fatalf("GetProxy: %v", err)
	}
	if cfg.Provider != "cheap" {
		t.Errorf("got provider %q, want the cheapest tier first", cfg.Provider)
	}
}

func TestGetProxy_FailoverOnProviderError(t *testing.T) {
	m := newManagerWithProviders(
		&fakeProvider{name: "broken", fail: true},
		&fakeProvider{name: "working"},
	)

	cfg, err := m.GetProxy()
	if err != nil {
		t.Fatalf("GetProxy: %v", err)
	}
	if cfg.Provider != "working" {
		t.Errorf("got provider %q, want failover to working one", cfg.Provider)
	}
	if m.health["broken"].consecutive != 1 {
		t.Errorf("broken provider's consecutive failures = %d, want 1", m.health["broken"].consecutive)
	}
}

func TestMarkFailed_CooldownAfterThree(t *testing.T) {
	now := time.Date(2024, 11, 30, 12, 0, 0, 0, time.UTC)
	m := newManagerWithProviders(
		&fakeProvider{name: "flaky"},
		&fakeProvider{name: "backup"},
	)
	m.now = func() time.Time { return now }

	p := ProxyConfig{Provider: "flaky"}
	m.MarkFailed(p)
	m.MarkFailed(p)

	cfg, _ := m.GetProxy()
	if cfg.Provider != "flaky" {
		t.Fatalf("two failures must not cool the provider down, got %q", cfg.Provider)
	}

	m.MarkFailed(p)
	cfg, _ = m.GetProxy()
	if cfg.Provider != "backup" {
		t.Fatalf("after 3 consecutive failures GetProxy must skip to %q, got %q", "backup", cfg.Provider)
	}

	// Cooldown lasts 5 minutes.
	now = now.Add(4 * time.Minute)
	cfg, _ = m.GetProxy()
	if cfg.Provider != "backup" {
		t.Fatalf("provider must stay cooled at 4m, got %q", cfg.Provider)
	}

	now = now.Add(2 * time.Minute)
	cfg, _ = m.GetProxy()
	if cfg.Provider != "flaky" {
		t.Fatalf("cooldown elapsed, want %q back in rotation, got %q", "flaky", cfg.Provider)
	}
}

func TestMarkSuccess_ClearsConsecutive(t *testing.T) {
	m := newManagerWithProviders(&fakeProvider{name: "p"})
	p := ProxyConfig{Provider: "p"}

	m.MarkFailed(p)
	m.MarkFailed(p)
	m.MarkSuccess(p)

	if got := m.health["p"].consecutive; got != 0 {
		t.Errorf("consecutive after success = %d, want 0", got)
	}
	if !m.health["p"].cooldownUntil.IsZero() {
		t.Error("success must clear cooldown")
	}
}

func TestGetProxy_AllCoolingFallsBackToEarliest(t *testing.T) {
	now := time.Date(2024, 11, 30, 12, 0, 0, 0, time.UTC)
	m := newManagerWithProviders(
		&fakeProvider{name: "a"},
		&fakeProvider{name: "b"},
	)
	m.now = func() time.Time { return now }

	m.health["a"] = &providerHealth{consecutive: 3, cooldownUntil: now.Add(2 * time.Minute)}
	m.health["b"] = &providerHealth{consecutive: 3, cooldownUntil: now.Add(4 * time.Minute)}

	cfg, err := m.GetProxy()
	if err != nil {
		t.Fatalf("GetProxy: %v", err)
	}
	if cfg.Provider != "a" {
		t.Errorf("degraded mode must reuse the earliest-expiring provider, got %q", cfg.Provider)
	}
}

func TestParseStaticList(t *testing.T) {
	entries := parseStaticList("http://1.2.3.4:8080|user|pass, http://5.6.7.8:8080")
	if len(entries) != 2 {
		t.Fatalf("parsed %d entries, want 2", len(entries))
	}
	if entries[0].Username != "user" || entries[0].Password != "pass" {
		t.Errorf("credentials not parsed: %+v", entries[0])
	}
	if entries[1].Username != "" {
		t.Errorf("bare entry should have no credentials: %+v", entries[1])
	}
}

func TestSessionIDsRotate(t *testing.T) {
	p := &oxylabs{username: "u", password: "p", country: "gb"}
	a, _ := p.Proxy()
	b, _ := p.Proxy()
	if a.Username == b.Username {
		t.Error("successive proxies must carry different session IDs")
	}
}
