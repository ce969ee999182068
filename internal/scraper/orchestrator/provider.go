package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/scorewise/scorewise/internal/pkg/browser"
	"github.com/scorewise/scorewise/internal/pkg/config"
	"github.com/scorewise/scorewise/internal/pkg/httpx"
	"github.com/scorewise/scorewise/internal/pkg/proxy"
	"github.com/scorewise/scorewise/internal/scraper/sources"
)

// ErrNoProxy means a source declared RequiresProxy but no provider is
// configured. The orchestrators skip such sources instead of failing the run.
var ErrNoProxy = errors.New("no proxy provider available")

// Release reports the outcome of one source attempt back to the proxy
// manager. Always call it, with the attempt's error or nil.
type Release func(err error)

// SourceHandle pairs a registered source with a builder that satisfies its
// proxy and browser requirements on demand.
type SourceHandle struct {
	Info  sources.Info
	Build func() (sources.Source, Release, error)
}

// Provider turns registry entries into ready sources: it owns the direct
// HTTP client, hands proxied clients to sources that need them, and launches
// headless browsers lazily (one per proxy endpoint).
type Provider struct {
	cfg     *config.Config
	proxies *proxy.Manager
	direct  *httpx.Client

	mu       sync.Mutex
	browsers map[string]*browser.Browser // keyed by proxy server, "" = direct
}

func NewProvider(cfg *config.Config, proxies *proxy.Manager) *Provider {
	return &Provider{
		cfg:      cfg,
		proxies:  proxies,
		direct:   httpx.NewClient(cfg.Scraper.Timeout, httpx.WithUserAgent(cfg.Scraper.UserAgent)),
		browsers: make(map[string]*browser.Browser),
	}
}

// Close tears down every browser the provider launched.
func (p *Provider) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, b := range p.browsers {
		b.Close()
	}
	p.browsers = make(map[string]*browser.Browser)
}

// Handles resolves enabled source names through the registry, preserving
// order. An empty list enables every registered source.
func (p *Provider) Handles(enabled []string) []SourceHandle {
	names := enabled
	if len(names) == 0 {
		names = sources.AvailableNames()
	}

	out := make([]SourceHandle, 0, len(names))
	for _, n := range names {
		info, ok := sources.ByName(n)
		if !ok {
			slog.Warn("unknown source in config, skipping", "source", n)
			continue
		}
		out = append(out, SourceHandle{
			Info:  info,
			Build: func() (sources.Source, Release, error) { return p.build(info) },
		})
	}
	return out
}

func (p *Provider) build(info sources.Info) (sources.Source, Release, error) {
	deps := sources.Deps{HTTP: p.direct}
	release := Release(func(error) {})

	var proxyCfg *proxy.ProxyConfig
	if info.RequiresProxy {
		if p.proxies == nil || !p.proxies.Available() {
			return nil, nil, ErrNoProxy
		}
		pc, err := p.proxies.GetProxy()
		if err != nil {
			return nil, nil, fmt.Errorf("get proxy for %s: %w", info.Name, err)
		}
		proxyCfg = &pc
		deps.HTTP = httpx.NewClient(p.cfg.Scraper.Timeout, httpx.WithProxy(pc))
		release = func(err error) {
			if err != nil {
				p.proxies.MarkFailed(pc)
			} else {
				p.proxies.MarkSuccess(pc)
			}
		}
	}

	if info.RequiresBrowser {
		deps.NewPage = func() (browser.Page, error) {
			b, err := p.browserFor(proxyCfg)
			if err != nil {
				return nil, err
			}
			return b.NewPage()
		}
	}

	return info.New(deps), release, nil
}

// browserFor returns the shared browser for a proxy endpoint, launching it
// on first use.
func (p *Provider) browserFor(proxyCfg *proxy.ProxyConfig) (*browser.Browser, error) {
	key := ""
	if proxyCfg != nil {
		key = proxyCfg.Server
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if b, ok := p.browsers[key]; ok {
		return b, nil
	}
	b, err := browser.Launch(context.Background(), p.cfg.Scraper.UserAgent, proxyCfg)
	if err != nil {
		return nil, fmt.Errorf("launch browser: %w", err)
	}
	p.browsers[key] = b
	return b, nil
}
