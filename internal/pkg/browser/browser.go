package browser

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"

	"github.com/scorewise/scorewise/internal/pkg/proxy"
)

// Page is the minimal DOM surface the HTML adapters are written against.
// Keeping it this small lets adapters run against a fake in tests without
// launching Chrome.
type Page interface {
	Navigate(ctx context.Context, url string) error
	// Text returns the text content of the first node matching the selector.
	Text(ctx context.Context, selector string) (string, error)
	// Texts returns the text content of every node matching the selector.
	Texts(ctx context.Context, selector string) ([]string, error)
	// Attrs returns the given attribute of every node matching the selector.
	Attrs(ctx context.Context, selector, attr string) ([]string, error)
	// HTML returns the full serialized document.
	HTML(ctx context.Context) (string, error)
	Close() error
}

// blockedResourcePatterns cut page weight by roughly 70-80%: images, fonts,
// stylesheets and analytics are never needed for extraction.
var blockedResourcePatterns = []string{
	"*.png", "*.jpg", "*.jpeg", "*.gif", "*.webp", "*.svg", "*.ico",
	"*.woff", "*.woff2", "*.ttf", "*.otf", "*.css",
	"*google-analytics*", "*googletagmanager*", "*doubleclick*",
	"*facebook.net*", "*hotjar*", "*adsbygoogle*",
}

// Browser owns one headless Chrome process. Each source attempt gets a fresh
// page context so cookies and fingerprints do not leak between sources.
type Browser struct {
	allocCtx    context.Context
	allocCancel context.CancelFunc
	userAgent   string
}

// Launch starts a headless Chrome allocator. An optional proxy applies to
// every page opened from this browser.
func Launch(ctx context.Context, userAgent string, proxyCfg *proxy.ProxyConfig) (*Browser, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("blink-settings", "imagesEnabled=false"),
	)
	if userAgent != "" {
		opts = append(opts, chromedp.UserAgent(userAgent))
	}
	if proxyCfg != nil {
		opts = append(opts, chromedp.ProxyServer(proxyCfg.Server))
	}

	allocCtx, cancel := chromedp.NewExecAllocator(ctx, opts...)
	return &Browser{allocCtx: allocCtx, allocCancel: cancel, userAgent: userAgent}, nil
}

// NewPage opens an isolated browser context with resource blocking enabled.
func (b *Browser) NewPage() (Page, error) {
	tabCtx, cancel := chromedp.NewContext(b.allocCtx)

	if err := chromedp.Run(tabCtx,
		network.Enable(),
		network.SetBlockedURLs(blockedResourcePatterns),
	); err != nil {
		cancel()
		return nil, fmt.Errorf("prepare page: %w", err)
	}
	return &chromePage{tabCtx: tabCtx, cancel: cancel}, nil
}

// Close tears the whole browser down.
func (b *Browser) Close() {
	b.allocCancel()
}

type chromePage struct {
	tabCtx context.Context
	cancel context.CancelFunc
}

func (p *chromePage) run(ctx context.Context, actions ...chromedp.Action) error {
	runCtx := p.tabCtx
	if deadline, ok := ctx.Deadline(); ok {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithDeadline(runCtx, deadline)
		defer cancel()
	}
	return chromedp.Run(runCtx, actions...)
}

func (p *chromePage) Navigate(ctx context.Context, url string) error {
	start := time.Now()
	err := p.run(ctx,
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
	)
	if err != nil {
		return fmt.Errorf("navigate %s: %w", url, err)
	}
	slog.Debug("page loaded", "url", url, "took", time.Since(start))
	return nil
}

func (p *chromePage) Text(ctx context.Context, selector string) (string, error) {
	var out string
	err := p.run(ctx, chromedp.Text(selector, &out, chromedp.ByQuery, chromedp.AtLeast(0)))
	if err != nil {
		return "", fmt.Errorf("text %q: %w", selector, err)
	}
	return out, nil
}

func (p *chromePage) Texts(ctx context.Context, selector string) ([]string, error) {
	var out []string
	js := fmt.Sprintf(
		`Array.from(document.querySelectorAll(%q)).map(el => el.textContent.trim())`, selector)
	if err := p.run(ctx, chromedp.Evaluate(js, &out)); err != nil {
		return nil, fmt.Errorf("texts %q: %w", selector, err)
	}
	return out, nil
}

func (p *chromePage) Attrs(ctx context.Context, selector, attr string) ([]string, error) {
	var out []string
	js := fmt.Sprintf(
		`Array.from(document.querySelectorAll(%q)).map(el => el.getAttribute(%q) || "")`,
		selector, attr)
	if err := p.run(ctx, chromedp.Evaluate(js, &out)); err != nil {
		return nil, fmt.Errorf("attrs %q[%s]: %w", selector, attr, err)
	}
	return out, nil
}

func (p *chromePage) HTML(ctx context.Context) (string, error) {
	var out string
	if err := p.run(ctx, chromedp.OuterHTML("html", &out, chromedp.ByQuery)); err != nil {
		return "", fmt.Errorf("outer html: %w", err)
	}
	return out, nil
}

func (p *chromePage) Close() error {
	p.cancel()
	return nil
}
