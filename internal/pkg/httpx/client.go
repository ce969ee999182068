package httpx

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/andybalholm/brotli"
	"github.com/klauspost/compress/zstd"
	"golang.org/x/time/rate"

	"github.com/scorewise/scorewise/internal/pkg/proxy"
	"github.com/scorewise/scorewise/internal/pkg/sourcehealth"
)

const (
	maxAttempts      = 3
	backoffBase      = 1 * time.Second
	perDomainPerMin  = 30
	minRequestDelay  = 50 * time.Millisecond
	maxRequestDelay  = 400 * time.Millisecond
)

// userAgents rotate per request so no single fingerprint accumulates.
var userAgents = []string{
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/142.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/141.0.0.0 Safari/537.36",
	"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/140.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.6 Safari/605.1.15",
}

// Response is a fetched page or API payload. Status stays visible so the
// caller can run the bot-detection classifier on it.
type Response struct {
	Body       []byte
	StatusCode int
}

// BlockedError marks a response the classifier would flag; the client returns
// it instead of retrying so the source-health tracker sees it immediately.
type BlockedError struct {
	StatusCode int
}

func (e *BlockedError) Error() string {
	return fmt.Sprintf("request blocked with status %d", e.StatusCode)
}

// domainLimiters caps each domain at 30 requests per minute. This is a
// safety net under the orchestrator's natural pacing, shared process-wide.
var (
	limiterMu sync.Mutex
	limiters  = map[string]*rate.Limiter{}
)

func domainLimiter(host string) *rate.Limiter {
	limiterMu.Lock()
	defer limiterMu.Unlock()
	l, ok := limiters[host]
	if !ok {
		l = rate.NewLimiter(rate.Limit(float64(perDomainPerMin)/60.0), perDomainPerMin)
		limiters[host] = l
	}
	return l
}

// Client is the JSON-API fetch path: explicit deadlines, exponential-backoff
// retries, gzip/brotli/zstd decompression, per-domain rate limiting, random
// inter-request delays and optional proxying.
type Client struct {
	httpClient *http.Client
	timeout    time.Duration
	userAgent  string
	proxyCfg   *proxy.ProxyConfig
}

// Option mutates a Client at construction.
type Option func(*Client)

// WithProxy routes all requests through the given proxy endpoint.
func WithProxy(p proxy.ProxyConfig) Option {
	return func(c *Client) { c.proxyCfg = &p }
}

// WithUserAgent pins a fixed user agent instead of rotating.
func WithUserAgent(ua string) Option {
	return func(c *Client) { c.userAgent = ua }
}

func NewClient(timeout time.Duration, opts ...Option) *Client {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	c := &Client{timeout: timeout}
	for _, opt := range opts {
		opt(c)
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	if c.proxyCfg != nil {
		proxyURL, err := url.Parse(c.proxyCfg.Server)
		if err == nil {
			if c.proxyCfg.Username != "" {
				proxyURL.User = url.UserPassword(c.proxyCfg.Username, c.proxyCfg.Password)
			}
			transport.Proxy = http.ProxyURL(proxyURL)
		} else {
			slog.Warn("invalid proxy server, continuing direct", "server", c.proxyCfg.Server, "error", err)
		}
	}
	c.httpClient = &http.Client{Timeout: timeout, Transport: transport}
	return c
}

// Get fetches a URL with retries. Transient transport errors and 5xx
// responses are retried up to 3 times with exponential backoff. Blocked
// statuses (403/429/503) come back immediately as *BlockedError, and so do
// 2xx responses whose body the classifier flags as an interstitial, since a
// Cloudflare challenge or captcha page arrives with status 200.
func (c *Client) Get(ctx context.Context, rawURL string) (*Response, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parse url: %w", err)
	}
	if err := domainLimiter(u.Host).Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}
	randomDelay(ctx)

	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		if attempt > 0 {
			backoff := backoffBase << (attempt - 1)
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff):
			}
		}

		resp, err := c.doOnce(ctx, rawURL)
		if err != nil {
			lastErr = err
			slog.Debug("request attempt failed", "url", rawURL, "attempt", attempt+1, "error", err)
			continue
		}

		switch {
		case resp.StatusCode == 403 || resp.StatusCode == 429 || resp.StatusCode == 503:
			return resp, &BlockedError{StatusCode: resp.StatusCode}
		case resp.StatusCode >= 500:
			lastErr = fmt.Errorf("http %d", resp.StatusCode)
			continue
		case resp.StatusCode >= 400:
			return resp, fmt.Errorf("http %d", resp.StatusCode)
		default:
			if sourcehealth.IsBlocked(resp.StatusCode, resp.BodyString()) {
				return resp, &BlockedError{StatusCode: resp.StatusCode}
			}
			return resp, nil
		}
	}
	return nil, fmt.Errorf("request failed after %d attempts: %w", maxAttempts, lastErr)
}

// GetJSON fetches and decodes a JSON payload.
func (c *Client) GetJSON(ctx context.Context, rawURL string, out any) error {
	resp, err := c.Get(ctx, rawURL)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(resp.Body, out); err != nil {
		return fmt.Errorf("decode json from %s: %w", rawURL, err)
	}
	return nil
}

func (c *Client) doOnce(ctx context.Context, rawURL string) (*Response, error) {
	reqCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	ua := c.userAgent
	if ua == "" {
		ua = userAgents[rand.Intn(len(userAgents))]
	}
	req.Header.Set("User-Agent", ua)
	req.Header.Set("Accept", "application/json, text/html;q=0.9, */*;q=0.8")
	req.Header.Set("Accept-Encoding", "gzip, br, zstd")
	req.Header.Set("Accept-Language", "en-GB,en;q=0.9")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := decompress(resp.Header.Get("Content-Encoding"), resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	return &Response{Body: body, StatusCode: resp.StatusCode}, nil
}

// decompress handles the encodings we advertise in Accept-Encoding.
func decompress(encoding string, r io.Reader) ([]byte, error) {
	switch encoding {
	case "gzip":
		gz, err := gzip.NewReader(r)
		if err != nil {
			return nil, fmt.Errorf("gzip reader: %w", err)
		}
		defer gz.Close()
		return io.ReadAll(gz)
	case "br":
		return io.ReadAll(brotli.NewReader(r))
	case "zstd":
		zr, err := zstd.NewReader(r)
		if err != nil {
			return nil, fmt.Errorf("zstd reader: %w", err)
		}
		defer zr.Close()
		return io.ReadAll(zr)
	default:
		return io.ReadAll(r)
	}
}

// randomDelay sleeps a small random interval to break request rhythm.
func randomDelay(ctx context.Context) {
	d := minRequestDelay + time.Duration(rand.Int63n(int64(maxRequestDelay-minRequestDelay)))
	select {
	case <-ctx.Done():
	case <-time.After(d):
	}
}

// BodyString is a convenience for classifiers that need the textual body.
func (r *Response) BodyString() string {
	if r == nil {
		return ""
	}
	return string(bytes.ToValidUTF8(r.Body, nil))
}
