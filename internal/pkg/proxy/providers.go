package proxy

import (
	"fmt"
	"math/rand"
	"strings"
)

// ProxyConfig is one usable proxy endpoint with credentials. Provider is the
// originating provider's name so feedback can be routed back.
type ProxyConfig struct {
	Server   string
	Username string
	Password string
	Provider string
}

// Provider hands out proxy endpoints. Each implementation encapsulates its
// own authentication scheme: username templating with rotating session IDs,
// country pinning, static lists.
type Provider interface {
	Name() string
	Proxy() (ProxyConfig, error)
}

// sessionID returns a short random token so successive requests land on
// different exit IPs.
func sessionID() string {
	const alphabet = "abcdefghijklmnopqrstuvwxyz0123456789"
	b := make([]byte, 8)
	for i := range b {
		b[i] = alphabet[rand.Intn(len(alphabet))]
	}
	return string(b)
}

// dataImpulse is the cheapest tier (~$1/GB residential).
type dataImpulse struct {
	username string
	password string
	country  string
}

func (p *dataImpulse) Name() string { return "dataimpulse" }

func (p *dataImpulse) Proxy() (ProxyConfig, error) {
	return ProxyConfig{
		Server:   "http://gw.dataimpulse.com:823",
		Username: fmt.Sprintf("%s__cr.%s;sessid.%s", p.username, p.country, sessionID()),
		Password: p.password,
		Provider: p.Name(),
	}, nil
}

// ipRoyal is the ~$1.75/GB residential tier.
type ipRoyal struct {
	username string
	password string
	country  string
}

func (p *ipRoyal) Name() string { return "iproyal" }

func (p *ipRoyal) Proxy() (ProxyConfig, error) {
	return ProxyConfig{
		Server:   "http://geo.iproyal.com:12321",
		Username: p.username,
		Password: fmt.Sprintf("%s_country-%s_session-%s", p.password, p.country, sessionID()),
		Provider: p.Name(),
	}, nil
}

// packetStream runs on an API key with a free tier.
type packetStream struct {
	apiKey  string
	country string
}

func (p *packetStream) Name() string { return "packetstream" }

func (p *packetStream) Proxy() (ProxyConfig, error) {
	return ProxyConfig{
		Server:   "http://proxy.packetstream.io:31112",
		Username: "scorewise",
		Password: fmt.Sprintf("%s_country-%s", p.apiKey, strings.ToUpper(p.country)),
		Provider: p.Name(),
	}, nil
}

// scraperAPI proxies through a managed scraping API; the free tier is capped
// so a request limit can disable it.
type scraperAPI struct {
	apiKey  string
	country string
	limit   int
	used    int
}

func (p *scraperAPI) Name() string { return "scraperapi" }

func (p *scraperAPI) Proxy() (ProxyConfig, error) {
	if p.limit > 0 && p.used >= p.limit {
		return ProxyConfig{}, fmt.Errorf("scraperapi request limit %d reached", p.limit)
	}
	p.used++
	return ProxyConfig{
		Server:   "http://proxy-server.scraperapi.com:8001",
		Username: fmt.Sprintf("scraperapi.country_code=%s", p.country),
		Password: p.apiKey,
		Provider: p.Name(),
	}, nil
}

// smartproxy, oxylabs and brightData are the premium ($6-17/GB) tiers.
type smartproxy struct {
	username string
	password string
	country  string
}

func (p *smartproxy) Name() string { return "smartproxy" }

func (p *smartproxy) Proxy() (ProxyConfig, error) {
	return ProxyConfig{
		Server:   fmt.Sprintf("http://%s.smartproxy.com:10000", p.country),
		Username: fmt.Sprintf("user-%s-sessionduration-1", p.username),
		Password: p.password,
		Provider: p.Name(),
	}, nil
}

type oxylabs struct {
	username string
	password string
	country  string
}

func (p *oxylabs) Name() string { return "oxylabs" }

func (p *oxylabs) Proxy() (ProxyConfig, error) {
	return ProxyConfig{
		Server:   "http://pr.oxylabs.io:7777",
		Username: fmt.Sprintf("customer-%s-cc-%s-sessid-%s", p.username, p.country, sessionID()),
		Password: p.password,
		Provider: p.Name(),
	}, nil
}

type brightData struct {
	username string
	password string
	country  string
}

func (p *brightData) Name() string { return "brightdata" }

func (p *brightData) Proxy() (ProxyConfig, error) {
	return ProxyConfig{
		Server:   "http://brd.superproxy.io:22225",
		Username: fmt.Sprintf("%s-country-%s-session-%s", p.username, p.country, sessionID()),
		Password: p.password,
		Provider: p.Name(),
	}, nil
}

// staticList serves a user-supplied list of "server|user|pass" entries,
// rotating round-robin.
type staticList struct {
	entries []ProxyConfig
	next    int
}

func (p *staticList) Name() string { return "static" }

func (p *staticList) Proxy() (ProxyConfig, error) {
	if len(p.entries) == 0 {
		return ProxyConfig{}, fmt.Errorf("static proxy list is empty")
	}
	cfg := p.entries[p.next%len(p.entries)]
	p.next++
	return cfg, nil
}

// parseStaticList parses the PROXY_LIST format: comma-separated entries of
// pipe-delimited "server|user|pass".
func parseStaticList(raw string) []ProxyConfig {
	var out []ProxyConfig
	for _, entry := range strings.Split(raw, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		parts := strings.Split(entry, "|")
		cfg := ProxyConfig{Server: strings.TrimSpace(parts[0]), Provider: "static"}
		if len(parts) > 1 {
			cfg.Username = strings.TrimSpace(parts[1])
		}
		if len(parts) > 2 {
			cfg.Password = strings.TrimSpace(parts[2])
		}
		if cfg.Server != "" {
			out = append(out, cfg)
		}
	}
	return out
}
