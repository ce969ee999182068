package oddschecker

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/scorewise/scorewise/internal/pkg/models"
	"github.com/scorewise/scorewise/internal/scraper/sources"
)

const name = "oddschecker"

func init() {
	sources.Register(sources.Info{
		Name:            name,
		RequiresProxy:   true,
		RequiresBrowser: true,
		New:             func(deps sources.Deps) sources.Source { return New(deps) },
	})
}

var sportPaths = map[string]string{
	"football": "football",
	"tennis":   "tennis",
}

// Scraper reads best-price 1X2 odds from oddschecker. Prices come from the
// DOM; kickoff times come from the JSON-LD SportsEvent blocks embedded in
// the page, which are stabler than the rendered markup.
type Scraper struct {
	deps    sources.Deps
	baseURL string
}

func New(deps sources.Deps) *Scraper {
	return &Scraper{deps: deps, baseURL: "https://www.oddschecker.com"}
}

func (s *Scraper) Name() string { return name }

func (s *Scraper) Odds(ctx context.Context, sport string) ([]models.NormalizedOdds, error) {
	path, ok := sportPaths[sport]
	if !ok {
		return nil, nil
	}

	page, err := s.deps.NewPage()
	if err != nil {
		return nil, fmt.Errorf("open page: %w", err)
	}
	defer page.Close()

	if err := page.Navigate(ctx, fmt.Sprintf("%s/%s", s.baseURL, path)); err != nil {
		return nil, err
	}

	betNames, err := page.Texts(ctx, ".fixtures-bet-name")
	if err != nil {
		return nil, err
	}
	prices, err := page.Texts(ctx, ".fixtures .basket-add")
	if err != nil {
		return nil, err
	}
	html, err := page.HTML(ctx)
	if err != nil {
		return nil, err
	}
	kickoffs := parseJSONLDEvents(html)

	perRow := 3
	if sport == "tennis" {
		perRow = 2
	}
	if len(betNames) == 0 || len(betNames)%perRow != 0 || len(prices) < len(betNames) {
		return nil, fmt.Errorf("oddschecker markup mismatch: %d bet names, %d prices", len(betNames), len(prices))
	}

	var out []models.NormalizedOdds
	for i := 0; i+perRow <= len(betNames); i += perRow {
		row := models.NormalizedOdds{Source: name}
		if perRow == 3 {
			if !strings.EqualFold(strings.TrimSpace(betNames[i+1]), "draw") {
				continue
			}
			row.HomeTeam = strings.TrimSpace(betNames[i])
			row.AwayTeam = strings.TrimSpace(betNames[i+2])
			row.HomeWin = fractionalToDecimal(prices[i])
			row.Draw = fractionalToDecimal(prices[i+1])
			row.AwayWin = fractionalToDecimal(prices[i+2])
		} else {
			row.HomeTeam = strings.TrimSpace(betNames[i])
			row.AwayTeam = strings.TrimSpace(betNames[i+1])
			row.HomeWin = fractionalToDecimal(prices[i])
			row.AwayWin = fractionalToDecimal(prices[i+1])
		}
		if row.HomeTeam == "" || row.AwayTeam == "" {
			continue
		}
		if row.HomeWin == nil && row.AwayWin == nil {
			continue
		}
		if st, ok := kickoffs[eventKey(row.HomeTeam, row.AwayTeam)]; ok {
			row.StartTime = &st
		}
		out = append(out, row)
	}
	return out, nil
}

// fractionalToDecimal converts UK fractional odds ("5/2") to decimal (3.5).
// Decimal and evens inputs pass through.
func fractionalToDecimal(text string) *float64 {
	text = strings.TrimSpace(text)
	switch {
	case text == "" || text == "-" || strings.EqualFold(text, "SP"):
		return nil
	case strings.EqualFold(text, "EVS") || strings.EqualFold(text, "evens"):
		v := 2.0
		return &v
	}
	if num, den, found := strings.Cut(text, "/"); found {
		n, err1 := strconv.ParseFloat(num, 64)
		d, err2 := strconv.ParseFloat(den, 64)
		if err1 != nil || err2 != nil || d == 0 {
			return nil
		}
		v := 1 + n/d
		return &v
	}
	v, err := strconv.ParseFloat(text, 64)
	if err != nil || v < 1 {
		return nil
	}
	return &v
}

var jsonLDRe = regexp.MustCompile(`(?s)<script type="application/ld\+json">(.*?)</script>`)

type ldEvent struct {
	Type      string `json:"@type"`
	Name      string `json:"name"`
	StartDate string `json:"startDate"`
}

// parseJSONLDEvents extracts SportsEvent blocks and keys their kickoff times
// by "home v away" pair.
func parseJSONLDEvents(html string) map[string]time.Time {
	out := map[string]time.Time{}
	for _, m := range jsonLDRe.FindAllStringSubmatch(html, -1) {
		raw := strings.TrimSpace(m[1])

		var events []ldEvent
		var single ldEvent
		if err := json.Unmarshal([]byte(raw), &single); err == nil && single.Type != "" {
			events = append(events, single)
		} else if err := json.Unmarshal([]byte(raw), &events); err != nil {
			continue
		}

		for _, ev := range events {
			if ev.Type != "SportsEvent" {
				continue
			}
			home, away, ok := splitEventName(ev.Name)
			if !ok {
				continue
			}
			t, err := time.Parse(time.RFC3339, ev.StartDate)
			if err != nil {
				continue
			}
			out[eventKey(home, away)] = t.UTC()
		}
	}
	return out
}

// splitEventName breaks "Arsenal v Chelsea" (or "vs") into sides.
func splitEventName(n string) (home, away string, ok bool) {
	for _, sep := range []string{" v ", " vs ", " V "} {
		if i := strings.Index(n, sep); i > 0 {
			home = strings.TrimSpace(n[:i])
			away = strings.TrimSpace(n[i+len(sep):])
			return home, away, home != "" && away != ""
		}
	}
	return "", "", false
}

func eventKey(home, away string) string {
	return strings.ToLower(home) + "|" + strings.ToLower(away)
}
