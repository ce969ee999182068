package oddsportal

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/scorewise/scorewise/internal/pkg/browser"
	"github.com/scorewise/scorewise/internal/pkg/models"
	"github.com/scorewise/scorewise/internal/scraper/sources"
)

const name = "oddsportal"

func init() {
	sources.Register(sources.Info{
		Name:            name,
		RequiresProxy:   true,
		RequiresBrowser: true,
		New:             func(deps sources.Deps) sources.Source { return New(deps) },
	})
}

var sportPaths = map[string]string{
	"football":   "football",
	"basketball": "basketball",
	"tennis":     "tennis",
}

// Scraper reads average 1X2 prices from oddsportal's upcoming-matches pages.
// Needs both a browser (client-rendered) and a proxy (IP bans).
type Scraper struct {
	deps    sources.Deps
	baseURL string
}

func New(deps sources.Deps) *Scraper {
	return &Scraper{deps: deps, baseURL: "https://www.oddsportal.com"}
}

func (s *Scraper) Name() string { return name }

// Selector fallback chains.
var (
	selPairs = []string{"[data-testid='game-row'] .participant-name", "td.name.table-participant a"}
	selOdds  = []string{"[data-testid='odd-container'] p", "td.odds-nowrp a"}
)

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

	url := fmt.Sprintf("%s/matches/%s/", s.baseURL, path)
	if err := page.Navigate(ctx, url); err != nil {
		return nil, err
	}

	pairs, err := textsAny(ctx, page, selPairs)
	if err != nil {
		return nil, err
	}
	oddsCells, err := textsAny(ctx, page, selOdds)
	if err != nil {
		return nil, err
	}

	// Markets without a draw price arrive as two cells per row; take the
	// layout with the most complete coverage.
	perRow := 3
	if sport == "basketball" || sport == "tennis" {
		perRow = 2
	}
	if len(pairs) == 0 || len(oddsCells) < len(pairs)*perRow {
		return nil, fmt.Errorf("oddsportal markup mismatch: %d rows, %d odds cells", len(pairs), len(oddsCells))
	}

	var out []models.NormalizedOdds
	for i, pair := range pairs {
		home, away, ok := splitPair(pair)
		if !ok {
			continue
		}
		row := models.NormalizedOdds{
			HomeTeam: home,
			AwayTeam: away,
			Source:   name,
		}
		cells := oddsCells[i*perRow : i*perRow+perRow]
		if perRow == 3 {
			row.HomeWin = parseDecimal(cells[0])
			row.Draw = parseDecimal(cells[1])
			row.AwayWin = parseDecimal(cells[2])
		} else {
			row.HomeWin = parseDecimal(cells[0])
			row.AwayWin = parseDecimal(cells[1])
		}
		if row.HomeWin == nil && row.AwayWin == nil {
			continue
		}
		out = append(out, row)
	}
	return out, nil
}

func textsAny(ctx context.Context, page browser.Page, selectors []string) ([]string, error) {
	for _, sel := range selectors {
		texts, err := page.Texts(ctx, sel)
		if err != nil {
			return nil, err
		}
		if len(texts) > 0 {
			return texts, nil
		}
	}
	return nil, nil
}

// splitPair breaks "Arsenal - Chelsea" (or the en-dash variant) into sides.
func splitPair(pair string) (home, away string, ok bool) {
	for _, sep := range []string{" - ", " – ", " — "} {
		if i := strings.Index(pair, sep); i > 0 {
			home = strings.TrimSpace(pair[:i])
			away = strings.TrimSpace(pair[i+len(sep):])
			return home, away, home != "" && away != ""
		}
	}
	return "", "", false
}

// parseDecimal reads a decimal odds cell; "-" marks a suspended price.
func parseDecimal(text string) *float64 {
	text = strings.TrimSpace(text)
	if text == "" || text == "-" {
		return nil
	}
	v, err := strconv.ParseFloat(text, 64)
	if err != nil || v < 1 {
		return nil
	}
	return &v
}
