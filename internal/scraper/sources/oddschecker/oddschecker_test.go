package oddschecker

import (
	"context"
	"testing"
	"time"

	"github.com/scorewise/scorewise/internal/pkg/browser"
	"github.com/scorewise/scorewise/internal/scraper/sources"
)

const fixturePage = `<html><head>
<script type="application/ld+json">
[
  {"@type": "SportsEvent", "name": "Arsenal v Chelsea", "startDate": "2026-03-14T15:00:00Z"},
  {"@type": "SportsEvent", "name": "Liverpool v Everton", "startDate": "2026-03-14T17:30:00+00:00"},
  {"@type": "Organization", "name": "oddschecker"}
]
</script>
</head><body></body></html>`

func newTestScraper(page *browser.FakePage) *Scraper {
	return New(sources.Deps{NewPage: func() (browser.Page, error) { return page, nil }})
}

func TestOddsFootball(t *testing.T) {
	page := &browser.FakePage{
		Document: fixturePage,
		TextsBySelector: map[string][]string{
			".fixtures-bet-name": {
				"Arsenal", "Draw", "Chelsea",
				"Liverpool", "Draw", "Everton",
			},
			".fixtures .basket-add": {
				"11/10", "12/5", "EVS",
				"4/6", "5/2", "9/2",
			},
		},
	}

	odds, err := newTestScraper(page).Odds(context.Background(), "football")
	if err != nil {
		t.Fatal(err)
	}
	if len(odds) != 2 {
		t.Fatalf("rows = %d, want 2", len(odds))
	}

	first := odds[0]
	if first.HomeTeam != "Arsenal" || first.AwayTeam != "Chelsea" {
		t.Errorf("teams = %q vs %q", first.HomeTeam, first.AwayTeam)
	}
	if first.HomeWin == nil || *first.HomeWin != 2.1 {
		t.Errorf("11/10 -> %v, want 2.1", first.HomeWin)
	}
	if first.AwayWin == nil || *first.AwayWin != 2.0 {
		t.Errorf("EVS -> %v, want 2.0", first.AwayWin)
	}

	// Kickoff pulled from the JSON-LD block.
	want := time.Date(2026, 3, 14, 15, 0, 0, 0, time.UTC)
	if first.StartTime == nil || !first.StartTime.Equal(want) {
		t.Errorf("start = %v, want %v", first.StartTime, want)
	}
}

func TestOddsRowWithoutDrawLabelSkipped(t *testing.T) {
	page := &browser.FakePage{
		TextsBySelector: map[string][]string{
			".fixtures-bet-name":    {"Arsenal", "Over 2.5", "Chelsea"},
			".fixtures .basket-add": {"2/1", "5/6", "6/4"},
		},
	}
	odds, err := newTestScraper(page).Odds(context.Background(), "football")
	if err != nil {
		t.Fatal(err)
	}
	if len(odds) != 0 {
		t.Fatalf("rows = %d, want 0 (non-1X2 triple skipped)", len(odds))
	}
}

func TestFractionalToDecimal(t *testing.T) {
	tests := []struct {
		in   string
		want float64
		wantNil bool
	}{
		{"5/2", 3.5, false},
		{"1/1", 2.0, false},
		{"EVS", 2.0, false},
		{"2.35", 2.35, false},
		{"SP", 0, true},
		{"-", 0, true},
		{"abc", 0, true},
	}
	for _, tt := range tests {
		got := fractionalToDecimal(tt.in)
		if tt.wantNil {
			if got != nil {
				t.Errorf("fractionalToDecimal(%q) = %v, want nil", tt.in, *got)
			}
			continue
		}
		if got == nil || *got != tt.want {
			t.Errorf("fractionalToDecimal(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
