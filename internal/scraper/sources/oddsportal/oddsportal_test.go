package oddsportal

import (
	"context"
	"testing"

	"github.com/scorewise/scorewise/internal/pkg/browser"
	"github.com/scorewise/scorewise/internal/scraper/sources"
)

func TestOddsFootball(t *testing.T) {
	page := &browser.FakePage{
		TextsBySelector: map[string][]string{
			"[data-testid='game-row'] .participant-name": {
				"Arsenal - Chelsea",
				"Lyon – Lille",
				"no separator here",
			},
			"[data-testid='odd-container'] p": {
				"2.10", "3.40", "3.60",
				"1.85", "3.50", "-",
				"1.50", "4.00", "6.00",
			},
		},
	}
	s := New(sources.Deps{NewPage: func() (browser.Page, error) { return page, nil }})

	odds, err := s.Odds(context.Background(), "football")
	if err != nil {
		t.Fatal(err)
	}
	if len(odds) != 2 {
		t.Fatalf("rows = %d, want 2 (unsplittable pair dropped)", len(odds))
	}

	first := odds[0]
	if first.HomeTeam != "Arsenal" || first.AwayTeam != "Chelsea" {
		t.Errorf("teams = %q vs %q", first.HomeTeam, first.AwayTeam)
	}
	if first.HomeWin == nil || *first.HomeWin != 2.10 {
		t.Errorf("home win = %v", first.HomeWin)
	}
	if first.Draw == nil || *first.Draw != 3.40 {
		t.Errorf("draw = %v", first.Draw)
	}

	// En-dash pair with a suspended away price.
	second := odds[1]
	if second.HomeTeam != "Lyon" || second.AwayTeam != "Lille" {
		t.Errorf("teams = %q vs %q", second.HomeTeam, second.AwayTeam)
	}
	if second.AwayWin != nil {
		t.Errorf("suspended away price should be nil, got %v", *second.AwayWin)
	}
}

func TestOddsTennisTwoWay(t *testing.T) {
	page := &browser.FakePage{
		TextsBySelector: map[string][]string{
			"[data-testid='game-row'] .participant-name": {"Alcaraz - Sinner"},
			"[data-testid='odd-container'] p":            {"1.90", "1.90"},
		},
	}
	s := New(sources.Deps{NewPage: func() (browser.Page, error) { return page, nil }})

	odds, err := s.Odds(context.Background(), "tennis")
	if err != nil {
		t.Fatal(err)
	}
	if len(odds) != 1 {
		t.Fatalf("rows = %d, want 1", len(odds))
	}
	if odds[0].Draw != nil {
		t.Error("tennis row should have no draw price")
	}
	if odds[0].AwayWin == nil || *odds[0].AwayWin != 1.90 {
		t.Errorf("away win = %v", odds[0].AwayWin)
	}
}

func TestOddsMarkupMismatch(t *testing.T) {
	page := &browser.FakePage{
		TextsBySelector: map[string][]string{
			"[data-testid='game-row'] .participant-name": {"Arsenal - Chelsea"},
			"[data-testid='odd-container'] p":            {"2.10"},
		},
	}
	s := New(sources.Deps{NewPage: func() (browser.Page, error) { return page, nil }})

	if _, err := s.Odds(context.Background(), "football"); err == nil {
		t.Fatal("want error when odds cells do not cover rows")
	}
}
