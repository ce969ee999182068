package flashscore

import (
	"context"
	"testing"
	"time"

	"github.com/scorewise/scorewise/internal/pkg/browser"
	"github.com/scorewise/scorewise/internal/scraper/sources"
)

func newTestScraper(page *browser.FakePage) *Scraper {
	return New(sources.Deps{
		NewPage: func() (browser.Page, error) { return page, nil },
	})
}

func TestLiveScores(t *testing.T) {
	page := &browser.FakePage{
		AttrsBySelector: map[string][]string{
			"div.event__match|id": {"g_1_aaa111", "g_1_bbb222", "g_1_ccc333"},
		},
		TextsBySelector: map[string][]string{
			".event__homeParticipant": {"Arsenal", "Leeds", "Newcastle"},
			".event__awayParticipant": {"Chelsea", "Villa", "West Ham"},
			".event__score--home":     {"2", "1", "-"},
			".event__score--away":     {"0", "1", "-"},
			".event__stage--block":    {"67", "Finished", "19:45"},
		},
	}

	events, err := newTestScraper(page).LiveScores(context.Background(), "football")
	if err != nil {
		t.Fatal(err)
	}
	if len(events) != 2 {
		t.Fatalf("events = %d, want 2 (not-started row skipped)", len(events))
	}

	running := events[0]
	if running.HomeTeam != "Arsenal" || running.HomeScore != 2 || running.AwayScore != 0 {
		t.Errorf("got %+v", running)
	}
	if running.Minute == nil || *running.Minute != 67 {
		t.Errorf("minute = %v, want 67", running.Minute)
	}
	if running.SourceID != "aaa111" {
		t.Errorf("source id = %q, want aaa111", running.SourceID)
	}

	if !events[1].IsFinished {
		t.Error("finished row not marked finished")
	}
	if !page.Closed {
		t.Error("page not closed")
	}
}

func TestLiveScoresOldMarkupFallback(t *testing.T) {
	page := &browser.FakePage{
		TextsBySelector: map[string][]string{
			".event__participant--home": {"Lyon"},
			".event__participant--away": {"Lille"},
			".event__score--home":       {"1"},
			".event__score--away":       {"0"},
			".event__stage":             {"Half Time"},
		},
	}

	events, err := newTestScraper(page).LiveScores(context.Background(), "football")
	if err != nil {
		t.Fatal(err)
	}
	if len(events) != 1 {
		t.Fatalf("events = %d, want 1", len(events))
	}
	if events[0].HomeTeam != "Lyon" || events[0].Period != "Half Time" {
		t.Errorf("got %+v", events[0])
	}
}

func TestLiveScoresMarkupMismatch(t *testing.T) {
	page := &browser.FakePage{
		TextsBySelector: map[string][]string{
			".event__homeParticipant": {"Arsenal", "Leeds"},
			".event__awayParticipant": {"Chelsea"},
		},
	}
	if _, err := newTestScraper(page).LiveScores(context.Background(), "football"); err == nil {
		t.Fatal("want error on home/away cell count mismatch")
	}
}

func TestFixtures(t *testing.T) {
	page := &browser.FakePage{
		AttrsBySelector: map[string][]string{
			"div.event__match|id": {"g_1_fx1", "g_1_fx2"},
		},
		TextsBySelector: map[string][]string{
			".event__homeParticipant": {"Real Madrid", "Valencia"},
			".event__awayParticipant": {"Getafe", "Betis"},
			".event__time":            {"15:30", "bad"},
		},
	}

	day := time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)
	fixtures, err := newTestScraper(page).Fixtures(context.Background(), "football", day)
	if err != nil {
		t.Fatal(err)
	}
	if len(fixtures) != 1 {
		t.Fatalf("fixtures = %d, want 1 (unparseable time dropped)", len(fixtures))
	}

	fx := fixtures[0]
	want := time.Date(2026, 3, 15, 15, 30, 0, 0, time.UTC)
	if !fx.StartTime.Equal(want) {
		t.Errorf("start = %v, want %v", fx.StartTime, want)
	}
	if fx.ExternalID != "fx1" || fx.Source != "flashscore" {
		t.Errorf("got %+v", fx)
	}
}
