package sofascore

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/scorewise/scorewise/internal/pkg/httpx"
	"github.com/scorewise/scorewise/internal/scraper/sources"
)

const liveBody = `{
  "events": [
    {
      "id": 111,
      "tournament": {"name": "Premier League"},
      "status": {"type": "inprogress", "description": "2nd half"},
      "homeTeam": {"name": "Arsenal"},
      "awayTeam": {"name": "Chelsea"},
      "homeScore": {"current": 2},
      "awayScore": {"current": 1},
      "startTimestamp": 1773500400,
      "time": {"played": 4080}
    },
    {
      "id": 222,
      "tournament": {"name": "La Liga"},
      "status": {"type": "notstarted", "description": "Not started"},
      "homeTeam": {"name": "Barcelona"},
      "awayTeam": {"name": "Sevilla"},
      "homeScore": {},
      "awayScore": {},
      "startTimestamp": 1773507600
    },
    {
      "id": 333,
      "tournament": {"name": "Serie A"},
      "status": {"type": "finished", "description": "Ended"},
      "homeTeam": {"name": "Juventus"},
      "awayTeam": {"name": "Inter"},
      "homeScore": {"current": 0},
      "awayScore": {"current": 0},
      "startTimestamp": 1773493200
    }
  ]
}`

func newTestScraper(t *testing.T, handler http.HandlerFunc) *Scraper {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	s := New(sources.Deps{HTTP: httpx.NewClient(5 * time.Second)})
	s.baseURL = srv.URL
	return s
}

func TestLiveScores(t *testing.T) {
	var gotPath string
	s := newTestScraper(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Write([]byte(liveBody))
	})

	events, err := s.LiveScores(context.Background(), "football")
	if err != nil {
		t.Fatal(err)
	}
	if gotPath != "/sport/football/events/live" {
		t.Errorf("path = %q", gotPath)
	}
	if len(events) != 2 {
		t.Fatalf("events = %d, want 2 (not-started filtered out)", len(events))
	}

	live := events[0]
	if live.HomeTeam != "Arsenal" || live.AwayTeam != "Chelsea" {
		t.Errorf("teams = %q vs %q", live.HomeTeam, live.AwayTeam)
	}
	if live.HomeScore != 2 || live.AwayScore != 1 {
		t.Errorf("score = %d-%d", live.HomeScore, live.AwayScore)
	}
	if live.IsFinished {
		t.Error("in-progress event marked finished")
	}
	if live.Minute == nil || *live.Minute != 68 {
		t.Errorf("minute = %v, want 68", live.Minute)
	}
	if live.SourceID != "111" || live.SourceName != "sofascore" {
		t.Errorf("source = %s/%s", live.SourceName, live.SourceID)
	}

	if !events[1].IsFinished {
		t.Error("ended event not marked finished")
	}
}

func TestFixturesSkipsStartedGames(t *testing.T) {
	s := newTestScraper(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(liveBody))
	})

	fixtures, err := s.Fixtures(context.Background(), "football", time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatal(err)
	}
	if len(fixtures) != 1 {
		t.Fatalf("fixtures = %d, want 1", len(fixtures))
	}
	fx := fixtures[0]
	if fx.HomeTeam != "Barcelona" || fx.ExternalID != "222" {
		t.Errorf("got %+v", fx)
	}
	if fx.StartTime.IsZero() {
		t.Error("start time missing")
	}
}
