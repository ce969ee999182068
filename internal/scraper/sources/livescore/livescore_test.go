package livescore

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
  "Stages": [
    {
      "Snm": "Premier League",
      "Events": [
        {
          "Eid": "986422",
          "T1": [{"Nm": "Liverpool"}],
          "T2": [{"Nm": "Everton"}],
          "Tr1": "3",
          "Tr2": "0",
          "Eps": "67'",
          "Esd": 20260114204500
        },
        {
          "Eid": "986423",
          "T1": [{"Nm": "Fulham"}],
          "T2": [{"Nm": "Brentford"}],
          "Tr1": "1",
          "Tr2": "1",
          "Eps": "FT",
          "Esd": 20260114180000
        },
        {
          "Eid": "986424",
          "T1": [{"Nm": "Wolves"}],
          "T2": [{"Nm": "Brighton"}],
          "Eps": "NS",
          "Esd": 20260114210000
        }
      ]
    }
  ]
}`

func TestLiveScores(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/live/soccer/0.00" {
			t.Errorf("path = %q", r.URL.Path)
		}
		w.Write([]byte(liveBody))
	}))
	defer srv.Close()

	s := New(sources.Deps{HTTP: httpx.NewClient(5 * time.Second)})
	s.baseURL = srv.URL

	events, err := s.LiveScores(context.Background(), "football")
	if err != nil {
		t.Fatal(err)
	}
	if len(events) != 2 {
		t.Fatalf("events = %d, want 2 (NS filtered out)", len(events))
	}

	live := events[0]
	if live.HomeTeam != "Liverpool" || live.HomeScore != 3 || live.AwayScore != 0 {
		t.Errorf("got %+v", live)
	}
	if live.Minute == nil || *live.Minute != 67 {
		t.Errorf("minute = %v, want 67", live.Minute)
	}
	if live.IsFinished {
		t.Error("running match marked finished")
	}
	// January is CET (UTC+1): 20:45 local is 19:45 UTC.
	want := time.Date(2026, 1, 14, 19, 45, 0, 0, time.UTC)
	if live.StartTime == nil || !live.StartTime.Equal(want) {
		t.Errorf("start = %v, want %v", live.StartTime, want)
	}

	if !events[1].IsFinished {
		t.Error("FT match not marked finished")
	}
}

func TestParseStartSummerOffset(t *testing.T) {
	// July is CEST (UTC+2).
	got, ok := parseStart(20260715203000)
	if !ok {
		t.Fatal("parseStart rejected valid timestamp")
	}
	want := time.Date(2026, 7, 15, 18, 30, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("got %v, want %v", got, want)
	}
}
