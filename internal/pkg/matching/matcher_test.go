package matching

import (
	"testing"
	"time"

	"github.com/scorewise/scorewise/internal/pkg/models"
)

func dbEvent(id, home, away string, start time.Time) models.EventToMatch {
	return models.EventToMatch{
		ID:           id,
		HomeTeamName: home,
		AwayTeamName: away,
		StartTime:    start,
		Status:       models.StatusLive,
		SportSlug:    "football",
	}
}

func TestMatchEvents_FalsePositiveBlocked(t *testing.T) {
	now := time.Date(2024, 11, 30, 15, 0, 0, 0, time.UTC)
	db := []models.EventToMatch{dbEvent("e1", "Arsenal", "Chelsea", now)}
	scraped := []models.ScrapedEvent{
		{HomeTeam: "Arsenal", AwayTeam: "Tottenham", SourceName: "espn"},
		{HomeTeam: "Barcelona", AwayTeam: "Chelsea", SourceName: "espn"},
	}

	got := MatchEvents(scraped, db, Options{
		Threshold:        ThresholdLiveScores,
		RequireBothTeams: true,
		Now:              now,
	})
	if len(got) != 0 {
		t.Fatalf("one matching side must not produce a match, got %d results", len(got))
	}
}

func TestMatchEvents_ClaimOnce(t *testing.T) {
	now := time.Date(2024, 11, 30, 15, 0, 0, 0, time.UTC)
	db := []models.EventToMatch{dbEvent("e1", "Arsenal", "Chelsea", now)}
	scraped := []models.ScrapedEvent{
		{HomeTeam: "Arsenal", AwayTeam: "Chelsea", SourceName: "espn"},
		{HomeTeam: "Arsenal FC", AwayTeam: "Chelsea FC", SourceName: "espn"},
	}

	got := MatchEvents(scraped, db, Options{RequireBothTeams: true, Now: now})
	if len(got) != 1 {
		t.Fatalf("db event claimed %d times, want 1", len(got))
	}
}

func TestMatchEvents_BestConfidenceWins(t *testing.T) {
	now := time.Date(2024, 11, 30, 15, 0, 0, 0, time.UTC)
	db := []models.EventToMatch{
		dbEvent("exact", "Manchester United", "Chelsea", now),
		dbEvent("close", "Manchester City", "Chelsea", now),
	}
	scraped := []models.ScrapedEvent{
		{HomeTeam: "Manchester United", AwayTeam: "Chelsea", SourceName: "sofascore"},
	}

	got := MatchEvents(scraped, db, Options{RequireBothTeams: true, Now: now})
	if len(got) != 1 {
		t.Fatalf("got %d matches, want 1", len(got))
	}
	if got[0].Event.ID != "exact" {
		t.Errorf("matched %q, want the exact-name candidate", got[0].Event.ID)
	}
	if got[0].HomeConf != 1 || got[0].AwayConf != 1 {
		t.Errorf("exact names should score 1/1, got %v/%v", got[0].HomeConf, got[0].AwayConf)
	}
}

func TestMatchEvents_ThresholdPolicy(t *testing.T) {
	now := time.Date(2024, 11, 30, 15, 0, 0, 0, time.UTC)
	db := []models.EventToMatch{dbEvent("e1", "Manchester United", "Chelsea", now)}
	scraped := []models.ScrapedEvent{
		{HomeTeam: "Man United", AwayTeam: "Chelsea", SourceName: "fotmob"},
	}

	got := MatchEvents(scraped, db, Options{
		Threshold:        ThresholdLiveScores,
		RequireBothTeams: true,
		Now:              now,
	})
	if len(got) != 1 {
		t.Fatalf("got %d matches, want 1", len(got))
	}
	for _, m := range got {
		if m.HomeConf < ThresholdLiveScores || m.AwayConf < ThresholdLiveScores {
			t.Errorf("returned confidences %v/%v violate threshold %v",
				m.HomeConf, m.AwayConf, ThresholdLiveScores)
		}
	}
}

func TestMatchEvents_TimeWindowFilter(t *testing.T) {
	now := time.Date(2024, 11, 30, 15, 0, 0, 0, time.UTC)
	db := []models.EventToMatch{
		dbEvent("old", "Arsenal", "Chelsea", now.Add(-20*time.Hour)),
	}
	scraped := []models.ScrapedEvent{
		{HomeTeam: "Arsenal", AwayTeam: "Chelsea", SourceName: "espn"},
	}

	got := MatchEvents(scraped, db, Options{RequireBothTeams: true, TimeWindow: WindowLive, Now: now})
	if len(got) != 0 {
		t.Fatalf("event outside 12h window must not match, got %d", len(got))
	}

	got = MatchEvents(scraped, db, Options{RequireBothTeams: true, TimeWindow: WindowFixtures, Now: now})
	if len(got) != 1 {
		t.Fatalf("event inside 24h window should match, got %d", len(got))
	}
}

// Rows with no start time of their own must match on names alone unless the
// caller supplies an anchor. Wall clock never enters the decision.
func TestMatchEvents_NoStartTimeNoAnchor(t *testing.T) {
	kickoff := time.Date(2024, 11, 30, 15, 0, 0, 0, time.UTC)
	db := []models.EventToMatch{dbEvent("e1", "Arsenal", "Chelsea", kickoff)}
	scraped := []models.ScrapedEvent{
		{HomeTeam: "Arsenal", AwayTeam: "Chelsea", SourceName: "oddsportal"},
	}

	got := MatchEvents(scraped, db, Options{RequireBothTeams: true, TimeWindow: WindowFixtures})
	if len(got) != 1 {
		t.Fatalf("unanchored row should match by names, got %d", len(got))
	}

	// An explicit anchor far from kickoff filters the same row out.
	got = MatchEvents(scraped, db, Options{
		RequireBothTeams: true,
		TimeWindow:       WindowFixtures,
		Now:              kickoff.Add(90 * 24 * time.Hour),
	})
	if len(got) != 0 {
		t.Fatalf("anchored row outside the window must not match, got %d", len(got))
	}
}

func TestMatchTeamNames_CanonicalCoincidence(t *testing.T) {
	if got := MatchTeamNames("Arsenal FC", "The Arsenal"); got != 1 {
		t.Errorf("canonical forms coincide, want 1, got %v", got)
	}
}
