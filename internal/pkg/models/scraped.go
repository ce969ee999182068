package models

import (
	"time"
)

// ScrapedEvent is the common shape every adapter maps into, regardless of
// transport. This is what lets the matcher treat all sources uniformly.
type ScrapedEvent struct {
	HomeTeam   string `json:"home_team"`
	AwayTeam   string `json:"away_team"`
	HomeScore  int    `json:"home_score"`
	AwayScore  int    `json:"away_score"`
	Period     string `json:"period,omitempty"`
	Minute     *int   `json:"minute,omitempty"`
	IsFinished bool   `json:"is_finished"`

	StartTime       *time.Time `json:"start_time,omitempty"`
	CompetitionName string     `json:"competition_name,omitempty"`

	SourceID   string `json:"source_id"`
	SourceName string `json:"source_name"`
}

// EventToMatch is the slice of a database event the live-scores scrapers
// need for matching: identity plus current team names and kickoff.
type EventToMatch struct {
	ID           string      `json:"id"`
	HomeTeamName string      `json:"home_team_name"`
	AwayTeamName string      `json:"away_team_name"`
	StartTime    time.Time   `json:"start_time"`
	Status       EventStatus `json:"status"`
	SportSlug    string      `json:"sport_slug"`
}

// LiveScore is a matched score update for one database event.
type LiveScore struct {
	EventID    string  `json:"event_id"`
	HomeScore  int     `json:"home_score"`
	AwayScore  int     `json:"away_score"`
	Period     string  `json:"period,omitempty"`
	Minute     *int    `json:"minute,omitempty"`
	IsFinished bool    `json:"is_finished"`
	Source     string  `json:"source"`
	Confidence float64 `json:"confidence"`
}

// NormalizedOdds is a 1X2 triple in decimal odds from one source. Draw is
// nil for sports without draws.
type NormalizedOdds struct {
	HomeTeam       string     `json:"home_team"`
	AwayTeam       string     `json:"away_team"`
	Competition    string     `json:"competition,omitempty"`
	StartTime      *time.Time `json:"start_time,omitempty"`
	HomeWin        *float64   `json:"home_win,omitempty"`
	Draw           *float64   `json:"draw,omitempty"`
	AwayWin        *float64   `json:"away_win,omitempty"`
	Source         string     `json:"source"`
	BookmakerCount int        `json:"bookmaker_count,omitempty"`
}

// ScrapedFixture is an upcoming match as reported by a fixtures source.
type ScrapedFixture struct {
	HomeTeam        string    `json:"home_team"`
	AwayTeam        string    `json:"away_team"`
	CompetitionName string    `json:"competition_name,omitempty"`
	StartTime       time.Time `json:"start_time"`
	ExternalID      string    `json:"external_id"`
	Source          string    `json:"source"`
}

// LiveScoresResult is what a live-scores scrape of one source returns.
type LiveScoresResult struct {
	// Scores keyed by database event ID.
	Scores    map[string]LiveScore `json:"scores"`
	Matched   int                  `json:"matched"`
	Unmatched int                  `json:"unmatched"`
}
