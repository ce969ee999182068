package models

import (
	"time"
)

// EventStatus is the lifecycle state of an event.
type EventStatus string

const (
	StatusScheduled EventStatus = "scheduled"
	StatusLive      EventStatus = "live"
	StatusFinished  EventStatus = "finished"
	StatusCancelled EventStatus = "cancelled"
	StatusPostponed EventStatus = "postponed"
)

// statusEdges is the allowed transition graph. Anything not listed is rejected.
var statusEdges = map[EventStatus][]EventStatus{
	StatusScheduled: {StatusLive, StatusCancelled, StatusPostponed},
	StatusLive:      {StatusFinished},
	StatusPostponed: {StatusScheduled},
}

// CanTransition reports whether an event may move from one status to another.
// Writing the same status again is always allowed (idempotent updates).
func CanTransition(from, to EventStatus) bool {
	if from == to {
		return true
	}
	for _, next := range statusEdges[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Sport is an immutable reference row scoping sources and matching.
type Sport struct {
	ID       int64  `json:"id"`
	Slug     string `json:"slug"`
	Name     string `json:"name"`
	IsActive bool   `json:"is_active"`
}

// Competition belongs to one sport and is created on first sight.
type Competition struct {
	ID      int64  `json:"id"`
	SportID int64  `json:"sport_id"`
	Name    string `json:"name"`
}

// Team is a canonical team row. The canonical name is immutable after
// creation; variations are recorded as aliases.
type Team struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// TeamAlias maps a raw (alias, source) pair to a team. Unique on (alias, source).
type TeamAlias struct {
	ID     int64  `json:"id"`
	TeamID int64  `json:"team_id"`
	Alias  string `json:"alias"`
	Source string `json:"source"`
}

// Event is one real-world match, the canonical record across sources.
// Team and competition names are frozen at ingest so later renames of the
// canonical team rows do not rewrite history.
type Event struct {
	ID              string      `json:"id"`
	SportID         int64       `json:"sport_id"`
	CompetitionID   int64       `json:"competition_id"`
	CompetitionName string      `json:"competition_name"`
	HomeTeamID      int64       `json:"home_team_id"`
	AwayTeamID      int64       `json:"away_team_id"`
	HomeTeamName    string      `json:"home_team_name"`
	AwayTeamName    string      `json:"away_team_name"`
	StartTime       time.Time   `json:"start_time"`
	Status          EventStatus `json:"status"`

	HomeScore *int   `json:"home_score,omitempty"`
	AwayScore *int   `json:"away_score,omitempty"`
	Period    string `json:"period,omitempty"`
	Minute    *int   `json:"minute,omitempty"`

	// ExternalIDs holds per-source identifiers keyed by source name
	// ("flashscore", "sofascore", ...). Each maps to its own nullable,
	// uniquely indexed column in the store.
	ExternalIDs map[string]string `json:"external_ids,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ExternalID returns the event's identifier for the given source, if attached.
func (e *Event) ExternalID(source string) (string, bool) {
	if e.ExternalIDs == nil {
		return "", false
	}
	id, ok := e.ExternalIDs[source]
	return id, ok
}

// Market belongs to one event. Suspension is market level.
type Market struct {
	ID           int64    `json:"id"`
	EventID      string   `json:"event_id"`
	Type         string   `json:"type"`
	Line         *float64 `json:"line,omitempty"`
	IsSuspended  bool     `json:"is_suspended"`
	IsMainMarket bool     `json:"is_main_market"`
}

// MarketMatchWinner is the default 1X2 market created with every new event.
const MarketMatchWinner = "match_winner"

// Outcome belongs to a market. PreviousOdds keeps the prior value so
// dashboards can show movement.
type Outcome struct {
	ID           int64    `json:"id"`
	MarketID     int64    `json:"market_id"`
	Name         string   `json:"name"`
	Odds         float64  `json:"odds"`
	PreviousOdds *float64 `json:"previous_odds,omitempty"`
	IsWinner     bool     `json:"is_winner"`
}
