package matching

import (
	"strings"
	"time"

	"github.com/scorewise/scorewise/internal/pkg/models"
	"github.com/scorewise/scorewise/internal/pkg/teams"
)

// Default thresholds. They rise with the cost of a false positive: a wrong
// live score overwrites real data, a wrong dedup merges two real matches.
const (
	ThresholdLiveScores = 0.70
	ThresholdOdds       = 0.75
	ThresholdDedup      = 0.80

	// WindowLive bounds how far a db event's kickoff may be from the
	// scrape when comparing live data; WindowFixtures is the wider bracket
	// for upcoming fixtures.
	WindowLive     = 12 * time.Hour
	WindowFixtures = 24 * time.Hour
)

// Options configures one matching pass.
type Options struct {
	Threshold float64
	// RequireBothTeams discards candidates where either side is below the
	// threshold; when false the average is compared instead.
	RequireBothTeams bool
	TimeWindow       time.Duration
	// Now anchors the time-window filter for scraped events that carry no
	// start time of their own. Zero means no anchor: such events pass the
	// window filter and name similarity alone decides, which keeps matching
	// deterministic when the caller already bounded the candidate set by
	// time.
	Now time.Time
}

// Match pairs one scraped event with one database event.
type Match struct {
	Event       models.EventToMatch
	Scraped     models.ScrapedEvent
	HomeConf    float64
	AwayConf    float64
	OverallConf float64
}

// MatchEvents pairs scraped events to database events by team-name similarity
// within a time window. Each database event is claimed at most once; among
// surviving candidates the highest overall confidence wins.
func MatchEvents(scraped []models.ScrapedEvent, db []models.EventToMatch, opts Options) []Match {
	if opts.Threshold <= 0 {
		opts.Threshold = ThresholdLiveScores
	}
	if opts.TimeWindow <= 0 {
		opts.TimeWindow = WindowLive
	}
	claimed := make(map[string]bool, len(db))
	var out []Match

	for _, se := range scraped {
		var best *Match
		for i := range db {
			ev := db[i]
			if claimed[ev.ID] {
				continue
			}
			if !withinWindow(se, ev, opts.Now, opts.TimeWindow) {
				continue
			}

			homeConf := MatchTeamNames(se.HomeTeam, ev.HomeTeamName)
			awayConf := MatchTeamNames(se.AwayTeam, ev.AwayTeamName)
			overall := (homeConf + awayConf) / 2

			if opts.RequireBothTeams {
				if homeConf < opts.Threshold || awayConf < opts.Threshold {
					continue
				}
			} else if overall < opts.Threshold {
				continue
			}

			if best == nil || overall > best.OverallConf {
				best = &Match{
					Event:       ev,
					Scraped:     se,
					HomeConf:    homeConf,
					AwayConf:    awayConf,
					OverallConf: overall,
				}
			}
		}
		if best != nil {
			claimed[best.Event.ID] = true
			out = append(out, *best)
		}
	}
	return out
}

// MatchTeamNames scores two team names: 1 when canonical forms coincide,
// otherwise the better of raw-name and canonical-name similarity.
func MatchTeamNames(a, b string) float64 {
	na := teams.Normalize(a)
	nb := teams.Normalize(b)
	if na != "" && strings.EqualFold(na, nb) {
		return 1
	}
	raw := teams.Similarity(a, b)
	norm := teams.Similarity(na, nb)
	if norm > raw {
		return norm
	}
	return raw
}

func withinWindow(se models.ScrapedEvent, ev models.EventToMatch, now time.Time, window time.Duration) bool {
	anchor := now
	if se.StartTime != nil {
		anchor = *se.StartTime
	} else if anchor.IsZero() {
		// No start time on the row and no anchor from the caller: the
		// window cannot be applied.
		return true
	}
	d := ev.StartTime.Sub(anchor)
	if d < 0 {
		d = -d
	}
	return d <= window
}
