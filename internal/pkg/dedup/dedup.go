package dedup

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/scorewise/scorewise/internal/pkg/matching"
	"github.com/scorewise/scorewise/internal/pkg/models"
	"github.com/scorewise/scorewise/internal/pkg/teams"
)

// fuzzyWindow brackets how far apart two sources may place the same kickoff
// before fuzzy dedup refuses to merge them.
const fuzzyWindow = 2 * time.Hour

// How an incoming fixture was resolved.
const (
	MatchedByExternalID = "external_id"
	MatchedByFuzzy      = "fuzzy"
	MatchedNew          = "new"
)

// Store is the slice of the relational store the deduplicator needs.
type Store interface {
	EventBySourceID(ctx context.Context, source, externalID string) (*models.Event, error)
	EventsNear(ctx context.Context, sportID int64, around time.Time, window time.Duration) ([]models.Event, error)
	AttachExternalID(ctx context.Context, eventID, source, externalID string) error
	InsertEvent(ctx context.Context, ev *models.Event) error
	SportBySlug(ctx context.Context, slug string) (*models.Sport, error)
	FindOrCreateCompetition(ctx context.Context, sportID int64, name string) (*models.Competition, error)
}

// Result reports how one fixture was folded into the events table.
type Result struct {
	EventID    string
	IsNew      bool
	MatchedBy  string
	Confidence float64

	// MatchedSource is a source the matched event was already known by,
	// empty for new events.
	MatchedSource string
}

// Deduplicator folds scraped fixtures from many sources into single canonical
// events.
type Deduplicator struct {
	store    Store
	resolver *teams.Resolver
}

func New(store Store, resolver *teams.Resolver) *Deduplicator {
	return &Deduplicator{store: store, resolver: resolver}
}

// FindOrCreateEvent resolves a fixture to an existing event or creates a new
// one.
//
// Order: exact hit on this source's external ID; fuzzy match against events
// of the same sport within two hours of kickoff, requiring both team names
// at >= 0.80, which attaches this source's ID to the winner; otherwise a new
// scheduled event with its default match-winner market.
func (d *Deduplicator) FindOrCreateEvent(ctx context.Context, sportSlug string, fx models.ScrapedFixture) (*Result, error) {
	if fx.ExternalID != "" {
		ev, err := d.store.EventBySourceID(ctx, fx.Source, fx.ExternalID)
		if err != nil {
			return nil, fmt.Errorf("lookup by external id: %w", err)
		}
		if ev != nil {
			return &Result{EventID: ev.ID, MatchedBy: MatchedByExternalID, Confidence: 1, MatchedSource: fx.Source}, nil
		}
	}

	sport, err := d.store.SportBySlug(ctx, sportSlug)
	if err != nil {
		return nil, err
	}

	candidates, err := d.store.EventsNear(ctx, sport.ID, fx.StartTime, fuzzyWindow)
	if err != nil {
		return nil, fmt.Errorf("load nearby events: %w", err)
	}
	if ev, conf := bestFuzzy(candidates, fx); ev != nil {
		if fx.ExternalID != "" {
			if err := d.store.AttachExternalID(ctx, ev.ID, fx.Source, fx.ExternalID); err != nil {
				return nil, fmt.Errorf("attach external id: %w", err)
			}
		}
		slog.Debug("fixture merged into existing event",
			"source", fx.Source, "event_id", ev.ID, "confidence", conf)
		return &Result{EventID: ev.ID, MatchedBy: MatchedByFuzzy, Confidence: conf, MatchedSource: knownSource(ev)}, nil
	}

	return d.createEvent(ctx, sport, fx)
}

// knownSource returns one source the event already carries an external ID
// for, alphabetically first so the answer is stable.
func knownSource(ev *models.Event) string {
	keys := make([]string, 0, len(ev.ExternalIDs))
	for s := range ev.ExternalIDs {
		keys = append(keys, s)
	}
	sort.Strings(keys)
	if len(keys) == 0 {
		return ""
	}
	return keys[0]
}

// bestFuzzy picks the nearby event whose team names both clear the dedup
// threshold, preferring the highest combined confidence.
func bestFuzzy(candidates []models.Event, fx models.ScrapedFixture) (*models.Event, float64) {
	var best *models.Event
	bestConf := 0.0
	for i := range candidates {
		ev := &candidates[i]
		homeConf := matching.MatchTeamNames(fx.HomeTeam, ev.HomeTeamName)
		awayConf := matching.MatchTeamNames(fx.AwayTeam, ev.AwayTeamName)
		if homeConf < matching.ThresholdDedup || awayConf < matching.ThresholdDedup {
			continue
		}
		if conf := (homeConf + awayConf) / 2; conf > bestConf {
			best = ev
			bestConf = conf
		}
	}
	return best, bestConf
}

func (d *Deduplicator) createEvent(ctx context.Context, sport *models.Sport, fx models.ScrapedFixture) (*Result, error) {
	homeID, err := d.resolver.FindOrCreateTeam(ctx, fx.HomeTeam, fx.Source)
	if err != nil {
		return nil, fmt.Errorf("resolve home team: %w", err)
	}
	awayID, err := d.resolver.FindOrCreateTeam(ctx, fx.AwayTeam, fx.Source)
	if err != nil {
		return nil, fmt.Errorf("resolve away team: %w", err)
	}

	compName := fx.CompetitionName
	if compName == "" {
		compName = "Unknown"
	}
	comp, err := d.store.FindOrCreateCompetition(ctx, sport.ID, compName)
	if err != nil {
		return nil, err
	}

	ev := &models.Event{
		SportID:         sport.ID,
		CompetitionID:   comp.ID,
		CompetitionName: comp.Name,
		HomeTeamID:      homeID,
		AwayTeamID:      awayID,
		HomeTeamName:    teams.Normalize(fx.HomeTeam),
		AwayTeamName:    teams.Normalize(fx.AwayTeam),
		StartTime:       fx.StartTime,
		Status:          models.StatusScheduled,
	}
	if fx.ExternalID != "" {
		ev.ExternalIDs = map[string]string{fx.Source: fx.ExternalID}
	}
	if err := d.store.InsertEvent(ctx, ev); err != nil {
		return nil, fmt.Errorf("insert event: %w", err)
	}

	slog.Info("created event",
		"event_id", ev.ID, "home", ev.HomeTeamName, "away", ev.AwayTeamName,
		"start", ev.StartTime, "source", fx.Source)
	return &Result{EventID: ev.ID, IsNew: true, MatchedBy: MatchedNew}, nil
}
