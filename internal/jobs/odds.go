package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/scorewise/scorewise/internal/pkg/models"
	"github.com/scorewise/scorewise/internal/pkg/runtrack"
)

// oddsHorizon is how far ahead the odds job prices events.
const oddsHorizon = 48 * time.Hour

// OddsCollector is the odds orchestrator surface.
type OddsCollector interface {
	Collect(ctx context.Context, sport string, events []models.EventToMatch) map[string]models.NormalizedOdds
}

// OddsStore is the storage surface of the odds job.
type OddsStore interface {
	UpcomingEvents(ctx context.Context, now time.Time, horizon time.Duration) ([]models.EventToMatch, error)
	MainMarketOddsSource(ctx context.Context, eventID string) (string, error)
	UpsertMatchWinnerOdds(ctx context.Context, eventID string, odds models.NormalizedOdds) error
}

// SyncOdds refreshes pre-match prices. Sources have a fixed precedence: a
// price written by a preferred source is never replaced by a lesser one,
// only refreshed by the same or a better source.
type SyncOdds struct {
	store     OddsStore
	collector OddsCollector
	tracker   *runtrack.Tracker
	sports    []string

	// precedence maps source name to its rank, lower is better.
	precedence map[string]int
	now        func() time.Time
}

func NewSyncOdds(store OddsStore, collector OddsCollector, tracker *runtrack.Tracker, sports, sourceOrder []string) *SyncOdds {
	precedence := make(map[string]int, len(sourceOrder))
	for i, name := range sourceOrder {
		precedence[name] = i
	}
	return &SyncOdds{
		store:      store,
		collector:  collector,
		tracker:    tracker,
		sports:     sports,
		precedence: precedence,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

func (j *SyncOdds) Run(ctx context.Context, requestID string) error {
	run, err := j.tracker.Start(ctx, models.JobSyncOdds, requestID)
	if err != nil {
		return err
	}

	upcoming, err := j.store.UpcomingEvents(ctx, j.now(), oddsHorizon)
	if err != nil {
		_ = run.Fail(ctx, err)
		return fmt.Errorf("load upcoming events: %w", err)
	}

	bySport := make(map[string][]models.EventToMatch)
	for _, ev := range upcoming {
		bySport[ev.SportSlug] = append(bySport[ev.SportSlug], ev)
	}

	for _, sport := range j.sports {
		events := bySport[sport]
		if len(events) == 0 {
			continue
		}
		priced := j.collector.Collect(ctx, sport, events)

		for eventID, odds := range priced {
			run.Processed(sport)
			keep, err := j.shouldWrite(ctx, eventID, odds.Source)
			if err != nil {
				run.Failed(sport)
				continue
			}
			if !keep {
				continue
			}
			if err := j.store.UpsertMatchWinnerOdds(ctx, eventID, odds); err != nil {
				slog.Error("failed to write odds", "event_id", eventID, "source", odds.Source, "error", err)
				run.Failed(sport)
				continue
			}
			run.Updated(sport)
		}
		slog.Info("odds synced", "sport", sport, "events", len(events), "priced", len(priced))
	}
	return run.Complete(ctx)
}

// shouldWrite enforces source precedence against whatever priced the event
// last.
func (j *SyncOdds) shouldWrite(ctx context.Context, eventID, source string) (bool, error) {
	current, err := j.store.MainMarketOddsSource(ctx, eventID)
	if err != nil {
		return false, err
	}
	if current == "" || current == source {
		return true, nil
	}
	curRank, curKnown := j.precedence[current]
	newRank, newKnown := j.precedence[source]
	if !curKnown {
		// Whatever wrote it is no longer configured; take over.
		return true, nil
	}
	if !newKnown {
		return false, nil
	}
	return newRank <= curRank, nil
}
