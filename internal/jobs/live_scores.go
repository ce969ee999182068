// Package jobs holds the drivers behind the scheduled entrypoints. Each
// driver brackets its work with a scraper run row and translates orchestrator
// output into storage writes.
package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/scorewise/scorewise/internal/pkg/models"
	"github.com/scorewise/scorewise/internal/pkg/runtrack"
)

// LiveCollector is the live-scores orchestrator surface.
type LiveCollector interface {
	Collect(ctx context.Context, sport string, events []models.EventToMatch) models.LiveScoresResult
}

// LiveStore is the storage surface of the live-scores job.
type LiveStore interface {
	LiveCandidates(ctx context.Context, now time.Time) ([]models.EventToMatch, error)
	ApplyLiveScore(ctx context.Context, score models.LiveScore) (becameFinished bool, err error)
}

// Settlement publishes finished-event notifications downstream.
type Settlement interface {
	EventFinished(ctx context.Context, eventID string, homeScore, awayScore int) error
}

// SyncLiveScores refreshes scores for everything currently in play and fires
// settlement for events that just finished.
type SyncLiveScores struct {
	store     LiveStore
	collector LiveCollector
	queue     Settlement
	tracker   *runtrack.Tracker
	sports    []string
	now       func() time.Time
}

func NewSyncLiveScores(store LiveStore, collector LiveCollector, queue Settlement, tracker *runtrack.Tracker, sports []string) *SyncLiveScores {
	return &SyncLiveScores{
		store:     store,
		collector: collector,
		queue:     queue,
		tracker:   tracker,
		sports:    sports,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

func (j *SyncLiveScores) Run(ctx context.Context, requestID string) error {
	run, err := j.tracker.Start(ctx, models.JobSyncLiveScores, requestID)
	if err != nil {
		return err
	}

	candidates, err := j.store.LiveCandidates(ctx, j.now())
	if err != nil {
		_ = run.Fail(ctx, err)
		return fmt.Errorf("load live candidates: %w", err)
	}
	if len(candidates) == 0 {
		slog.Info("no events in play")
		return run.Complete(ctx)
	}

	bySport := make(map[string][]models.EventToMatch)
	for _, ev := range candidates {
		bySport[ev.SportSlug] = append(bySport[ev.SportSlug], ev)
	}

	for _, sport := range j.sports {
		events := bySport[sport]
		if len(events) == 0 {
			continue
		}
		result := j.collector.Collect(ctx, sport, events)
		slog.Info("live scores collected",
			"sport", sport, "events", len(events),
			"matched", result.Matched, "unmatched", result.Unmatched)

		for _, score := range result.Scores {
			run.Processed(sport)
			becameFinished, err := j.store.ApplyLiveScore(ctx, score)
			if err != nil {
				slog.Error("failed to apply live score",
					"event_id", score.EventID, "source", score.Source, "error", err)
				run.Failed(sport)
				continue
			}
			run.Updated(sport)

			if becameFinished {
				if err := j.queue.EventFinished(ctx, score.EventID, score.HomeScore, score.AwayScore); err != nil {
					slog.Error("failed to enqueue settlement", "event_id", score.EventID, "error", err)
					run.Failed(sport)
				}
			}
		}
	}
	return run.Complete(ctx)
}
