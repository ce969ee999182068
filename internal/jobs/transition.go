package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/scorewise/scorewise/internal/pkg/models"
	"github.com/scorewise/scorewise/internal/pkg/runtrack"
)

// TransitionStore is the storage surface of the transition job.
type TransitionStore interface {
	TransitionScheduledToLive(ctx context.Context, now time.Time) (int64, error)
}

// TransitionEvents flips scheduled events whose kickoff has passed to live,
// so the live-scores job starts tracking them even before any source
// reports a score.
type TransitionEvents struct {
	store   TransitionStore
	tracker *runtrack.Tracker
	now     func() time.Time
}

func NewTransitionEvents(store TransitionStore, tracker *runtrack.Tracker) *TransitionEvents {
	return &TransitionEvents{
		store:   store,
		tracker: tracker,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

func (j *TransitionEvents) Run(ctx context.Context, requestID string) error {
	run, err := j.tracker.Start(ctx, models.JobTransitionEvents, requestID)
	if err != nil {
		return err
	}

	moved, err := j.store.TransitionScheduledToLive(ctx, j.now())
	if err != nil {
		_ = run.Fail(ctx, err)
		return fmt.Errorf("transition events: %w", err)
	}
	if moved > 0 {
		slog.Info("events moved to live", "count", moved)
	}
	run.UpdatedN("all", int(moved))
	return run.Complete(ctx)
}
