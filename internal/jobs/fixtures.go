package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/scorewise/scorewise/internal/pkg/dedup"
	"github.com/scorewise/scorewise/internal/pkg/models"
	"github.com/scorewise/scorewise/internal/pkg/runtrack"
	"github.com/scorewise/scorewise/internal/scraper/orchestrator"
)

// FixturesCollector is the fixtures orchestrator surface.
type FixturesCollector interface {
	Collect(ctx context.Context, sport string, from time.Time) orchestrator.FixturesResult
}

// Folder resolves one scraped fixture into the canonical events table.
type Folder interface {
	FindOrCreateEvent(ctx context.Context, sportSlug string, fx models.ScrapedFixture) (*dedup.Result, error)
}

// SyncFixtures pulls the upcoming card and folds it into canonical events.
type SyncFixtures struct {
	folder    Folder
	collector FixturesCollector
	tracker   *runtrack.Tracker
	sports    []string
	now       func() time.Time
}

func NewSyncFixtures(folder Folder, collector FixturesCollector, tracker *runtrack.Tracker, sports []string) *SyncFixtures {
	return &SyncFixtures{
		folder:    folder,
		collector: collector,
		tracker:   tracker,
		sports:    sports,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

func (j *SyncFixtures) Run(ctx context.Context, requestID string) error {
	run, err := j.tracker.Start(ctx, models.JobSyncFixtures, requestID)
	if err != nil {
		return err
	}

	var firstErr error
	for _, sport := range j.sports {
		result := j.collector.Collect(ctx, sport, j.now())

		created, merged := 0, 0
		for _, fx := range result.Fixtures {
			run.Processed(sport)
			res, err := j.folder.FindOrCreateEvent(ctx, sport, fx)
			if err != nil {
				slog.Error("failed to fold fixture",
					"sport", sport, "source", fx.Source,
					"home", fx.HomeTeam, "away", fx.AwayTeam, "error", err)
				run.Failed(sport)
				if firstErr == nil {
					firstErr = err
				}
				continue
			}
			if res.IsNew {
				run.Created(sport)
				created++
			} else {
				run.Updated(sport)
				merged++
			}
		}

		slog.Info("fixtures synced",
			"sport", sport, "fetched", len(result.Fixtures),
			"created", created, "merged", merged)
		if result.BelowFloor {
			run.LowFixtureCount(ctx, sport, len(result.Fixtures), result.Floor)
		}
	}

	if err := run.Complete(ctx); err != nil {
		return err
	}
	if firstErr != nil {
		return fmt.Errorf("fixtures sync had failures: %w", firstErr)
	}
	return nil
}
