package runtrack

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/scorewise/scorewise/internal/pkg/models"
)

const (
	// highErrorRateThreshold is the failed/processed ratio above which a
	// completed run raises an alert.
	highErrorRateThreshold = 0.10

	// consecutiveFailedRuns is how many failed runs in a row of one job
	// type escalate to a critical alert.
	consecutiveFailedRuns = 3
)

// Store is the slice of the relational store the tracker needs.
type Store interface {
	InsertRun(ctx context.Context, run *models.ScraperRun) error
	FinishRun(ctx context.Context, run *models.ScraperRun) error
	RecentRunStatuses(ctx context.Context, jobType models.JobType, n int) ([]models.RunStatus, error)
	InsertAlert(ctx context.Context, alert *models.ScraperAlert) error
}

// AlertSink forwards a persisted alert to an external channel.
type AlertSink func(models.ScraperAlert)

// Tracker brackets job invocations with scraper_runs rows and raises alerts
// on degraded outcomes.
type Tracker struct {
	store Store
	sink  AlertSink
	now   func() time.Time
}

func New(store Store) *Tracker {
	return &Tracker{store: store, now: func() time.Time { return time.Now().UTC() }}
}

// SetAlertSink attaches an external alert channel, e.g. the notifier.
func (t *Tracker) SetAlertSink(sink AlertSink) {
	t.sink = sink
}

// Start opens a run row in the "running" state.
func (t *Tracker) Start(ctx context.Context, jobType models.JobType, requestID string) (*Run, error) {
	row := models.ScraperRun{
		JobType:         jobType,
		Status:          models.RunRunning,
		StartedAt:       t.now(),
		SportStats:      map[string]models.SportStats{},
		LambdaRequestID: requestID,
	}
	if err := t.store.InsertRun(ctx, &row); err != nil {
		return nil, fmt.Errorf("start run: %w", err)
	}
	slog.Info("run started", "run_id", row.ID, "job", jobType)
	return &Run{tracker: t, row: row}, nil
}

// Run is one in-flight job invocation. Counter methods are safe for
// concurrent use by per-source goroutines.
type Run struct {
	tracker *Tracker

	mu  sync.Mutex
	row models.ScraperRun
}

func (r *Run) ID() string { return r.row.ID }

func (r *Run) add(sport string, f func(*models.SportStats)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stats := r.row.SportStats[sport]
	f(&stats)
	r.row.SportStats[sport] = stats
}

func (r *Run) Processed(sport string) {
	r.add(sport, func(s *models.SportStats) { s.Processed++ })
	r.mu.Lock()
	r.row.ItemsProcessed++
	r.mu.Unlock()
}

func (r *Run) Created(sport string) {
	r.add(sport, func(s *models.SportStats) { s.Created++ })
	r.mu.Lock()
	r.row.ItemsCreated++
	r.mu.Unlock()
}

func (r *Run) Updated(sport string) {
	r.add(sport, func(s *models.SportStats) { s.Updated++ })
	r.mu.Lock()
	r.row.ItemsUpdated++
	r.mu.Unlock()
}

// UpdatedN bumps the updated counters by n at once, for bulk statements.
func (r *Run) UpdatedN(sport string, n int) {
	if n <= 0 {
		return
	}
	r.add(sport, func(s *models.SportStats) { s.Updated += n })
	r.mu.Lock()
	r.row.ItemsUpdated += n
	r.row.ItemsProcessed += n
	r.mu.Unlock()
}

func (r *Run) Failed(sport string) {
	r.add(sport, func(s *models.SportStats) { s.Failed++ })
	r.mu.Lock()
	r.row.ItemsFailed++
	r.mu.Unlock()
}

// Complete closes the run as success, or partial when any item failed. A
// failure ratio above the threshold additionally raises a warning alert.
func (r *Run) Complete(ctx context.Context) error {
	r.mu.Lock()
	now := r.tracker.now()
	r.row.CompletedAt = &now
	r.row.DurationMS = now.Sub(r.row.StartedAt).Milliseconds()
	r.row.Status = models.RunSuccess
	if r.row.ItemsFailed > 0 {
		r.row.Status = models.RunPartial
	}
	row := r.row
	r.mu.Unlock()

	if err := r.tracker.store.FinishRun(ctx, &row); err != nil {
		return fmt.Errorf("complete run: %w", err)
	}
	slog.Info("run completed",
		"run_id", row.ID, "job", row.JobType, "status", row.Status,
		"processed", row.ItemsProcessed, "failed", row.ItemsFailed,
		"took_ms", row.DurationMS)

	if row.ItemsProcessed > 0 {
		rate := float64(row.ItemsFailed) / float64(row.ItemsProcessed)
		if rate > highErrorRateThreshold {
			r.tracker.raise(ctx, models.ScraperAlert{
				RunID:     row.ID,
				AlertType: models.AlertHighErrorRate,
				Severity:  models.SeverityWarning,
				Message: fmt.Sprintf("%s failed %d of %d items (%.0f%%)",
					row.JobType, row.ItemsFailed, row.ItemsProcessed, rate*100),
			})
		}
	}
	return nil
}

// Fail closes the run as failed, and escalates when this makes a streak.
func (r *Run) Fail(ctx context.Context, cause error) error {
	r.mu.Lock()
	now := r.tracker.now()
	r.row.CompletedAt = &now
	r.row.DurationMS = now.Sub(r.row.StartedAt).Milliseconds()
	r.row.Status = models.RunFailed
	if cause != nil {
		r.row.ErrorMessage = cause.Error()
	}
	row := r.row
	r.mu.Unlock()

	if err := r.tracker.store.FinishRun(ctx, &row); err != nil {
		return fmt.Errorf("fail run: %w", err)
	}
	slog.Error("run failed", "run_id", row.ID, "job", row.JobType, "error", cause)

	statuses, err := r.tracker.store.RecentRunStatuses(ctx, row.JobType, consecutiveFailedRuns)
	if err != nil {
		slog.Error("failed to check run streak", "error", err)
		return nil
	}
	if len(statuses) < consecutiveFailedRuns {
		return nil
	}
	for _, st := range statuses {
		if st != models.RunFailed {
			return nil
		}
	}
	r.tracker.raise(ctx, models.ScraperAlert{
		RunID:     row.ID,
		AlertType: models.AlertConsecutiveRunFailed,
		Severity:  models.SeverityCritical,
		Message: fmt.Sprintf("%s failed %d times in a row: %s",
			row.JobType, consecutiveFailedRuns, row.ErrorMessage),
	})
	return nil
}

// LowFixtureCount raises an alert when a sport's fixture haul, after the
// fallback source, is still under its configured floor.
func (r *Run) LowFixtureCount(ctx context.Context, sport string, got, want int) {
	r.tracker.raise(ctx, models.ScraperAlert{
		RunID:     r.ID(),
		AlertType: models.AlertLowFixtureCount,
		Severity:  models.SeverityWarning,
		Message:   fmt.Sprintf("only %d %s fixtures found, expected at least %d", got, sport, want),
		Metadata:  map[string]string{"sport": sport},
	})
}

// RecordAlert persists an alert produced elsewhere (e.g. the source health
// tracker) under this run.
func (r *Run) RecordAlert(ctx context.Context, alert models.ScraperAlert) {
	alert.RunID = r.ID()
	r.tracker.raise(ctx, alert)
}

func (t *Tracker) raise(ctx context.Context, alert models.ScraperAlert) {
	if alert.CreatedAt.IsZero() {
		alert.CreatedAt = t.now()
	}
	if err := t.store.InsertAlert(ctx, &alert); err != nil {
		slog.Error("failed to persist alert", "type", alert.AlertType, "error", err)
	}
	if t.sink != nil {
		t.sink(alert)
	}
	slog.Warn("alert raised", "type", alert.AlertType, "severity", alert.Severity, "message", alert.Message)
}
