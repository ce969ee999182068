package storage

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/scorewise/scorewise/internal/pkg/models"
)

// InsertRun writes the initial "running" row for a job invocation.
func (s *Store) InsertRun(ctx context.Context, run *models.ScraperRun) error {
	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	if run.Status == "" {
		run.Status = models.RunRunning
	}
	_, err := s.db.ExecContext(ctx, `
	INSERT INTO scraper_runs (id, job_type, source, status, started_at, lambda_request_id)
	VALUES ($1, $2, $3, $4, $5, $6)`,
		run.ID, run.JobType, nullString(run.Source), run.Status,
		run.StartedAt, nullString(run.LambdaRequestID))
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

// FinishRun writes the final state and counters of a run.
func (s *Store) FinishRun(ctx context.Context, run *models.ScraperRun) error {
	var sportStats []byte
	if len(run.SportStats) > 0 {
		var err error
		sportStats, err = json.Marshal(run.SportStats)
		if err != nil {
			return fmt.Errorf("marshal sport stats: %w", err)
		}
	}

	_, err := s.db.ExecContext(ctx, `
	UPDATE scraper_runs
	SET status = $1, completed_at = $2, duration_ms = $3,
	    items_processed = $4, items_created = $5, items_updated = $6, items_failed = $7,
	    sport_stats = $8, error_message = $9
	WHERE id = $10`,
		run.Status, run.CompletedAt, run.DurationMS,
		run.ItemsProcessed, run.ItemsCreated, run.ItemsUpdated, run.ItemsFailed,
		nullBytes(sportStats), nullString(run.ErrorMessage), run.ID)
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	return nil
}

// RecentRunStatuses returns the final statuses of the last n completed runs
// of a job type, newest first. Still-running rows are excluded.
func (s *Store) RecentRunStatuses(ctx context.Context, jobType models.JobType, n int) ([]models.RunStatus, error) {
	rows, err := s.db.QueryContext(ctx, `
	SELECT status FROM scraper_runs
	WHERE job_type = $1 AND status <> 'running'
	ORDER BY started_at DESC
	LIMIT $2`, jobType, n)
	if err != nil {
		return nil, fmt.Errorf("recent run statuses: %w", err)
	}
	defer rows.Close()

	var out []models.RunStatus
	for rows.Next() {
		var st models.RunStatus
		if err := rows.Scan(&st); err != nil {
			return nil, fmt.Errorf("scan run status: %w", err)
		}
		out = append(out, st)
	}
	return out, rows.Err()
}

// InsertAlert persists a threshold-crossing alert.
func (s *Store) InsertAlert(ctx context.Context, alert *models.ScraperAlert) error {
	if alert.ID == "" {
		alert.ID = uuid.NewString()
	}
	var metadata []byte
	if len(alert.Metadata) > 0 {
		var err error
		metadata, err = json.Marshal(alert.Metadata)
		if err != nil {
			return fmt.Errorf("marshal alert metadata: %w", err)
		}
	}

	_, err := s.db.ExecContext(ctx, `
	INSERT INTO scraper_alerts (id, run_id, alert_type, severity, message, metadata, created_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		alert.ID, nullString(alert.RunID), alert.AlertType, alert.Severity,
		alert.Message, nullBytes(metadata), alert.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert alert: %w", err)
	}
	return nil
}

func nullBytes(b []byte) any {
	if len(b) == 0 {
		return nil
	}
	return b
}
