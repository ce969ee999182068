package models

import (
	"time"
)

// JobType identifies a scheduled job.
type JobType string

const (
	JobSyncFixtures     JobType = "sync_fixtures"
	JobSyncOdds         JobType = "sync_odds"
	JobSyncLiveScores   JobType = "sync_live_scores"
	JobTransitionEvents JobType = "transition_events"
	JobSettlePredictions JobType = "settle_predictions"
)

// RunStatus is the final state of a scraper run.
type RunStatus string

const (
	RunRunning RunStatus = "running"
	RunSuccess RunStatus = "success"
	RunPartial RunStatus = "partial"
	RunFailed  RunStatus = "failed"
)

// SportStats is the per-sport counter block serialized to JSON on the run row.
type SportStats struct {
	Processed int `json:"processed"`
	Created   int `json:"created"`
	Updated   int `json:"updated"`
	Failed    int `json:"failed"`
}

// ScraperRun is one job invocation's log row.
type ScraperRun struct {
	ID              string                `json:"id"`
	JobType         JobType               `json:"job_type"`
	Source          string                `json:"source,omitempty"`
	Status          RunStatus             `json:"status"`
	StartedAt       time.Time             `json:"started_at"`
	CompletedAt     *time.Time            `json:"completed_at,omitempty"`
	DurationMS      int64                 `json:"duration_ms"`
	ItemsProcessed  int                   `json:"items_processed"`
	ItemsCreated    int                   `json:"items_created"`
	ItemsUpdated    int                   `json:"items_updated"`
	ItemsFailed     int                   `json:"items_failed"`
	SportStats      map[string]SportStats `json:"sport_stats,omitempty"`
	ErrorMessage    string                `json:"error_message,omitempty"`
	LambdaRequestID string                `json:"lambda_request_id,omitempty"`
}

// AlertSeverity grades a scraper alert.
type AlertSeverity string

const (
	SeverityInfo     AlertSeverity = "info"
	SeverityWarning  AlertSeverity = "warning"
	SeverityCritical AlertSeverity = "critical"
)

// Alert types emitted by the health tracker and run tracker.
const (
	AlertSourceDegraded       = "source_degraded"
	AlertSourceDown           = "source_down"
	AlertLowFixtureCount      = "low_fixture_count"
	AlertHighErrorRate        = "high_error_rate"
	AlertConsecutiveRunFailed = "consecutive_runs_failed"
)

// ScraperAlert is a threshold-crossing notification persisted for the CMS
// dashboards and optionally forwarded to the notifier.
type ScraperAlert struct {
	ID             string            `json:"id"`
	RunID          string            `json:"run_id,omitempty"`
	AlertType      string            `json:"alert_type"`
	Severity       AlertSeverity     `json:"severity"`
	Message        string            `json:"message"`
	Metadata       map[string]string `json:"metadata,omitempty"`
	CreatedAt      time.Time         `json:"created_at"`
	AcknowledgedAt *time.Time        `json:"acknowledged_at,omitempty"`
}
