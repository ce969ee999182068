package runtrack

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scorewise/scorewise/internal/pkg/models"
)

type fakeRunStore struct {
	inserted []models.ScraperRun
	finished []models.ScraperRun
	alerts   []models.ScraperAlert
	recent   []models.RunStatus
}

func (f *fakeRunStore) InsertRun(_ context.Context, run *models.ScraperRun) error {
	if run.ID == "" {
		run.ID = "run-1"
	}
	f.inserted = append(f.inserted, *run)
	return nil
}

func (f *fakeRunStore) FinishRun(_ context.Context, run *models.ScraperRun) error {
	f.finished = append(f.finished, *run)
	return nil
}

func (f *fakeRunStore) RecentRunStatuses(_ context.Context, _ models.JobType, n int) ([]models.RunStatus, error) {
	if len(f.recent) > n {
		return f.recent[:n], nil
	}
	return f.recent, nil
}

func (f *fakeRunStore) InsertAlert(_ context.Context, alert *models.ScraperAlert) error {
	f.alerts = append(f.alerts, *alert)
	return nil
}

func newTestTracker(store *fakeRunStore) *Tracker {
	t := New(store)
	base := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	calls := 0
	t.now = func() time.Time {
		calls++
		return base.Add(time.Duration(calls) * time.Second)
	}
	return t
}

func TestRunCompleteSuccess(t *testing.T) {
	store := &fakeRunStore{}
	run, err := newTestTracker(store).Start(context.Background(), models.JobSyncFixtures, "req-1")
	require.NoError(t, err)

	run.Processed("football")
	run.Created("football")
	require.NoError(t, run.Complete(context.Background()))

	require.Len(t, store.finished, 1)
	got := store.finished[0]
	assert.Equal(t, models.RunSuccess, got.Status)
	assert.Equal(t, 1, got.ItemsProcessed)
	assert.Equal(t, 1, got.SportStats["football"].Created)
	assert.NotNil(t, got.CompletedAt)
	assert.Greater(t, got.DurationMS, int64(0))
	assert.Empty(t, store.alerts)
}

func TestRunCompletePartialWithHighErrorRate(t *testing.T) {
	store := &fakeRunStore{}
	run, err := newTestTracker(store).Start(context.Background(), models.JobSyncOdds, "")
	require.NoError(t, err)

	for i := 0; i < 10; i++ {
		run.Processed("football")
	}
	run.Failed("football")
	run.Failed("football")
	require.NoError(t, run.Complete(context.Background()))

	assert.Equal(t, models.RunPartial, store.finished[0].Status)
	require.Len(t, store.alerts, 1)
	assert.Equal(t, models.AlertHighErrorRate, store.alerts[0].AlertType)
	assert.Equal(t, models.SeverityWarning, store.alerts[0].Severity)
}

func TestErrorRateAtThresholdDoesNotAlert(t *testing.T) {
	store := &fakeRunStore{}
	run, err := newTestTracker(store).Start(context.Background(), models.JobSyncOdds, "")
	require.NoError(t, err)

	for i := 0; i < 10; i++ {
		run.Processed("football")
	}
	run.Failed("football") // exactly 10%
	require.NoError(t, run.Complete(context.Background()))

	assert.Empty(t, store.alerts)
}

func TestRunFailEscalatesOnStreak(t *testing.T) {
	store := &fakeRunStore{
		recent: []models.RunStatus{models.RunFailed, models.RunFailed, models.RunFailed},
	}
	run, err := newTestTracker(store).Start(context.Background(), models.JobSyncLiveScores, "")
	require.NoError(t, err)

	require.NoError(t, run.Fail(context.Background(), errors.New("all sources down")))

	assert.Equal(t, models.RunFailed, store.finished[0].Status)
	assert.Equal(t, "all sources down", store.finished[0].ErrorMessage)
	require.Len(t, store.alerts, 1)
	assert.Equal(t, models.AlertConsecutiveRunFailed, store.alerts[0].AlertType)
	assert.Equal(t, models.SeverityCritical, store.alerts[0].Severity)
}

func TestRunFailWithoutStreakDoesNotEscalate(t *testing.T) {
	store := &fakeRunStore{
		recent: []models.RunStatus{models.RunFailed, models.RunSuccess, models.RunFailed},
	}
	run, err := newTestTracker(store).Start(context.Background(), models.JobSyncLiveScores, "")
	require.NoError(t, err)

	require.NoError(t, run.Fail(context.Background(), errors.New("timeout")))
	assert.Empty(t, store.alerts)
}

func TestLowFixtureCountAlert(t *testing.T) {
	store := &fakeRunStore{}
	tracker := newTestTracker(store)

	var forwarded []models.ScraperAlert
	tracker.SetAlertSink(func(a models.ScraperAlert) { forwarded = append(forwarded, a) })

	run, err := tracker.Start(context.Background(), models.JobSyncFixtures, "")
	require.NoError(t, err)

	run.LowFixtureCount(context.Background(), "football", 4, 20)

	require.Len(t, store.alerts, 1)
	assert.Equal(t, models.AlertLowFixtureCount, store.alerts[0].AlertType)
	assert.Equal(t, run.ID(), store.alerts[0].RunID)
	require.Len(t, forwarded, 1)
}
