package orchestrator

import (
	"context"
	"testing"
	"time"

	"github.com/scorewise/scorewise/internal/pkg/models"
	"github.com/scorewise/scorewise/internal/pkg/sourcehealth"
	"github.com/scorewise/scorewise/internal/scraper/sources"
)

type fakeFixturesSource struct {
	name     string
	fixtures []models.ScrapedFixture
	err      error
	calls    int
}

func (f *fakeFixturesSource) Name() string { return f.name }

func (f *fakeFixturesSource) Fixtures(_ context.Context, _ string, day time.Time) ([]models.ScrapedFixture, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	// Return everything on the first day only so multi-day walks do not
	// multiply the canned data.
	if f.calls > 1 {
		return nil, nil
	}
	return f.fixtures, nil
}

func fixturesHandle(src sources.Source) SourceHandle {
	return SourceHandle{
		Info:  sources.Info{Name: src.Name()},
		Build: func() (sources.Source, Release, error) { return src, func(error) {}, nil },
	}
}

func fixture(home, away, source string, start time.Time) models.ScrapedFixture {
	return models.ScrapedFixture{
		HomeTeam:   home,
		AwayTeam:   away,
		StartTime:  start,
		ExternalID: source + "-" + home,
		Source:     source,
	}
}

func newFixturesForTest(minPerSport map[string]int, handles ...SourceHandle) *Fixtures {
	return NewFixtures(sourcehealth.NewTracker(nil), handles, time.Minute, 3, minPerSport)
}

func TestCollectPrimaryCoversFloor(t *testing.T) {
	start := time.Date(2026, 3, 14, 15, 0, 0, 0, time.UTC)
	primary := &fakeFixturesSource{name: "alpha", fixtures: []models.ScrapedFixture{
		fixture("Arsenal", "Chelsea", "alpha", start),
		fixture("Liverpool", "Everton", "alpha", start),
	}}
	fallback := &fakeFixturesSource{name: "beta"}

	o := newFixturesForTest(map[string]int{"football": 2}, fixturesHandle(primary), fixturesHandle(fallback))
	result := o.Collect(context.Background(), "football", start)

	if len(result.Fixtures) != 2 || result.BelowFloor {
		t.Fatalf("got %d fixtures (below=%v), want 2 above floor", len(result.Fixtures), result.BelowFloor)
	}
	if fallback.calls != 0 {
		t.Errorf("fallback called %d times while primary covered the floor, want 0", fallback.calls)
	}
}

func TestCollectFallbackUnderFloorAndDedup(t *testing.T) {
	start := time.Date(2026, 3, 14, 15, 0, 0, 0, time.UTC)
	primary := &fakeFixturesSource{name: "alpha", fixtures: []models.ScrapedFixture{
		fixture("Arsenal FC", "Chelsea FC", "alpha", start),
	}}
	fallback := &fakeFixturesSource{name: "beta", fixtures: []models.ScrapedFixture{
		// Same match, different spelling and 20 minutes of drift: must
		// collapse into the primary's row.
		fixture("Arsenal", "Chelsea", "beta", start.Add(20*time.Minute)),
		fixture("Leeds", "Villa", "beta", start),
	}}

	o := newFixturesForTest(map[string]int{"football": 3}, fixturesHandle(primary), fixturesHandle(fallback))
	result := o.Collect(context.Background(), "football", start)

	if len(result.Fixtures) != 2 {
		t.Fatalf("fixtures = %d, want 2 (duplicate collapsed)", len(result.Fixtures))
	}
	if result.Fixtures[0].Source != "alpha" {
		t.Errorf("first reporter should win, got %q", result.Fixtures[0].Source)
	}
	if !result.BelowFloor {
		t.Error("haul of 2 under floor of 3 not flagged")
	}
}

func TestCollectPrimaryFailureFallsBack(t *testing.T) {
	start := time.Date(2026, 3, 14, 15, 0, 0, 0, time.UTC)
	primary := &fakeFixturesSource{name: "alpha", err: context.DeadlineExceeded}
	fallback := &fakeFixturesSource{name: "beta", fixtures: []models.ScrapedFixture{
		fixture("Arsenal", "Chelsea", "beta", start),
	}}

	o := newFixturesForTest(map[string]int{"football": 1}, fixturesHandle(primary), fixturesHandle(fallback))
	result := o.Collect(context.Background(), "football", start)

	if len(result.Fixtures) != 1 {
		t.Fatalf("fixtures = %d, want 1 from fallback", len(result.Fixtures))
	}
	if o.health.ConsecutiveFailures("alpha") != 1 {
		t.Error("primary failure not recorded")
	}
}
