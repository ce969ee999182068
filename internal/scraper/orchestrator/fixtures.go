package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/scorewise/scorewise/internal/pkg/models"
	"github.com/scorewise/scorewise/internal/pkg/sourcehealth"
	"github.com/scorewise/scorewise/internal/pkg/teams"
	"github.com/scorewise/scorewise/internal/scraper/sources"
)

// Fixtures collects upcoming matches. The first handle is the primary
// source; the rest are fallbacks consulted only when the primary's haul for
// a sport stays under its configured floor.
type Fixtures struct {
	health        *sourcehealth.Tracker
	handles       []SourceHandle
	sourceTimeout time.Duration
	days          int
	minPerSport   map[string]int
}

func NewFixtures(health *sourcehealth.Tracker, handles []SourceHandle, sourceTimeout time.Duration, days int, minPerSport map[string]int) *Fixtures {
	if days <= 0 {
		days = 7
	}
	return &Fixtures{
		health:        health,
		handles:       handles,
		sourceTimeout: sourceTimeout,
		days:          days,
		minPerSport:   minPerSport,
	}
}

// FixturesResult carries the deduplicated fixtures plus whether the haul
// stayed under the sport's floor even after fallbacks.
type FixturesResult struct {
	Fixtures   []models.ScrapedFixture
	BelowFloor bool
	Floor      int
}

// Collect walks the configured horizon day by day. Fixtures reported by
// several sources are collapsed on (normalized teams, kickoff hour); the
// first reporting source wins.
func (o *Fixtures) Collect(ctx context.Context, sport string, from time.Time) FixturesResult {
	floor := o.minPerSport[sport]
	seen := make(map[string]bool)
	var out []models.ScrapedFixture

	for i, h := range o.handles {
		if err := ctx.Err(); err != nil {
			break
		}
		// Fallback sources only run while the haul is short.
		if i > 0 && len(out) >= floor {
			break
		}
		name := h.Info.Name
		if o.health.IsSourceDown(name) {
			continue
		}

		fetched, err := o.scrapeAllDays(ctx, h, sport, from)
		if errors.Is(err, ErrNoProxy) || errors.Is(err, errNotCapable) {
			continue
		}
		if err != nil {
			o.health.RecordFailure(name, failureReason(err))
			continue
		}
		o.health.RecordSuccess(name)

		added := 0
		for _, fx := range fetched {
			key := fixtureKey(sport, fx)
			if seen[key] {
				continue
			}
			seen[key] = true
			out = append(out, fx)
			added++
		}
		slog.Info("fixtures source done",
			"source", name, "sport", sport, "fetched", len(fetched), "added", added)
	}

	return FixturesResult{
		Fixtures:   out,
		BelowFloor: len(out) < floor,
		Floor:      floor,
	}
}

func (o *Fixtures) scrapeAllDays(ctx context.Context, h SourceHandle, sport string, from time.Time) ([]models.ScrapedFixture, error) {
	src, release, err := h.Build()
	if err != nil {
		return nil, err
	}
	fs, ok := src.(sources.FixturesSource)
	if !ok {
		release(nil)
		return nil, errNotCapable
	}

	// One hard deadline covers the whole source, not each day.
	srcCtx, cancel := context.WithTimeout(ctx, o.sourceTimeout)
	defer cancel()

	var out []models.ScrapedFixture
	var lastErr error
	for day := 0; day < o.days; day++ {
		fixtures, err := fs.Fixtures(srcCtx, sport, from.AddDate(0, 0, day))
		if err != nil {
			lastErr = err
			break
		}
		out = append(out, fixtures...)
	}
	if len(out) == 0 && lastErr != nil {
		release(lastErr)
		return nil, lastErr
	}
	release(nil)
	if lastErr != nil {
		slog.Warn("fixtures source partially failed", "source", h.Info.Name, "error", lastErr)
	}
	return out, nil
}

// fixtureKey collapses the same real-world match reported by different
// sources: sport, canonical team names, kickoff bucketed to the hour.
func fixtureKey(sport string, fx models.ScrapedFixture) string {
	return fmt.Sprintf("%s|%s|%s|%s",
		sport,
		strings.ToLower(teams.Normalize(fx.HomeTeam)),
		strings.ToLower(teams.Normalize(fx.AwayTeam)),
		fx.StartTime.UTC().Truncate(time.Hour).Format(time.RFC3339))
}
