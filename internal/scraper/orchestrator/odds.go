package orchestrator

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"time"

	"github.com/scorewise/scorewise/internal/pkg/matching"
	"github.com/scorewise/scorewise/internal/pkg/models"
	"github.com/scorewise/scorewise/internal/pkg/sourcehealth"
	"github.com/scorewise/scorewise/internal/scraper/sources"
)

// enoughOddsRows is the point at which the odds rotation stops asking
// further sources; one healthy source covers a day's card comfortably.
const enoughOddsRows = 50

// Odds walks odds sources in configured priority order and prices upcoming
// events. Handle order IS the provenance order: once an event is priced by
// an earlier source, later sources never overwrite it.
type Odds struct {
	health        *sourcehealth.Tracker
	handles       []SourceHandle
	sourceTimeout time.Duration
}

func NewOdds(health *sourcehealth.Tracker, handles []SourceHandle, sourceTimeout time.Duration) *Odds {
	return &Odds{health: health, handles: handles, sourceTimeout: sourceTimeout}
}

// Collect returns the best available 1X2 prices keyed by event ID.
func (o *Odds) Collect(ctx context.Context, sport string, events []models.EventToMatch) map[string]models.NormalizedOdds {
	priced := make(map[string]models.NormalizedOdds)
	if len(events) == 0 {
		return priced
	}

	totalRows := 0
	for _, h := range o.handles {
		if err := ctx.Err(); err != nil {
			break
		}
		name := h.Info.Name
		if o.health.IsSourceDown(name) {
			continue
		}

		rows, err := o.scrapeOne(ctx, h, sport)
		if errors.Is(err, ErrNoProxy) || errors.Is(err, errNotCapable) {
			continue
		}
		if err != nil {
			o.health.RecordFailure(name, failureReason(err))
			continue
		}
		o.health.RecordSuccess(name)
		totalRows += len(rows)

		o.assign(rows, events, priced)
		slog.Info("odds source done",
			"source", name, "sport", sport, "rows", len(rows), "priced", len(priced))

		if totalRows >= enoughOddsRows {
			break
		}
	}
	return priced
}

func (o *Odds) scrapeOne(ctx context.Context, h SourceHandle, sport string) ([]models.NormalizedOdds, error) {
	src, release, err := h.Build()
	if err != nil {
		return nil, err
	}
	os, ok := src.(sources.OddsSource)
	if !ok {
		release(nil)
		return nil, errNotCapable
	}

	srcCtx, cancel := context.WithTimeout(ctx, o.sourceTimeout)
	defer cancel()
	rows, err := os.Odds(srcCtx, sport)
	release(err)
	return rows, err
}

// assign matches odds rows to events, both team names above the odds
// threshold, and records prices for events not yet priced.
func (o *Odds) assign(rows []models.NormalizedOdds, events []models.EventToMatch, priced map[string]models.NormalizedOdds) {
	scraped := make([]models.ScrapedEvent, len(rows))
	for i, r := range rows {
		scraped[i] = models.ScrapedEvent{
			HomeTeam:  r.HomeTeam,
			AwayTeam:  r.AwayTeam,
			StartTime: r.StartTime,
			SourceID:  strconv.Itoa(i),
		}
	}

	matches := matching.MatchEvents(scraped, events, matching.Options{
		Threshold:        matching.ThresholdOdds,
		RequireBothTeams: true,
		TimeWindow:       matching.WindowFixtures,
	})
	for _, m := range matches {
		if _, taken := priced[m.Event.ID]; taken {
			continue
		}
		idx, err := strconv.Atoi(m.Scraped.SourceID)
		if err != nil {
			continue
		}
		priced[m.Event.ID] = rows[idx]
	}
}
