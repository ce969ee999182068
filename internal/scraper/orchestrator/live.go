package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"sort"
	"time"

	"github.com/scorewise/scorewise/internal/pkg/httpx"
	"github.com/scorewise/scorewise/internal/pkg/matching"
	"github.com/scorewise/scorewise/internal/pkg/models"
	"github.com/scorewise/scorewise/internal/pkg/sourcehealth"
	"github.com/scorewise/scorewise/internal/scraper/sources"
)

const (
	// earlyExitCoverage stops the live rotation once this share of the
	// wanted events has a score from free sources.
	earlyExitCoverage = 0.8

	// rotationJitter smears the least-recently-used ordering so sources
	// are not hit in a perfectly predictable sequence.
	rotationJitter = 30 * time.Second
)

// Live rotates over live-scores sources, matching what they report onto the
// events we are tracking.
type Live struct {
	health        *sourcehealth.Tracker
	handles       []SourceHandle
	sourceTimeout time.Duration

	lastUsed map[string]time.Time
	now      func() time.Time
	rng      *rand.Rand
}

func NewLive(health *sourcehealth.Tracker, handles []SourceHandle, sourceTimeout time.Duration) *Live {
	return &Live{
		health:        health,
		handles:       handles,
		sourceTimeout: sourceTimeout,
		lastUsed:      make(map[string]time.Time),
		now:           func() time.Time { return time.Now().UTC() },
		rng:           rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Collect gathers live scores for one sport. Sources are tried least
// recently used first (with jitter); each event keeps the first score that
// matched it. Once free sources have covered 80% of the wanted events the
// rotation stops, leaving paid proxy bandwidth unspent.
func (o *Live) Collect(ctx context.Context, sport string, events []models.EventToMatch) models.LiveScoresResult {
	result := models.LiveScoresResult{Scores: make(map[string]models.LiveScore)}
	if len(events) == 0 {
		return result
	}

	for _, h := range o.rotation() {
		if err := ctx.Err(); err != nil {
			break
		}
		name := h.Info.Name
		if o.health.IsSourceDown(name) {
			slog.Debug("skipping source in cooldown", "source", name)
			continue
		}

		scraped, err := o.scrapeOne(ctx, h, sport)
		if errors.Is(err, ErrNoProxy) {
			slog.Debug("skipping proxy-required source, no proxy configured", "source", name)
			continue
		}
		if errors.Is(err, errNotCapable) {
			continue
		}
		if err != nil {
			o.health.RecordFailure(name, failureReason(err))
			continue
		}
		o.health.RecordSuccess(name)
		o.lastUsed[name] = o.now()

		matches := matching.MatchEvents(scraped, events, matching.Options{
			Threshold:        matching.ThresholdLiveScores,
			RequireBothTeams: true,
			TimeWindow:       matching.WindowLive,
		})
		for _, m := range matches {
			if _, taken := result.Scores[m.Event.ID]; taken {
				continue
			}
			result.Scores[m.Event.ID] = models.LiveScore{
				EventID:    m.Event.ID,
				HomeScore:  m.Scraped.HomeScore,
				AwayScore:  m.Scraped.AwayScore,
				Period:     m.Scraped.Period,
				Minute:     m.Scraped.Minute,
				IsFinished: m.Scraped.IsFinished,
				Source:     name,
				Confidence: m.OverallConf,
			}
		}
		result.Unmatched += len(scraped) - len(matches)

		coverage := float64(len(result.Scores)) / float64(len(events))
		slog.Info("live source done",
			"source", name, "sport", sport,
			"scraped", len(scraped), "matched", len(matches), "coverage", fmt.Sprintf("%.2f", coverage))
		if h.Info.Free() && coverage >= earlyExitCoverage {
			break
		}
	}

	result.Matched = len(result.Scores)
	return result
}

// errNotCapable marks a handle whose source does not implement the needed
// capability; not a health event.
var errNotCapable = errors.New("source lacks capability")

func (o *Live) scrapeOne(ctx context.Context, h SourceHandle, sport string) ([]models.ScrapedEvent, error) {
	src, release, err := h.Build()
	if err != nil {
		return nil, err
	}
	ls, ok := src.(sources.LiveScoresSource)
	if !ok {
		release(nil)
		return nil, errNotCapable
	}

	srcCtx, cancel := context.WithTimeout(ctx, o.sourceTimeout)
	defer cancel()
	scraped, err := ls.LiveScores(srcCtx, sport)
	release(err)
	return scraped, err
}

// rotation orders handles least recently used first, each timestamp smeared
// by up to ±30s of jitter. Never-used sources sort before everything.
func (o *Live) rotation() []SourceHandle {
	out := make([]SourceHandle, len(o.handles))
	copy(out, o.handles)

	keys := make(map[string]time.Time, len(out))
	for _, h := range out {
		jitter := time.Duration(o.rng.Int63n(int64(2*rotationJitter))) - rotationJitter
		keys[h.Info.Name] = o.lastUsed[h.Info.Name].Add(jitter)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return keys[out[i].Info.Name].Before(keys[out[j].Info.Name])
	})
	return out
}

// failureReason condenses a source error into a health-tracker reason,
// keeping blocked responses distinguishable.
func failureReason(err error) string {
	var blocked *httpx.BlockedError
	if errors.As(err, &blocked) {
		return fmt.Sprintf("blocked (%d)", blocked.StatusCode)
	}
	msg := err.Error()
	if len(msg) > 120 {
		msg = msg[:120]
	}
	return msg
}
