package flashscore

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/scorewise/scorewise/internal/pkg/browser"
	"github.com/scorewise/scorewise/internal/pkg/models"
	"github.com/scorewise/scorewise/internal/scraper/sources"
)

const name = "flashscore"

func init() {
	sources.Register(sources.Info{
		Name:            name,
		RequiresBrowser: true,
		New:             func(deps sources.Deps) sources.Source { return New(deps) },
	})
}

// sportPaths maps our sport slugs to flashscore URL segments.
var sportPaths = map[string]string{
	"football":   "football",
	"basketball": "basketball",
	"tennis":     "tennis",
}

// Scraper drives flashscore.com through a headless page. The markup has
// changed twice in living memory, so every field is read through a selector
// fallback chain.
type Scraper struct {
	deps    sources.Deps
	baseURL string
}

func New(deps sources.Deps) *Scraper {
	return &Scraper{deps: deps, baseURL: "https://www.flashscore.com"}
}

func (s *Scraper) Name() string { return name }

// Selector fallback chains, newest markup first.
var (
	selHome      = []string{".event__homeParticipant", ".event__participant--home"}
	selAway      = []string{".event__awayParticipant", ".event__participant--away"}
	selHomeScore = []string{".event__score--home"}
	selAwayScore = []string{".event__score--away"}
	selStage     = []string{".event__stage--block", ".event__stage"}
	selTime      = []string{".event__time"}
	selRow       = "div.event__match"
)

func textsAny(ctx context.Context, page browser.Page, selectors []string) ([]string, error) {
	for _, sel := range selectors {
		texts, err := page.Texts(ctx, sel)
		if err != nil {
			return nil, err
		}
		if len(texts) > 0 {
			return texts, nil
		}
	}
	return nil, nil
}

type row struct {
	externalID string
	home, away string
	homeScore  string
	awayScore  string
	stage      string
	timeText   string
}

func (s *Scraper) rows(ctx context.Context, url string) ([]row, error) {
	page, err := s.deps.NewPage()
	if err != nil {
		return nil, fmt.Errorf("open page: %w", err)
	}
	defer page.Close()

	if err := page.Navigate(ctx, url); err != nil {
		return nil, err
	}

	ids, err := page.Attrs(ctx, selRow, "id")
	if err != nil {
		return nil, err
	}
	homes, err := textsAny(ctx, page, selHome)
	if err != nil {
		return nil, err
	}
	aways, err := textsAny(ctx, page, selAway)
	if err != nil {
		return nil, err
	}
	homeScores, err := textsAny(ctx, page, selHomeScore)
	if err != nil {
		return nil, err
	}
	awayScores, err := textsAny(ctx, page, selAwayScore)
	if err != nil {
		return nil, err
	}
	stages, err := textsAny(ctx, page, selStage)
	if err != nil {
		return nil, err
	}
	times, err := textsAny(ctx, page, selTime)
	if err != nil {
		return nil, err
	}

	if len(homes) == 0 || len(homes) != len(aways) {
		return nil, fmt.Errorf("flashscore markup mismatch: %d home vs %d away cells", len(homes), len(aways))
	}

	out := make([]row, len(homes))
	for i := range homes {
		out[i] = row{
			home: strings.TrimSpace(homes[i]),
			away: strings.TrimSpace(aways[i]),
		}
		if i < len(ids) {
			out[i].externalID = parseRowID(ids[i])
		}
		if i < len(homeScores) {
			out[i].homeScore = strings.TrimSpace(homeScores[i])
		}
		if i < len(awayScores) {
			out[i].awayScore = strings.TrimSpace(awayScores[i])
		}
		if i < len(stages) {
			out[i].stage = strings.TrimSpace(stages[i])
		}
		if i < len(times) {
			out[i].timeText = strings.TrimSpace(times[i])
		}
	}
	return out, nil
}

// parseRowID extracts the event key from a row id like "g_1_xKdE3fa1".
func parseRowID(id string) string {
	if i := strings.LastIndexByte(id, '_'); i >= 0 {
		return id[i+1:]
	}
	return id
}

func (s *Scraper) LiveScores(ctx context.Context, sport string) ([]models.ScrapedEvent, error) {
	path, ok := sportPaths[sport]
	if !ok {
		return nil, nil
	}
	rows, err := s.rows(ctx, fmt.Sprintf("%s/%s/", s.baseURL, path))
	if err != nil {
		return nil, fmt.Errorf("flashscore live %s: %w", sport, err)
	}

	var out []models.ScrapedEvent
	for _, r := range rows {
		finished := isFinishedStage(r.stage)
		minute := parseMinute(r.stage)
		if !finished && minute == nil && !isBreakStage(r.stage) {
			// Not started yet.
			continue
		}
		homeScore, _ := strconv.Atoi(r.homeScore)
		awayScore, _ := strconv.Atoi(r.awayScore)
		se := models.ScrapedEvent{
			HomeTeam:   r.home,
			AwayTeam:   r.away,
			HomeScore:  homeScore,
			AwayScore:  awayScore,
			Period:     r.stage,
			Minute:     minute,
			IsFinished: finished,
			SourceID:   r.externalID,
			SourceName: name,
		}
		out = append(out, se)
	}
	return out, nil
}

func (s *Scraper) Fixtures(ctx context.Context, sport string, day time.Time) ([]models.ScrapedFixture, error) {
	path, ok := sportPaths[sport]
	if !ok {
		return nil, nil
	}
	offset := dayOffset(day)
	url := fmt.Sprintf("%s/%s/fixtures/", s.baseURL, path)
	if offset != 0 {
		url = fmt.Sprintf("%s/%s/?d=%d", s.baseURL, path, offset)
	}
	rows, err := s.rows(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("flashscore fixtures %s: %w", sport, err)
	}

	var out []models.ScrapedFixture
	for _, r := range rows {
		start, ok := parseKickoff(r.timeText, day)
		if !ok {
			continue
		}
		out = append(out, models.ScrapedFixture{
			HomeTeam:   r.home,
			AwayTeam:   r.away,
			StartTime:  start,
			ExternalID: r.externalID,
			Source:     name,
		})
	}
	return out, nil
}

func dayOffset(day time.Time) int {
	today := time.Now().UTC().Truncate(24 * time.Hour)
	return int(day.UTC().Truncate(24 * time.Hour).Sub(today).Hours() / 24)
}

// parseKickoff reads a time cell like "15:30" against the target day. The
// headless browser runs in UTC, so the rendered times are UTC.
func parseKickoff(text string, day time.Time) (time.Time, bool) {
	parts := strings.SplitN(strings.TrimSpace(text), ":", 2)
	if len(parts) != 2 {
		return time.Time{}, false
	}
	hour, err1 := strconv.Atoi(parts[0])
	minute, err2 := strconv.Atoi(parts[1])
	if err1 != nil || err2 != nil || hour > 23 || minute > 59 {
		return time.Time{}, false
	}
	return time.Date(day.Year(), day.Month(), day.Day(), hour, minute, 0, 0, time.UTC), true
}

func isFinishedStage(stage string) bool {
	switch strings.ToLower(stage) {
	case "finished", "after pens", "after et", "aet", "ft":
		return true
	}
	return false
}

func isBreakStage(stage string) bool {
	switch strings.ToLower(stage) {
	case "half time", "halftime", "break":
		return true
	}
	return false
}

// parseMinute reads a running clock stage like "67" or "90+3".
func parseMinute(stage string) *int {
	stage = strings.TrimSpace(stage)
	if i := strings.IndexByte(stage, '+'); i >= 0 {
		stage = stage[:i]
	}
	n, err := strconv.Atoi(stage)
	if err != nil || n <= 0 {
		return nil
	}
	return &n
}
