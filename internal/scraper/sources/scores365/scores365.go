package scores365

import (
	"context"
	"fmt"
	"time"

	"github.com/scorewise/scorewise/internal/pkg/models"
	"github.com/scorewise/scorewise/internal/scraper/sources"
)

const name = "scores365"

func init() {
	sources.Register(sources.Info{
		Name: name,
		New:  func(deps sources.Deps) sources.Source { return New(deps) },
	})
}

// sportIDs is 365Scores' numeric sport taxonomy.
var sportIDs = map[string]int{
	"football":   1,
	"basketball": 2,
	"tennis":     3,
}

// Game status groups in the 365Scores feed.
const (
	statusGroupLive     = 3
	statusGroupFinished = 4
)

// Scraper reads the 365Scores web API. Live scores only.
type Scraper struct {
	deps    sources.Deps
	baseURL string
}

func New(deps sources.Deps) *Scraper {
	return &Scraper{deps: deps, baseURL: "https://webws.365scores.com/web"}
}

func (s *Scraper) Name() string { return name }

type gamesResponse struct {
	Games []struct {
		ID             int64      `json:"id"`
		StatusGroup    int        `json:"statusGroup"`
		StatusText     string     `json:"statusText"`
		GameTime       float64    `json:"gameTime"` // minutes played, -1 when n/a
		StartTime      string     `json:"startTime"`
		CompetitionRef string     `json:"competitionDisplayName"`
		HomeCompetitor competitor `json:"homeCompetitor"`
		AwayCompetitor competitor `json:"awayCompetitor"`
	} `json:"games"`
}

type competitor struct {
	Name  string  `json:"name"`
	Score float64 `json:"score"`
}

func (s *Scraper) LiveScores(ctx context.Context, sport string) ([]models.ScrapedEvent, error) {
	sportID, ok := sportIDs[sport]
	if !ok {
		return nil, nil
	}

	var resp gamesResponse
	url := fmt.Sprintf("%s/games/current/?sports=%d", s.baseURL, sportID)
	if err := s.deps.HTTP.GetJSON(ctx, url, &resp); err != nil {
		return nil, fmt.Errorf("365scores live %s: %w", sport, err)
	}

	var out []models.ScrapedEvent
	for _, g := range resp.Games {
		if g.StatusGroup != statusGroupLive && g.StatusGroup != statusGroupFinished {
			continue
		}
		se := models.ScrapedEvent{
			HomeTeam:        g.HomeCompetitor.Name,
			AwayTeam:        g.AwayCompetitor.Name,
			HomeScore:       int(g.HomeCompetitor.Score),
			AwayScore:       int(g.AwayCompetitor.Score),
			Period:          g.StatusText,
			IsFinished:      g.StatusGroup == statusGroupFinished,
			CompetitionName: g.CompetitionRef,
			SourceID:        fmt.Sprintf("%d", g.ID),
			SourceName:      name,
		}
		if g.GameTime > 0 {
			minute := int(g.GameTime)
			se.Minute = &minute
		}
		if t, err := time.Parse(time.RFC3339, g.StartTime); err == nil {
			t = t.UTC()
			se.StartTime = &t
		}
		out = append(out, se)
	}
	return out, nil
}
