package espn

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/scorewise/scorewise/internal/pkg/models"
	"github.com/scorewise/scorewise/internal/scraper/sources"
)

const name = "espn"

func init() {
	sources.Register(sources.Info{
		Name: name,
		New:  func(deps sources.Deps) sources.Source { return New(deps) },
	})
}

// leaguePaths maps our sport slugs onto ESPN's per-league scoreboard
// endpoints. ESPN has no cross-league feed, so a sport is the union of its
// listed leagues.
var leaguePaths = map[string][]string{
	"football": {
		"soccer/eng.1", "soccer/esp.1", "soccer/ita.1",
		"soccer/ger.1", "soccer/fra.1", "soccer/uefa.champions",
	},
	"basketball": {"basketball/nba"},
}

// Scraper reads ESPN's public scoreboard API. Live scores only; the
// scoreboard is too league-bound to be a fixtures source.
type Scraper struct {
	deps    sources.Deps
	baseURL string
}

func New(deps sources.Deps) *Scraper {
	return &Scraper{deps: deps, baseURL: "https://site.api.espn.com/apis/site/v2/sports"}
}

func (s *Scraper) Name() string { return name }

type scoreboardResponse struct {
	Events []struct {
		ID           string `json:"id"`
		Date         string `json:"date"`
		Competitions []struct {
			Competitors []struct {
				HomeAway string `json:"homeAway"`
				Score    string `json:"score"`
				Team     struct {
					DisplayName string `json:"displayName"`
				} `json:"team"`
			} `json:"competitors"`
			Status struct {
				DisplayClock string `json:"displayClock"`
				Type         struct {
					State       string `json:"state"` // "pre", "in", "post"
					Completed   bool   `json:"completed"`
					Description string `json:"description"`
				} `json:"type"`
			} `json:"status"`
		} `json:"competitions"`
	} `json:"events"`
	Leagues []struct {
		Name string `json:"name"`
	} `json:"leagues"`
}

func (s *Scraper) LiveScores(ctx context.Context, sport string) ([]models.ScrapedEvent, error) {
	paths, ok := leaguePaths[sport]
	if !ok {
		return nil, nil
	}

	var out []models.ScrapedEvent
	for _, path := range paths {
		events, err := s.scoreboard(ctx, path)
		if err != nil {
			// One dead league feed should not sink the others.
			slog.Warn("espn league scoreboard failed", "league", path, "error", err)
			continue
		}
		out = append(out, events...)
	}
	return out, nil
}

func (s *Scraper) scoreboard(ctx context.Context, leaguePath string) ([]models.ScrapedEvent, error) {
	var resp scoreboardResponse
	url := fmt.Sprintf("%s/%s/scoreboard", s.baseURL, leaguePath)
	if err := s.deps.HTTP.GetJSON(ctx, url, &resp); err != nil {
		return nil, err
	}

	competition := ""
	if len(resp.Leagues) > 0 {
		competition = resp.Leagues[0].Name
	}

	var out []models.ScrapedEvent
	for _, ev := range resp.Events {
		if len(ev.Competitions) == 0 {
			continue
		}
		comp := ev.Competitions[0]
		state := comp.Status.Type.State
		if state != "in" && state != "post" {
			continue
		}

		se := models.ScrapedEvent{
			Period:          comp.Status.Type.Description,
			IsFinished:      comp.Status.Type.Completed,
			CompetitionName: competition,
			SourceID:        ev.ID,
			SourceName:      name,
		}
		for _, c := range comp.Competitors {
			score, _ := strconv.Atoi(c.Score)
			switch c.HomeAway {
			case "home":
				se.HomeTeam = c.Team.DisplayName
				se.HomeScore = score
			case "away":
				se.AwayTeam = c.Team.DisplayName
				se.AwayScore = score
			}
		}
		if se.HomeTeam == "" || se.AwayTeam == "" {
			continue
		}
		if minute := parseClock(comp.Status.DisplayClock); minute != nil {
			se.Minute = minute
		}
		if t, err := time.Parse("2006-01-02T15:04Z", ev.Date); err == nil {
			t = t.UTC()
			se.StartTime = &t
		}
		out = append(out, se)
	}
	return out, nil
}

// parseClock turns ESPN's display clock ("67'", "45:00") into whole minutes.
func parseClock(clock string) *int {
	if clock == "" {
		return nil
	}
	digits := clock
	for i, r := range clock {
		if r < '0' || r > '9' {
			digits = clock[:i]
			break
		}
	}
	n, err := strconv.Atoi(digits)
	if err != nil || n <= 0 {
		return nil
	}
	return &n
}
