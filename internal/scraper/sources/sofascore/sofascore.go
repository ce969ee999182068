package sofascore

import (
	"context"
	"fmt"
	"time"

	"github.com/scorewise/scorewise/internal/pkg/models"
	"github.com/scorewise/scorewise/internal/scraper/sources"
)

const name = "sofascore"

func init() {
	sources.Register(sources.Info{
		Name: name,
		New:  func(deps sources.Deps) sources.Source { return New(deps) },
	})
}

// Scraper reads the sofascore public JSON API. Covers live scores and
// fixtures for every sport we sync.
type Scraper struct {
	deps    sources.Deps
	baseURL string
}

func New(deps sources.Deps) *Scraper {
	return &Scraper{deps: deps, baseURL: "https://api.sofascore.com/api/v1"}
}

func (s *Scraper) Name() string { return name }

type eventsResponse struct {
	Events []apiEvent `json:"events"`
}

type apiEvent struct {
	ID         int64 `json:"id"`
	Tournament struct {
		Name string `json:"name"`
	} `json:"tournament"`
	Status struct {
		// Type is one of "notstarted", "inprogress", "finished",
		// "postponed", "canceled".
		Type        string `json:"type"`
		Description string `json:"description"`
	} `json:"status"`
	HomeTeam       teamRef  `json:"homeTeam"`
	AwayTeam       teamRef  `json:"awayTeam"`
	HomeScore      apiScore `json:"homeScore"`
	AwayScore      apiScore `json:"awayScore"`
	StartTimestamp int64    `json:"startTimestamp"`
	Time           struct {
		// Played is seconds of play, present only in running games.
		Played int `json:"played"`
	} `json:"time"`
}

type teamRef struct {
	Name string `json:"name"`
}

type apiScore struct {
	Current int `json:"current"`
}

func (s *Scraper) LiveScores(ctx context.Context, sport string) ([]models.ScrapedEvent, error) {
	var resp eventsResponse
	url := fmt.Sprintf("%s/sport/%s/events/live", s.baseURL, sport)
	if err := s.deps.HTTP.GetJSON(ctx, url, &resp); err != nil {
		return nil, fmt.Errorf("sofascore live %s: %w", sport, err)
	}

	out := make([]models.ScrapedEvent, 0, len(resp.Events))
	for _, ev := range resp.Events {
		if ev.Status.Type != "inprogress" && ev.Status.Type != "finished" {
			continue
		}
		se := models.ScrapedEvent{
			HomeTeam:        ev.HomeTeam.Name,
			AwayTeam:        ev.AwayTeam.Name,
			HomeScore:       ev.HomeScore.Current,
			AwayScore:       ev.AwayScore.Current,
			Period:          ev.Status.Description,
			IsFinished:      ev.Status.Type == "finished",
			CompetitionName: ev.Tournament.Name,
			SourceID:        fmt.Sprintf("%d", ev.ID),
			SourceName:      name,
		}
		if ev.StartTimestamp > 0 {
			st := time.Unix(ev.StartTimestamp, 0).UTC()
			se.StartTime = &st
		}
		if ev.Time.Played > 0 {
			minute := ev.Time.Played / 60
			se.Minute = &minute
		}
		out = append(out, se)
	}
	return out, nil
}

func (s *Scraper) Fixtures(ctx context.Context, sport string, day time.Time) ([]models.ScrapedFixture, error) {
	var resp eventsResponse
	url := fmt.Sprintf("%s/sport/%s/scheduled-events/%s", s.baseURL, sport, day.Format("2006-01-02"))
	if err := s.deps.HTTP.GetJSON(ctx, url, &resp); err != nil {
		return nil, fmt.Errorf("sofascore fixtures %s: %w", sport, err)
	}

	out := make([]models.ScrapedFixture, 0, len(resp.Events))
	for _, ev := range resp.Events {
		if ev.Status.Type != "notstarted" || ev.StartTimestamp == 0 {
			continue
		}
		out = append(out, models.ScrapedFixture{
			HomeTeam:        ev.HomeTeam.Name,
			AwayTeam:        ev.AwayTeam.Name,
			CompetitionName: ev.Tournament.Name,
			StartTime:       time.Unix(ev.StartTimestamp, 0).UTC(),
			ExternalID:      fmt.Sprintf("%d", ev.ID),
			Source:          name,
		})
	}
	return out, nil
}
