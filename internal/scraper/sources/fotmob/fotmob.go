package fotmob

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/scorewise/scorewise/internal/pkg/models"
	"github.com/scorewise/scorewise/internal/scraper/sources"
)

const name = "fotmob"

func init() {
	sources.Register(sources.Info{
		Name: name,
		New:  func(deps sources.Deps) sources.Source { return New(deps) },
	})
}

// Scraper reads fotmob's matches-by-date API. Football only; live scores and
// fixtures.
type Scraper struct {
	deps    sources.Deps
	baseURL string
}

func New(deps sources.Deps) *Scraper {
	return &Scraper{deps: deps, baseURL: "https://www.fotmob.com/api"}
}

func (s *Scraper) Name() string { return name }

type matchesResponse struct {
	Leagues []struct {
		Name    string `json:"name"`
		Matches []struct {
			ID   int64 `json:"id"`
			Home side  `json:"home"`
			Away side  `json:"away"`

			Status struct {
				UTCTime  string `json:"utcTime"`
				Started  bool   `json:"started"`
				Finished bool   `json:"finished"`
				Ongoing  bool   `json:"ongoing"`
				LiveTime struct {
					Short string `json:"short"` // "67'", "HT"
					Long  string `json:"long"`
				} `json:"liveTime"`
			} `json:"status"`
		} `json:"matches"`
	} `json:"leagues"`
}

type side struct {
	Name  string `json:"name"`
	Score int    `json:"score"`
}

func (s *Scraper) matches(ctx context.Context, day time.Time) (*matchesResponse, error) {
	var resp matchesResponse
	url := fmt.Sprintf("%s/matches?date=%s", s.baseURL, day.Format("20060102"))
	if err := s.deps.HTTP.GetJSON(ctx, url, &resp); err != nil {
		return nil, fmt.Errorf("fotmob matches: %w", err)
	}
	return &resp, nil
}

func (s *Scraper) LiveScores(ctx context.Context, sport string) ([]models.ScrapedEvent, error) {
	if sport != "football" {
		return nil, nil
	}
	resp, err := s.matches(ctx, time.Now().UTC())
	if err != nil {
		return nil, err
	}

	var out []models.ScrapedEvent
	for _, league := range resp.Leagues {
		for _, m := range league.Matches {
			if !m.Status.Ongoing && !m.Status.Finished {
				continue
			}
			se := models.ScrapedEvent{
				HomeTeam:        m.Home.Name,
				AwayTeam:        m.Away.Name,
				HomeScore:       m.Home.Score,
				AwayScore:       m.Away.Score,
				Period:          m.Status.LiveTime.Long,
				IsFinished:      m.Status.Finished,
				CompetitionName: league.Name,
				SourceID:        fmt.Sprintf("%d", m.ID),
				SourceName:      name,
			}
			if minute := parseLiveMinute(m.Status.LiveTime.Short); minute != nil {
				se.Minute = minute
			}
			if t, err := time.Parse(time.RFC3339, m.Status.UTCTime); err == nil {
				t = t.UTC()
				se.StartTime = &t
			}
			out = append(out, se)
		}
	}
	return out, nil
}

func (s *Scraper) Fixtures(ctx context.Context, sport string, day time.Time) ([]models.ScrapedFixture, error) {
	if sport != "football" {
		return nil, nil
	}
	resp, err := s.matches(ctx, day)
	if err != nil {
		return nil, err
	}

	var out []models.ScrapedFixture
	for _, league := range resp.Leagues {
		for _, m := range league.Matches {
			if m.Status.Started {
				continue
			}
			t, err := time.Parse(time.RFC3339, m.Status.UTCTime)
			if err != nil {
				continue
			}
			out = append(out, models.ScrapedFixture{
				HomeTeam:        m.Home.Name,
				AwayTeam:        m.Away.Name,
				CompetitionName: league.Name,
				StartTime:       t.UTC(),
				ExternalID:      fmt.Sprintf("%d", m.ID),
				Source:          name,
			})
		}
	}
	return out, nil
}

// parseLiveMinute reads fotmob's short clock ("67'", "90+4'"); named periods
// like "HT" carry no minute.
func parseLiveMinute(short string) *int {
	short = strings.TrimSuffix(strings.TrimSpace(short), "'")
	if i := strings.IndexByte(short, '+'); i >= 0 {
		short = short[:i]
	}
	n, err := strconv.Atoi(short)
	if err != nil || n <= 0 {
		return nil
	}
	return &n
}
