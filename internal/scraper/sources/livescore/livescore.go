package livescore

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/scorewise/scorewise/internal/pkg/models"
	"github.com/scorewise/scorewise/internal/pkg/timeutil"
	"github.com/scorewise/scorewise/internal/scraper/sources"
)

const name = "livescore"

func init() {
	sources.Register(sources.Info{
		Name:          name,
		RequiresProxy: true,
		New:           func(deps sources.Deps) sources.Source { return New(deps) },
	})
}

// sportPaths maps our sport slugs to livescore's URL segments.
var sportPaths = map[string]string{
	"football":   "soccer",
	"basketball": "basketball",
	"tennis":     "tennis",
}

// Scraper reads the livescore.com app API. The feed reports kickoff times in
// CET regardless of viewer locale, so timestamps go through the CET
// conversion. Blocks datacenter IPs aggressively, hence RequiresProxy.
type Scraper struct {
	deps    sources.Deps
	baseURL string
}

func New(deps sources.Deps) *Scraper {
	return &Scraper{deps: deps, baseURL: "https://prod-public-api.livescore.com/v1/api/app"}
}

func (s *Scraper) Name() string { return name }

type liveResponse struct {
	Stages []struct {
		CompetitionName string     `json:"Snm"`
		Events          []apiEvent `json:"Events"`
	} `json:"Stages"`
}

type apiEvent struct {
	ID        string    `json:"Eid"`
	HomeTeams []teamRef `json:"T1"`
	AwayTeams []teamRef `json:"T2"`
	HomeScore string    `json:"Tr1"`
	AwayScore string    `json:"Tr2"`
	// Status is "NS", "HT", "FT", "AET", a running clock like "45'",
	// or "Postp.".
	Status string `json:"Eps"`
	// Start is a CET timestamp packed as yyyymmddHHMMSS.
	Start int64 `json:"Esd"`
}

type teamRef struct {
	Name string `json:"Nm"`
}

func (s *Scraper) LiveScores(ctx context.Context, sport string) ([]models.ScrapedEvent, error) {
	path, ok := sportPaths[sport]
	if !ok {
		return nil, nil
	}

	var resp liveResponse
	url := fmt.Sprintf("%s/live/%s/0.00", s.baseURL, path)
	if err := s.deps.HTTP.GetJSON(ctx, url, &resp); err != nil {
		return nil, fmt.Errorf("livescore live %s: %w", sport, err)
	}

	var out []models.ScrapedEvent
	for _, stage := range resp.Stages {
		for _, ev := range stage.Events {
			if len(ev.HomeTeams) == 0 || len(ev.AwayTeams) == 0 {
				continue
			}
			if ev.Status == "NS" || strings.HasPrefix(ev.Status, "Postp") {
				continue
			}

			homeScore, _ := strconv.Atoi(ev.HomeScore)
			awayScore, _ := strconv.Atoi(ev.AwayScore)
			se := models.ScrapedEvent{
				HomeTeam:        ev.HomeTeams[0].Name,
				AwayTeam:        ev.AwayTeams[0].Name,
				HomeScore:       homeScore,
				AwayScore:       awayScore,
				Period:          ev.Status,
				IsFinished:      ev.Status == "FT" || ev.Status == "AET" || ev.Status == "AP",
				CompetitionName: stage.CompetitionName,
				SourceID:        ev.ID,
				SourceName:      name,
			}
			if minute := parseClockMinute(ev.Status); minute != nil {
				se.Minute = minute
			}
			if st, ok := parseStart(ev.Start); ok {
				se.StartTime = &st
			}
			out = append(out, se)
		}
	}
	return out, nil
}

// parseStart unpacks yyyymmddHHMMSS in CET into UTC.
func parseStart(packed int64) (time.Time, bool) {
	if packed < 1e13 {
		return time.Time{}, false
	}
	minute := int(packed / 100 % 100)
	hour := int(packed / 10000 % 100)
	day := int(packed / 1000000 % 100)
	month := time.Month(packed / 100000000 % 100)
	year := int(packed / 10000000000)
	return timeutil.CETToUTC(year, month, day, hour, minute), true
}

// parseClockMinute reads a running clock status like "45'" or "90+2'".
func parseClockMinute(status string) *int {
	status = strings.TrimSuffix(strings.TrimSpace(status), "'")
	if i := strings.IndexByte(status, '+'); i >= 0 {
		status = status[:i]
	}
	n, err := strconv.Atoi(status)
	if err != nil || n <= 0 {
		return nil
	}
	return &n
}
