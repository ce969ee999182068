package sources

import (
	"context"
	"time"

	"github.com/scorewise/scorewise/internal/pkg/browser"
	"github.com/scorewise/scorewise/internal/pkg/httpx"
	"github.com/scorewise/scorewise/internal/pkg/models"
)

// Deps is what the orchestrator hands a source on construction. JSON sources
// use HTTP; DOM sources open pages through NewPage. The orchestrator routes
// a proxied client to sources that declare RequiresProxy.
type Deps struct {
	HTTP    *httpx.Client
	NewPage func() (browser.Page, error)
}

// Source is the base contract; capability interfaces below refine it.
// A source implements whichever capabilities it actually has and the
// orchestrators type-assert for the one they need.
type Source interface {
	Name() string
}

// LiveScoresSource reports in-play events for a sport.
type LiveScoresSource interface {
	Source
	LiveScores(ctx context.Context, sport string) ([]models.ScrapedEvent, error)
}

// OddsSource reports pre-match 1X2 prices for a sport.
type OddsSource interface {
	Source
	Odds(ctx context.Context, sport string) ([]models.NormalizedOdds, error)
}

// FixturesSource reports upcoming matches for a sport on a given day.
type FixturesSource interface {
	Source
	Fixtures(ctx context.Context, sport string, day time.Time) ([]models.ScrapedFixture, error)
}
