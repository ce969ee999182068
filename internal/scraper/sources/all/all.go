// Package all registers every source adapter. Import it for side effects
// from the binaries that need the full registry.
package all

import (
	_ "github.com/scorewise/scorewise/internal/scraper/sources/espn"
	_ "github.com/scorewise/scorewise/internal/scraper/sources/flashscore"
	_ "github.com/scorewise/scorewise/internal/scraper/sources/fotmob"
	_ "github.com/scorewise/scorewise/internal/scraper/sources/livescore"
	_ "github.com/scorewise/scorewise/internal/scraper/sources/oddschecker"
	_ "github.com/scorewise/scorewise/internal/scraper/sources/oddsportal"
	_ "github.com/scorewise/scorewise/internal/scraper/sources/scores365"
	_ "github.com/scorewise/scorewise/internal/scraper/sources/sofascore"
)
