package teams

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/scorewise/scorewise/internal/pkg/models"
)

// fuzzyResolveThreshold is the floor below which an observed name never
// auto-attaches to an existing team. Lower-confidence aliases must be added
// manually.
const fuzzyResolveThreshold = 0.85

// Store is the slice of the relational store the resolver needs.
type Store interface {
	// TeamByAlias returns the team mapped to (alias, source), or nil when
	// no such alias exists.
	TeamByAlias(ctx context.Context, alias, source string) (*models.Team, error)
	ListTeams(ctx context.Context) ([]models.Team, error)
	CreateTeam(ctx context.Context, name string) (*models.Team, error)
	// CreateAlias must swallow duplicate (alias, source) insertions.
	CreateAlias(ctx context.Context, teamID int64, alias, source string) error
}

// Resolver maps raw (name, source) observations to team IDs, learning aliases
// as it goes. The teams table is cached for the lifetime of one invocation so
// fuzzy matching does not re-read it per call.
type Resolver struct {
	store Store

	cache       []models.Team
	cacheLoaded bool
}

func NewResolver(store Store) *Resolver {
	return &Resolver{store: store}
}

// FindOrCreateTeam resolves a raw name from a source to a team ID.
//
// Order: exact alias hit, case-insensitive canonical-name match, fuzzy match
// over all teams at >= 0.85 combined similarity, then insert a new team. The
// middle two paths record a new alias so the next observation takes the
// cheap path.
func (r *Resolver) FindOrCreateTeam(ctx context.Context, name, source string) (int64, error) {
	raw := strings.TrimSpace(name)
	if raw == "" {
		return 0, fmt.Errorf("empty team name from source %s", source)
	}

	if team, err := r.store.TeamByAlias(ctx, raw, source); err != nil {
		return 0, fmt.Errorf("alias lookup: %w", err)
	} else if team != nil {
		return team.ID, nil
	}

	normalized := Normalize(raw)
	teams, err := r.allTeams(ctx)
	if err != nil {
		return 0, err
	}

	for i := range teams {
		if strings.EqualFold(teams[i].Name, normalized) {
			if err := r.store.CreateAlias(ctx, teams[i].ID, raw, source); err != nil {
				return 0, fmt.Errorf("create alias: %w", err)
			}
			return teams[i].ID, nil
		}
	}

	if best, conf := r.bestFuzzy(teams, normalized, raw); best != nil {
		if err := r.store.CreateAlias(ctx, best.ID, raw, source); err != nil {
			return 0, fmt.Errorf("create alias: %w", err)
		}
		slog.Info("auto-learned team alias",
			"alias", raw, "source", source, "team", best.Name, "confidence", conf)
		return best.ID, nil
	}

	team, err := r.store.CreateTeam(ctx, normalized)
	if err != nil {
		return 0, fmt.Errorf("create team: %w", err)
	}
	if err := r.store.CreateAlias(ctx, team.ID, raw, source); err != nil {
		return 0, fmt.Errorf("create alias: %w", err)
	}
	r.cache = append(r.cache, *team)
	return team.ID, nil
}

// bestFuzzy finds the team whose canonical name is closest to the observed
// name (normalized or raw, whichever scores higher), above the auto-learn bar.
func (r *Resolver) bestFuzzy(teams []models.Team, normalized, raw string) (*models.Team, float64) {
	var best *models.Team
	bestConf := 0.0
	for i := range teams {
		conf := Similarity(teams[i].Name, normalized)
		if rawConf := Similarity(teams[i].Name, raw); rawConf > conf {
			conf = rawConf
		}
		if conf >= fuzzyResolveThreshold && conf > bestConf {
			best = &teams[i]
			bestConf = conf
		}
	}
	return best, bestConf
}

func (r *Resolver) allTeams(ctx context.Context) ([]models.Team, error) {
	if r.cacheLoaded {
		return r.cache, nil
	}
	teams, err := r.store.ListTeams(ctx)
	if err != nil {
		return nil, fmt.Errorf("list teams: %w", err)
	}
	r.cache = teams
	r.cacheLoaded = true
	return r.cache, nil
}
