package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	"github.com/scorewise/scorewise/internal/pkg/models"
)

// TeamByAlias returns the team mapped to (alias, source), or nil when the
// alias is unknown.
func (s *Store) TeamByAlias(ctx context.Context, alias, source string) (*models.Team, error) {
	query := `
	SELECT t.id, t.name, t.created_at
	FROM team_aliases a
	JOIN teams t ON t.id = a.team_id
	WHERE a.alias = $1 AND a.source = $2
	`
	var team models.Team
	err := s.db.QueryRowContext(ctx, query, alias, source).Scan(&team.ID, &team.Name, &team.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("team by alias: %w", err)
	}
	return &team, nil
}

// ListTeams returns the full teams table; the resolver caches it per
// invocation.
func (s *Store) ListTeams(ctx context.Context) ([]models.Team, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name, created_at FROM teams ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list teams: %w", err)
	}
	defer rows.Close()

	var out []models.Team
	for rows.Next() {
		var t models.Team
		if err := rows.Scan(&t.ID, &t.Name, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan team: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// CreateTeam inserts a new canonical team row.
func (s *Store) CreateTeam(ctx context.Context, name string) (*models.Team, error) {
	var team models.Team
	err := s.db.QueryRowContext(ctx,
		`INSERT INTO teams (name) VALUES ($1) RETURNING id, name, created_at`,
		name,
	).Scan(&team.ID, &team.Name, &team.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("create team: %w", err)
	}
	return &team, nil
}

// CreateAlias inserts an (alias, source) mapping. Duplicate insertions are
// swallowed so resolution stays idempotent under races.
func (s *Store) CreateAlias(ctx context.Context, teamID int64, alias, source string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO team_aliases (team_id, alias, source) VALUES ($1, $2, $3)
		 ON CONFLICT (alias, source) DO NOTHING`,
		teamID, alias, source,
	)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code.Name() == "unique_violation" {
			return nil
		}
		return fmt.Errorf("create alias: %w", err)
	}
	return nil
}

// SportBySlug returns a sport reference row.
func (s *Store) SportBySlug(ctx context.Context, slug string) (*models.Sport, error) {
	var sp models.Sport
	err := s.db.QueryRowContext(ctx,
		`SELECT id, slug, name, is_active FROM sports WHERE slug = $1`, slug,
	).Scan(&sp.ID, &sp.Slug, &sp.Name, &sp.IsActive)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("unknown sport %q", slug)
	}
	if err != nil {
		return nil, fmt.Errorf("sport by slug: %w", err)
	}
	return &sp, nil
}

// FindOrCreateCompetition resolves a competition by (sport, name), creating
// it on first sight.
func (s *Store) FindOrCreateCompetition(ctx context.Context, sportID int64, name string) (*models.Competition, error) {
	var comp models.Competition
	err := s.db.QueryRowContext(ctx,
		`INSERT INTO competitions (sport_id, name) VALUES ($1, $2)
		 ON CONFLICT (sport_id, name) DO UPDATE SET name = EXCLUDED.name
		 RETURNING id, sport_id, name`,
		sportID, name,
	).Scan(&comp.ID, &comp.SportID, &comp.Name)
	if err != nil {
		return nil, fmt.Errorf("find or create competition: %w", err)
	}
	return &comp, nil
}
