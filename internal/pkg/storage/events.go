package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/scorewise/scorewise/internal/pkg/models"
)

// externalIDColumns whitelists the per-source identifier columns. A source
// not in this map cannot attach an external ID, which also keeps column
// names out of reach of scraped input.
var externalIDColumns = map[string]string{
	"flashscore":  "external_flashscore_id",
	"sofascore":   "external_sofascore_id",
	"espn":        "external_espn_id",
	"scores365":   "external_365scores_id",
	"fotmob":      "external_fotmob_id",
	"livescore":   "external_livescore_id",
	"oddsportal":  "external_oddsportal_id",
	"oddschecker": "external_oddschecker_id",
}

// externalIDSources is the stable scan order for the external columns.
var externalIDSources = []string{
	"flashscore", "sofascore", "espn", "scores365",
	"fotmob", "livescore", "oddsportal", "oddschecker",
}

func externalSelectList() string {
	cols := make([]string, 0, len(externalIDSources))
	for _, src := range externalIDSources {
		cols = append(cols, "e."+externalIDColumns[src])
	}
	return strings.Join(cols, ", ")
}

const eventBaseColumns = `
	e.id, e.sport_id, e.competition_id, e.competition_name,
	e.home_team_id, e.away_team_id, e.home_team_name, e.away_team_name,
	e.start_time, e.status, e.home_score, e.away_score, e.period, e.minute,
	e.created_at, e.updated_at`

func scanEvent(row interface{ Scan(...any) error }) (*models.Event, error) {
	var (
		ev        models.Event
		homeScore sql.NullInt64
		awayScore sql.NullInt64
		period    sql.NullString
		minute    sql.NullInt64
		externals = make([]sql.NullString, len(externalIDSources))
	)

	dest := []any{
		&ev.ID, &ev.SportID, &ev.CompetitionID, &ev.CompetitionName,
		&ev.HomeTeamID, &ev.AwayTeamID, &ev.HomeTeamName, &ev.AwayTeamName,
		&ev.StartTime, &ev.Status, &homeScore, &awayScore, &period, &minute,
		&ev.CreatedAt, &ev.UpdatedAt,
	}
	for i := range externals {
		dest = append(dest, &externals[i])
	}
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}

	if homeScore.Valid {
		v := int(homeScore.Int64)
		ev.HomeScore = &v
	}
	if awayScore.Valid {
		v := int(awayScore.Int64)
		ev.AwayScore = &v
	}
	ev.Period = period.String
	if minute.Valid {
		v := int(minute.Int64)
		ev.Minute = &v
	}
	for i, src := range externalIDSources {
		if externals[i].Valid && externals[i].String != "" {
			if ev.ExternalIDs == nil {
				ev.ExternalIDs = make(map[string]string)
			}
			ev.ExternalIDs[src] = externals[i].String
		}
	}
	return &ev, nil
}

// EventBySourceID looks an event up by a per-source identifier. Returns
// (nil, nil) when no event carries that ID.
func (s *Store) EventBySourceID(ctx context.Context, source, externalID string) (*models.Event, error) {
	col, ok := externalIDColumns[source]
	if !ok {
		return nil, fmt.Errorf("unknown source %q", source)
	}

	query := fmt.Sprintf(`SELECT %s, %s FROM events e WHERE e.%s = $1`,
		eventBaseColumns, externalSelectList(), col)
	ev, err := scanEvent(s.db.QueryRowContext(ctx, query, externalID))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("event by %s id: %w", source, err)
	}
	return ev, nil
}

// EventsNear returns events of a sport whose kickoff falls within the window
// around the given time. Used by the deduplicator for fuzzy matching.
func (s *Store) EventsNear(ctx context.Context, sportID int64, around time.Time, window time.Duration) ([]models.Event, error) {
	query := fmt.Sprintf(`
	SELECT %s, %s FROM events e
	WHERE e.sport_id = $1 AND e.start_time BETWEEN $2 AND $3
	  AND e.status NOT IN ('cancelled', 'finished')
	ORDER BY e.start_time`,
		eventBaseColumns, externalSelectList())

	rows, err := s.db.QueryContext(ctx, query, sportID, around.Add(-window), around.Add(window))
	if err != nil {
		return nil, fmt.Errorf("events near: %w", err)
	}
	defer rows.Close()

	var out []models.Event
	for rows.Next() {
		ev, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		out = append(out, *ev)
	}
	return out, rows.Err()
}

// LiveCandidates returns events that may currently be in play: everything
// live, plus scheduled events whose kickoff is within a grace window around
// now. The grace window catches sources that flip to live a little late.
func (s *Store) LiveCandidates(ctx context.Context, now time.Time) ([]models.EventToMatch, error) {
	query := `
	SELECT e.id, e.home_team_name, e.away_team_name, e.start_time, e.status, sp.slug
	FROM events e
	JOIN sports sp ON sp.id = e.sport_id
	WHERE e.status = 'live'
	   OR (e.status = 'scheduled' AND e.start_time BETWEEN $1 AND $2)
	ORDER BY e.start_time`

	rows, err := s.db.QueryContext(ctx, query, now.Add(-4*time.Hour), now.Add(time.Hour))
	if err != nil {
		return nil, fmt.Errorf("live candidates: %w", err)
	}
	defer rows.Close()
	return scanEventsToMatch(rows)
}

// UpcomingEvents returns scheduled events kicking off within the horizon,
// the population the odds job prices.
func (s *Store) UpcomingEvents(ctx context.Context, now time.Time, horizon time.Duration) ([]models.EventToMatch, error) {
	query := `
	SELECT e.id, e.home_team_name, e.away_team_name, e.start_time, e.status, sp.slug
	FROM events e
	JOIN sports sp ON sp.id = e.sport_id
	WHERE e.status = 'scheduled' AND e.start_time BETWEEN $1 AND $2
	ORDER BY e.start_time`

	rows, err := s.db.QueryContext(ctx, query, now, now.Add(horizon))
	if err != nil {
		return nil, fmt.Errorf("upcoming events: %w", err)
	}
	defer rows.Close()
	return scanEventsToMatch(rows)
}

func scanEventsToMatch(rows *sql.Rows) ([]models.EventToMatch, error) {
	var out []models.EventToMatch
	for rows.Next() {
		var ev models.EventToMatch
		if err := rows.Scan(&ev.ID, &ev.HomeTeamName, &ev.AwayTeamName, &ev.StartTime, &ev.Status, &ev.SportSlug); err != nil {
			return nil, fmt.Errorf("scan event to match: %w", err)
		}
		out = append(out, ev)
	}
	return out, rows.Err()
}

// InsertEvent creates the event row plus its default match-winner market in
// one transaction. A missing ID is generated.
func (s *Store) InsertEvent(ctx context.Context, ev *models.Event) error {
	if ev.ID == "" {
		ev.ID = uuid.NewString()
	}
	if ev.Status == "" {
		ev.Status = models.StatusScheduled
	}

	return s.withTx(ctx, func(tx *sql.Tx) error {
		cols := []string{
			"id", "sport_id", "competition_id", "competition_name",
			"home_team_id", "away_team_id", "home_team_name", "away_team_name",
			"start_time", "status",
		}
		args := []any{
			ev.ID, ev.SportID, ev.CompetitionID, ev.CompetitionName,
			ev.HomeTeamID, ev.AwayTeamID, ev.HomeTeamName, ev.AwayTeamName,
			ev.StartTime, ev.Status,
		}
		for src, id := range ev.ExternalIDs {
			col, ok := externalIDColumns[src]
			if !ok {
				return fmt.Errorf("unknown source %q", src)
			}
			cols = append(cols, col)
			args = append(args, id)
		}

		placeholders := make([]string, len(cols))
		for i := range cols {
			placeholders[i] = fmt.Sprintf("$%d", i+1)
		}
		query := fmt.Sprintf(`INSERT INTO events (%s) VALUES (%s)`,
			strings.Join(cols, ", "), strings.Join(placeholders, ", "))
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("insert event: %w", err)
		}

		_, err := tx.ExecContext(ctx,
			`INSERT INTO markets (event_id, type, is_main_market) VALUES ($1, $2, TRUE)`,
			ev.ID, models.MarketMatchWinner,
		)
		if err != nil {
			return fmt.Errorf("insert default market: %w", err)
		}
		return nil
	})
}

// AttachExternalID records a per-source identifier on an existing event.
// A value already present for that source is left untouched.
func (s *Store) AttachExternalID(ctx context.Context, eventID, source, externalID string) error {
	col, ok := externalIDColumns[source]
	if !ok {
		return fmt.Errorf("unknown source %q", source)
	}
	query := fmt.Sprintf(
		`UPDATE events SET %s = $1, updated_at = NOW() WHERE id = $2 AND %s IS NULL`,
		col, col)
	if _, err := s.db.ExecContext(ctx, query, externalID, eventID); err != nil {
		return fmt.Errorf("attach %s id: %w", source, err)
	}
	return nil
}

// ApplyLiveScore writes a matched score update. The current status is locked
// and the transition validated, so a stale update can never move an event
// backwards through its lifecycle. becameFinished reports that this write is
// the one that moved the event into finished, which is the settlement
// trigger: a repeat of the same final score returns false.
func (s *Store) ApplyLiveScore(ctx context.Context, score models.LiveScore) (becameFinished bool, _ error) {
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		var current models.EventStatus
		err := tx.QueryRowContext(ctx,
			`SELECT status FROM events WHERE id = $1 FOR UPDATE`, score.EventID,
		).Scan(&current)
		if err == sql.ErrNoRows {
			return fmt.Errorf("event %s not found", score.EventID)
		}
		if err != nil {
			return fmt.Errorf("lock event: %w", err)
		}

		target := models.StatusLive
		if score.IsFinished {
			target = models.StatusFinished
		}
		if !models.CanTransition(current, target) {
			return fmt.Errorf("illegal status transition %s -> %s for event %s",
				current, target, score.EventID)
		}
		becameFinished = target == models.StatusFinished && current != models.StatusFinished

		_, err = tx.ExecContext(ctx, `
		UPDATE events
		SET home_score = $1, away_score = $2, period = $3, minute = $4,
		    status = $5, updated_at = NOW()
		WHERE id = $6`,
			score.HomeScore, score.AwayScore, nullString(score.Period),
			nullIntPtr(score.Minute), target, score.EventID)
		if err != nil {
			return fmt.Errorf("apply live score: %w", err)
		}
		return nil
	})
	if err != nil {
		return false, err
	}
	return becameFinished, nil
}

// UpdateEventStatus moves an event to a new status after validating the
// transition under a row lock.
func (s *Store) UpdateEventStatus(ctx context.Context, eventID string, to models.EventStatus) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		var current models.EventStatus
		err := tx.QueryRowContext(ctx,
			`SELECT status FROM events WHERE id = $1 FOR UPDATE`, eventID,
		).Scan(&current)
		if err == sql.ErrNoRows {
			return fmt.Errorf("event %s not found", eventID)
		}
		if err != nil {
			return fmt.Errorf("lock event: %w", err)
		}
		if !models.CanTransition(current, to) {
			return fmt.Errorf("illegal status transition %s -> %s for event %s", current, to, eventID)
		}

		_, err = tx.ExecContext(ctx,
			`UPDATE events SET status = $1, updated_at = NOW() WHERE id = $2`, to, eventID)
		if err != nil {
			return fmt.Errorf("update status: %w", err)
		}
		return nil
	})
}

// TransitionScheduledToLive flips every scheduled event whose kickoff has
// passed to live in a single statement and returns how many rows moved.
func (s *Store) TransitionScheduledToLive(ctx context.Context, now time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
	UPDATE events SET status = 'live', updated_at = NOW()
	WHERE status = 'scheduled' AND start_time <= $1`, now)
	if err != nil {
		return 0, fmt.Errorf("transition scheduled to live: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return n, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullIntPtr(p *int) sql.NullInt64 {
	if p == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*p), Valid: true}
}
