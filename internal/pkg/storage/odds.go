package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/scorewise/scorewise/internal/pkg/models"
)

// MainMarketOddsSource returns which source last priced the event's main
// market, or "" when the market has never been priced. The odds orchestrator
// uses this for its source-priority policy.
func (s *Store) MainMarketOddsSource(ctx context.Context, eventID string) (string, error) {
	var source sql.NullString
	err := s.db.QueryRowContext(ctx, `
	SELECT odds_source FROM markets
	WHERE event_id = $1 AND type = $2 AND is_main_market`,
		eventID, models.MarketMatchWinner,
	).Scan(&source)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("main market odds source: %w", err)
	}
	return source.String, nil
}

// UpsertMatchWinnerOdds writes a 1X2 triple onto the event's main market.
// An outcome whose price actually moved keeps its prior value in
// previous_odds; an unchanged price is a no-op.
func (s *Store) UpsertMatchWinnerOdds(ctx context.Context, eventID string, odds models.NormalizedOdds) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		var marketID int64
		err := tx.QueryRowContext(ctx, `
		SELECT id FROM markets
		WHERE event_id = $1 AND type = $2 AND is_main_market
		FOR UPDATE`,
			eventID, models.MarketMatchWinner,
		).Scan(&marketID)
		if err == sql.ErrNoRows {
			return fmt.Errorf("event %s has no main market", eventID)
		}
		if err != nil {
			return fmt.Errorf("lock main market: %w", err)
		}

		outcomes := []struct {
			name string
			odds *float64
		}{
			{"home", odds.HomeWin},
			{"draw", odds.Draw},
			{"away", odds.AwayWin},
		}
		for _, o := range outcomes {
			if o.odds == nil {
				continue
			}
			_, err := tx.ExecContext(ctx, `
			INSERT INTO outcomes (market_id, name, odds) VALUES ($1, $2, $3)
			ON CONFLICT (market_id, name) DO UPDATE
			SET previous_odds = outcomes.odds, odds = EXCLUDED.odds
			WHERE outcomes.odds IS DISTINCT FROM EXCLUDED.odds`,
				marketID, o.name, *o.odds)
			if err != nil {
				return fmt.Errorf("upsert outcome %s: %w", o.name, err)
			}
		}

		_, err = tx.ExecContext(ctx,
			`UPDATE markets SET odds_source = $1, updated_at = NOW() WHERE id = $2`,
			odds.Source, marketID)
		if err != nil {
			return fmt.Errorf("record odds source: %w", err)
		}
		return nil
	})
}
