package repository

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/sideline/platform/internal/domain"
)

const oddsColumns = `id, event_id, bookmaker, market, home_ml, away_ml, spread_line::float8,
	home_spread_american, away_spread_american, total_line::float8, over_american, under_american,
	is_overridden, updated_at`

// OverridableOddsColumns lists the snapshot columns an admin override may set.
var OverridableOddsColumns = map[string]bool{
	"home_ml":              true,
	"away_ml":              true,
	"spread_line":          true,
	"home_spread_american": true,
	"away_spread_american": true,
	"total_line":           true,
	"over_american":        true,
	"under_american":       true,
}

type oddsRepo struct{}

// NewOddsRepository returns a pgx-backed OddsRepository.
func NewOddsRepository() OddsRepository {
	return &oddsRepo{}
}

func (r *oddsRepo) ListByEvents(ctx context.Context, db DBTX, eventIDs []int64) ([]domain.OddsSnapshot, error) {
	if len(eventIDs) == 0 {
		return nil, nil
	}
	rows, err := db.Query(ctx, `
		SELECT `+oddsColumns+` FROM odds_snapshots
		WHERE event_id = ANY($1)
		ORDER BY event_id, market, bookmaker`, eventIDs)
	if err != nil {
		return nil, fmt.Errorf("query odds snapshots: %w", err)
	}
	defer rows.Close()
	return collectSnapshots(rows)
}

func (r *oddsRepo) ListByEventMarket(ctx context.Context, db DBTX, eventID int64, market domain.Market) ([]domain.OddsSnapshot, error) {
	rows, err := db.Query(ctx, `
		SELECT `+oddsColumns+` FROM odds_snapshots
		WHERE event_id = $1 AND market = $2
		ORDER BY bookmaker`, eventID, string(market))
	if err != nil {
		return nil, fmt.Errorf("query odds snapshots: %w", err)
	}
	defer rows.Close()
	return collectSnapshots(rows)
}

// Upsert never touches a row an admin has overridden.
func (r *oddsRepo) Upsert(ctx context.Context, db DBTX, s *domain.OddsSnapshot) (bool, error) {
	tag, err := db.Exec(ctx, `
		INSERT INTO odds_snapshots
		  (event_id, bookmaker, market, home_ml, away_ml, spread_line,
		   home_spread_american, away_spread_american, total_line, over_american, under_american)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (event_id, bookmaker, market) DO UPDATE SET
		  home_ml = EXCLUDED.home_ml,
		  away_ml = EXCLUDED.away_ml,
		  spread_line = EXCLUDED.spread_line,
		  home_spread_american = EXCLUDED.home_spread_american,
		  away_spread_american = EXCLUDED.away_spread_american,
		  total_line = EXCLUDED.total_line,
		  over_american = EXCLUDED.over_american,
		  under_american = EXCLUDED.under_american,
		  updated_at = now()
		WHERE odds_snapshots.is_overridden = false`,
		s.EventID, s.Bookmaker, string(s.Market),
		s.HomeML, s.AwayML, s.SpreadLine,
		s.HomeSpreadAmerican, s.AwaySpreadAmerican,
		s.TotalLine, s.OverAmerican, s.UnderAmerican,
	)
	if err != nil {
		return false, fmt.Errorf("upsert odds snapshot: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// Override builds dynamic SET clauses from whitelisted column names.
func (r *oddsRepo) Override(ctx context.Context, db DBTX, eventID int64, market domain.Market, fields map[string]interface{}) (int64, error) {
	cols := make([]string, 0, len(fields))
	for col := range fields {
		if !OverridableOddsColumns[col] {
			return 0, fmt.Errorf("column %q cannot be overridden", col)
		}
		cols = append(cols, col)
	}
	sort.Strings(cols)

	setClauses := []string{"is_overridden = true", "updated_at = now()"}
	args := []interface{}{}
	argIdx := 1
	for _, col := range cols {
		setClauses = append(setClauses, fmt.Sprintf("%s = $%d", col, argIdx))
		args = append(args, fields[col])
		argIdx++
	}

	args = append(args, eventID, string(market))
	query := fmt.Sprintf(`UPDATE odds_snapshots SET %s WHERE event_id = $%d AND market = $%d`,
		strings.Join(setClauses, ", "), argIdx, argIdx+1)

	tag, err := db.Exec(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("override odds: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (r *oddsRepo) ClearOverride(ctx context.Context, db DBTX, eventID int64, market domain.Market) (int64, error) {
	tag, err := db.Exec(ctx, `
		UPDATE odds_snapshots SET is_overridden = false, updated_at = now()
		WHERE event_id = $1 AND market = $2`, eventID, string(market))
	if err != nil {
		return 0, fmt.Errorf("clear odds override: %w", err)
	}
	return tag.RowsAffected(), nil
}

func collectSnapshots(rows pgx.Rows) ([]domain.OddsSnapshot, error) {
	var out []domain.OddsSnapshot
	for rows.Next() {
		var s domain.OddsSnapshot
		var market string
		err := rows.Scan(&s.ID, &s.EventID, &s.Bookmaker, &market, &s.HomeML, &s.AwayML, &s.SpreadLine,
			&s.HomeSpreadAmerican, &s.AwaySpreadAmerican, &s.TotalLine, &s.OverAmerican, &s.UnderAmerican,
			&s.IsOverridden, &s.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("scan odds snapshot: %w", err)
		}
		s.Market = domain.Market(market)
		out = append(out, s)
	}
	return out, rows.Err()
}
