package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/sideline/platform/internal/domain"
)

const eventColumns = `id, event_key, sport, league, home_team, away_team, commence_time,
	status, home_score, away_score, created_at, updated_at`

type eventRepo struct{}

// NewEventRepository returns a pgx-backed EventRepository.
func NewEventRepository() EventRepository {
	return &eventRepo{}
}

func (r *eventRepo) FindByID(ctx context.Context, db DBTX, id int64) (*domain.Event, error) {
	row := db.QueryRow(ctx, `SELECT `+eventColumns+` FROM events WHERE id = $1`, id)
	return scanEvent(row)
}

func (r *eventRepo) List(ctx context.Context, db DBTX, filter EventFilter) ([]domain.Event, error) {
	where := []string{"TRUE"}
	args := []interface{}{}
	argIdx := 1

	if filter.Since != nil {
		where = append(where, fmt.Sprintf("commence_time >= $%d", argIdx))
		args = append(args, *filter.Since)
		argIdx++
	}
	if filter.Status != nil {
		where = append(where, fmt.Sprintf("status = $%d", argIdx))
		args = append(args, string(*filter.Status))
		argIdx++
	}

	limit := filter.Limit
	if limit <= 0 || limit > 500 {
		limit = 200
	}
	args = append(args, limit)

	query := fmt.Sprintf(`SELECT %s FROM events WHERE %s ORDER BY commence_time ASC, id ASC LIMIT $%d`,
		eventColumns, strings.Join(where, " AND "), argIdx)

	rows, err := db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	var events []domain.Event
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, *e)
	}
	return events, rows.Err()
}

func (r *eventRepo) Create(ctx context.Context, db DBTX, e *domain.Event) error {
	if e.Status == "" {
		e.Status = domain.EventScheduled
	}
	row := db.QueryRow(ctx, `
		INSERT INTO events (event_key, sport, league, home_team, away_team, commence_time, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING `+eventColumns,
		e.EventKey, e.Sport, e.League, e.HomeTeam, e.AwayTeam, e.CommenceTime, string(e.Status))
	created, err := scanEvent(row)
	if err != nil {
		return fmt.Errorf("insert event: %w", err)
	}
	if created == nil {
		return fmt.Errorf("insert event: no row returned")
	}
	*e = *created
	return nil
}

// UpsertByKey refreshes teams and start time from the feed. A final or
// cancelled event keeps its status and scores.
func (r *eventRepo) UpsertByKey(ctx context.Context, db DBTX, e *domain.Event) (*domain.Event, error) {
	status := e.Status
	if status == "" {
		status = domain.EventScheduled
	}
	row := db.QueryRow(ctx, `
		INSERT INTO events (event_key, sport, league, home_team, away_team, commence_time, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (event_key) DO UPDATE SET
		  sport = EXCLUDED.sport,
		  league = EXCLUDED.league,
		  home_team = EXCLUDED.home_team,
		  away_team = EXCLUDED.away_team,
		  commence_time = EXCLUDED.commence_time,
		  status = CASE WHEN events.status IN ('final', 'cancelled') THEN events.status ELSE EXCLUDED.status END,
		  updated_at = now()
		RETURNING `+eventColumns,
		e.EventKey, e.Sport, e.League, e.HomeTeam, e.AwayTeam, e.CommenceTime, string(status))
	return scanEvent(row)
}

func (r *eventRepo) UpdateStatus(ctx context.Context, db DBTX, id int64, status domain.EventStatus, homeScore, awayScore *int) (*domain.Event, error) {
	row := db.QueryRow(ctx, `
		UPDATE events
		SET status = $1,
		    home_score = COALESCE($2, home_score),
		    away_score = COALESCE($3, away_score),
		    updated_at = now()
		WHERE id = $4 AND status <> 'final'
		RETURNING `+eventColumns,
		string(status), homeScore, awayScore, id)
	return scanEvent(row)
}

func (r *eventRepo) MarkFinalByKey(ctx context.Context, db DBTX, eventKey string, homeScore, awayScore int) (bool, error) {
	tag, err := db.Exec(ctx, `
		UPDATE events
		SET status = 'final', home_score = $1, away_score = $2, updated_at = now()
		WHERE event_key = $3 AND status IN ('scheduled', 'open')`,
		homeScore, awayScore, eventKey)
	if err != nil {
		return false, fmt.Errorf("mark event final: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

func scanEvent(row pgx.Row) (*domain.Event, error) {
	var e domain.Event
	var status string
	err := row.Scan(&e.ID, &e.EventKey, &e.Sport, &e.League, &e.HomeTeam, &e.AwayTeam,
		&e.CommenceTime, &status, &e.HomeScore, &e.AwayScore, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("scan event: %w", err)
	}
	e.Status = domain.EventStatus(status)
	return &e, nil
}
