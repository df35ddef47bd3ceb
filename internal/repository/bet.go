package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/sideline/platform/internal/domain"
)

const betColumns = `b.id, b.user_id, b.event_id, b.market, b.side, b.american_odds, b.line::float8,
	b.stake_cents, b.status, b.payout_cents, b.idempotency_key, b.placed_at, b.settled_at`

type betRepo struct{}

// NewBetRepository returns a pgx-backed BetRepository.
func NewBetRepository() BetRepository {
	return &betRepo{}
}

func (r *betRepo) Insert(ctx context.Context, db DBTX, bet *domain.Bet) error {
	err := db.QueryRow(ctx, `
		INSERT INTO bets
		  (id, user_id, event_id, market, side, american_odds, line, stake_cents, status, idempotency_key)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, 'pending', $9)
		RETURNING placed_at`,
		bet.ID,
		bet.UserID,
		bet.EventID,
		string(bet.Market),
		string(bet.Side),
		bet.AmericanOdds,
		bet.Line,
		bet.StakeCents,
		bet.IdempotencyKey,
	).Scan(&bet.PlacedAt)
	if err != nil {
		return fmt.Errorf("insert bet: %w", err)
	}
	bet.Status = domain.BetPending
	return nil
}

func (r *betRepo) FindByID(ctx context.Context, db DBTX, id uuid.UUID) (*domain.Bet, error) {
	row := db.QueryRow(ctx, `SELECT `+betColumns+` FROM bets b WHERE b.id = $1`, id)
	return scanBet(row)
}

func (r *betRepo) FindByIdempotencyKey(ctx context.Context, db DBTX, userID uuid.UUID, key string) (*domain.Bet, error) {
	row := db.QueryRow(ctx, `
		SELECT `+betColumns+` FROM bets b
		WHERE b.user_id = $1 AND b.idempotency_key = $2`, userID, key)
	return scanBet(row)
}

func (r *betRepo) ListByUser(ctx context.Context, db DBTX, userID uuid.UUID, limit int) ([]domain.BetWithEvent, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	rows, err := db.Query(ctx, `
		SELECT `+betColumns+`, e.home_team, e.away_team, e.commence_time, e.status
		FROM bets b
		JOIN events e ON e.id = b.event_id
		WHERE b.user_id = $1
		ORDER BY b.placed_at DESC
		LIMIT $2`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("query user bets: %w", err)
	}
	defer rows.Close()

	var out []domain.BetWithEvent
	for rows.Next() {
		var bw domain.BetWithEvent
		var evStatus string
		dest := append(betDest(&bw.Bet), &bw.HomeTeam, &bw.AwayTeam, &bw.CommenceTime, &evStatus)
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("scan user bet: %w", err)
		}
		bw.EventStatus = domain.EventStatus(evStatus)
		out = append(out, bw)
	}
	return out, rows.Err()
}

func (r *betRepo) ListSettleable(ctx context.Context, db DBTX, limit int) ([]domain.SettleableBet, error) {
	if limit <= 0 {
		limit = 500
	}

	rows, err := db.Query(ctx, `
		SELECT `+betColumns+`, COALESCE(e.home_score, 0), COALESCE(e.away_score, 0)
		FROM bets b
		JOIN events e ON e.id = b.event_id
		WHERE b.status = 'pending' AND e.status = 'final'
		ORDER BY b.placed_at ASC
		LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("query settleable bets: %w", err)
	}
	defer rows.Close()

	var out []domain.SettleableBet
	for rows.Next() {
		var sb domain.SettleableBet
		dest := append(betDest(&sb.Bet), &sb.HomeScore, &sb.AwayScore)
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("scan settleable bet: %w", err)
		}
		out = append(out, sb)
	}
	return out, rows.Err()
}

// MarkSettled is the compare-and-set that guarantees a bet is graded once.
func (r *betRepo) MarkSettled(ctx context.Context, db DBTX, id uuid.UUID, status domain.BetStatus, payoutCents int64, at time.Time) (bool, error) {
	tag, err := db.Exec(ctx, `
		UPDATE bets SET status = $1, payout_cents = $2, settled_at = $3
		WHERE id = $4 AND status = 'pending'`,
		string(status), payoutCents, at, id)
	if err != nil {
		return false, fmt.Errorf("mark bet settled: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

func (r *betRepo) Leaderboard(ctx context.Context, db DBTX, limit int) ([]domain.LeaderboardRow, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}

	rows, err := db.Query(ctx, `
		SELECT p.username,
		       w.balance_cents,
		       COUNT(b.id) FILTER (WHERE b.status = 'won'),
		       COALESCE(SUM(b.payout_cents - b.stake_cents) FILTER (WHERE b.status <> 'pending'), 0)::bigint
		FROM user_profiles p
		JOIN wallets w ON w.user_id = p.user_id
		LEFT JOIN bets b ON b.user_id = p.user_id
		GROUP BY p.username, w.balance_cents
		ORDER BY w.balance_cents DESC, p.username ASC
		LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("query leaderboard: %w", err)
	}
	defer rows.Close()

	var out []domain.LeaderboardRow
	for rows.Next() {
		var lr domain.LeaderboardRow
		var balNum pgtype.Numeric
		if err := rows.Scan(&lr.Username, &balNum, &lr.BetsWon, &lr.NetCents); err != nil {
			return nil, fmt.Errorf("scan leaderboard row: %w", err)
		}
		if lr.BalanceCents, err = numericToInt64(balNum); err != nil {
			return nil, fmt.Errorf("convert balance_cents: %w", err)
		}
		lr.Rank = len(out) + 1
		out = append(out, lr)
	}
	return out, rows.Err()
}

func betDest(b *domain.Bet) []interface{} {
	return []interface{}{
		&b.ID, &b.UserID, &b.EventID, &b.Market, &b.Side, &b.AmericanOdds, &b.Line,
		&b.StakeCents, &b.Status, &b.PayoutCents, &b.IdempotencyKey, &b.PlacedAt, &b.SettledAt,
	}
}

func scanBet(row pgx.Row) (*domain.Bet, error) {
	var b domain.Bet
	if err := row.Scan(betDest(&b)...); err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("scan bet: %w", err)
	}
	return &b, nil
}
