package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/sideline/platform/internal/domain"
)

const ledgerColumns = `id, user_id, bet_id, delta_cents, balance_after, reason, metadata, created_at`

type ledgerRepo struct{}

// NewLedgerRepository returns a pgx-backed LedgerRepository.
func NewLedgerRepository() LedgerRepository {
	return &ledgerRepo{}
}

func (r *ledgerRepo) Insert(ctx context.Context, db DBTX, params domain.PostEntryParams, balanceAfter int64) (*domain.LedgerEntry, error) {
	meta := params.Metadata
	if meta == nil {
		meta = json.RawMessage(`{}`)
	}

	row := db.QueryRow(ctx, `
		INSERT INTO ledger_entries (user_id, bet_id, delta_cents, balance_after, reason, metadata)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING `+ledgerColumns,
		params.UserID,
		params.BetID,
		params.DeltaCents,
		balanceAfter,
		string(params.Reason),
		meta,
	)
	entry, err := scanLedgerEntry(row)
	if err != nil {
		return nil, err
	}
	if entry == nil {
		return nil, fmt.Errorf("insert ledger entry: no row returned")
	}
	return entry, nil
}

func (r *ledgerRepo) ListByUser(ctx context.Context, db DBTX, userID uuid.UUID, cursor *int64, limit int) ([]domain.LedgerEntry, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	var rows pgx.Rows
	var err error
	if cursor != nil {
		rows, err = db.Query(ctx, `
			SELECT `+ledgerColumns+`
			FROM ledger_entries
			WHERE user_id = $1 AND id < $2
			ORDER BY id DESC
			LIMIT $3`, userID, *cursor, limit)
	} else {
		rows, err = db.Query(ctx, `
			SELECT `+ledgerColumns+`
			FROM ledger_entries
			WHERE user_id = $1
			ORDER BY id DESC
			LIMIT $2`, userID, limit)
	}
	if err != nil {
		return nil, fmt.Errorf("query ledger entries: %w", err)
	}
	defer rows.Close()

	var entries []domain.LedgerEntry
	for rows.Next() {
		entry, err := scanLedgerEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, *entry)
	}
	return entries, rows.Err()
}

func scanLedgerEntry(row pgx.Row) (*domain.LedgerEntry, error) {
	var e domain.LedgerEntry
	var reason string
	err := row.Scan(&e.ID, &e.UserID, &e.BetID, &e.DeltaCents, &e.BalanceAfter, &reason, &e.Metadata, &e.CreatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("scan ledger entry: %w", err)
	}
	e.Reason = domain.LedgerReason(reason)
	return &e, nil
}
