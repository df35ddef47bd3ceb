package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/sideline/platform/internal/domain"
)

const walletColumns = `user_id, balance_cents, last_reset_at, resets_used_month, created_at, updated_at`

type walletRepo struct{}

// NewWalletRepository returns a pgx-backed WalletRepository.
func NewWalletRepository() WalletRepository {
	return &walletRepo{}
}

func (r *walletRepo) FindByUser(ctx context.Context, db DBTX, userID uuid.UUID) (*domain.Wallet, error) {
	row := db.QueryRow(ctx, `SELECT `+walletColumns+` FROM wallets WHERE user_id = $1`, userID)
	return scanWallet(row)
}

func (r *walletRepo) LockForUpdate(ctx context.Context, tx pgx.Tx, userID uuid.UUID) (*domain.Wallet, error) {
	row := tx.QueryRow(ctx, `SELECT `+walletColumns+` FROM wallets WHERE user_id = $1 FOR UPDATE`, userID)
	return scanWallet(row)
}

func (r *walletRepo) Create(ctx context.Context, db DBTX, w *domain.Wallet) error {
	row := db.QueryRow(ctx, `
		INSERT INTO wallets (user_id, balance_cents, last_reset_at, resets_used_month)
		VALUES ($1, $2, now(), 0)
		RETURNING `+walletColumns,
		w.UserID,
		int64ToNumeric(w.BalanceCents),
	)
	created, err := scanWallet(row)
	if err != nil {
		return fmt.Errorf("insert wallet: %w", err)
	}
	if created == nil {
		return fmt.Errorf("insert wallet: no row returned")
	}
	*w = *created
	return nil
}

// ApplyDelta uses server-side arithmetic so concurrent debits and credits
// never read a stale balance.
func (r *walletRepo) ApplyDelta(ctx context.Context, tx pgx.Tx, userID uuid.UUID, deltaCents int64) (*domain.Wallet, error) {
	row := tx.QueryRow(ctx, `
		UPDATE wallets
		SET balance_cents = balance_cents + $1, updated_at = now()
		WHERE user_id = $2 AND balance_cents + $1 >= 0
		RETURNING `+walletColumns,
		int64ToNumeric(deltaCents), userID)
	return scanWallet(row)
}

func (r *walletRepo) Reset(ctx context.Context, tx pgx.Tx, params domain.ResetWalletParams) (*domain.Wallet, error) {
	row := tx.QueryRow(ctx, `
		UPDATE wallets
		SET balance_cents = $1,
		    last_reset_at = $2,
		    resets_used_month = CASE WHEN $5 THEN 0 ELSE resets_used_month END
		                        + CASE WHEN $3 THEN 1 ELSE 0 END,
		    updated_at = now()
		WHERE user_id = $4
		RETURNING `+walletColumns,
		int64ToNumeric(params.BalanceCents), params.At, params.CountReset, params.UserID, params.NewPeriod)
	return scanWallet(row)
}

func scanWallet(row pgx.Row) (*domain.Wallet, error) {
	var w domain.Wallet
	var balNum pgtype.Numeric
	err := row.Scan(&w.UserID, &balNum, &w.LastResetAt, &w.ResetsUsedMonth, &w.CreatedAt, &w.UpdatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("scan wallet: %w", err)
	}

	w.BalanceCents, err = numericToInt64(balNum)
	if err != nil {
		return nil, fmt.Errorf("convert balance_cents: %w", err)
	}
	return &w, nil
}
