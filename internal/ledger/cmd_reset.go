package ledger

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/sideline/platform/internal/domain"
)

// ExecuteReset sets the wallet back to a fixed balance and appends a
// zero-delta audit entry. The caller locks the wallet and checks the reset
// cooldown inside the same transaction.
func (e *Engine) ExecuteReset(ctx context.Context, tx pgx.Tx, params domain.ResetWalletParams) (*domain.CommandResult, error) {
	if params.BalanceCents < 0 {
		return nil, domain.ErrValidation("reset balance cannot be negative")
	}

	wallet, err := e.wallets.Reset(ctx, tx, params)
	if err != nil {
		return nil, fmt.Errorf("reset wallet: %w", err)
	}
	if wallet == nil {
		return nil, domain.ErrNotFound("wallet", params.UserID.String())
	}

	meta := mergeMeta(nil, map[string]interface{}{
		"balance_cents":     params.BalanceCents,
		"counted_reset":     params.CountReset,
		"resets_used_month": wallet.ResetsUsedMonth,
	})
	entry, err := e.entries.Insert(ctx, tx, domain.PostEntryParams{
		UserID:     params.UserID,
		DeltaCents: 0,
		Reason:     domain.ReasonReset,
		Metadata:   meta,
	}, wallet.BalanceCents)
	if err != nil {
		return nil, fmt.Errorf("insert reset entry: %w", err)
	}

	if err := e.outbox.Insert(ctx, tx, domain.NewWalletResetEvent(wallet)); err != nil {
		return nil, fmt.Errorf("insert outbox event: %w", err)
	}

	return &domain.CommandResult{Entry: entry, Wallet: wallet}, nil
}
