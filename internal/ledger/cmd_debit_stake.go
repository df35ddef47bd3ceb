package ledger

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/sideline/platform/internal/domain"
)

// ExecuteDebitStake takes a bet's stake from the wallet. The conditional
// update rejects the debit when the balance is short, so a stale read before
// the transaction can never overdraw the wallet.
func (e *Engine) ExecuteDebitStake(ctx context.Context, tx pgx.Tx, params domain.DebitStakeParams) (*domain.CommandResult, error) {
	if err := domain.ValidatePositiveAmount(params.StakeCents); err != nil {
		return nil, domain.ErrValidation(err.Error())
	}

	betID := params.BetID
	meta := mergeMeta(params.Metadata, map[string]interface{}{
		"stake_cents": params.StakeCents,
	})

	entry, wallet, err := e.PostEntry(ctx, tx, domain.PostEntryParams{
		UserID:     params.UserID,
		BetID:      &betID,
		DeltaCents: -params.StakeCents,
		Reason:     domain.ReasonBetStake,
		Metadata:   meta,
	})
	if err != nil {
		return nil, fmt.Errorf("debit stake: %w", err)
	}

	return &domain.CommandResult{Entry: entry, Wallet: wallet}, nil
}
