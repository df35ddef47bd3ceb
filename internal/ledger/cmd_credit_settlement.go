package ledger

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/sideline/platform/internal/domain"
	"github.com/sideline/platform/internal/odds"
)

// ExecuteCreditSettlement credits a won or pushed bet back to the wallet as a
// relative increment, so several bets for one user may settle in one run.
func (e *Engine) ExecuteCreditSettlement(ctx context.Context, tx pgx.Tx, params domain.CreditSettlementParams) (*domain.CommandResult, error) {
	if err := domain.ValidatePositiveAmount(params.AmountCents); err != nil {
		return nil, domain.ErrValidation(err.Error())
	}
	if params.Outcome != domain.OutcomeWin && params.Outcome != domain.OutcomePush {
		return nil, domain.ErrValidation(fmt.Sprintf("outcome %q carries no credit", params.Outcome))
	}

	betID := params.BetID
	meta := mergeMeta(params.Metadata, map[string]interface{}{
		"outcome": string(params.Outcome),
	})

	entry, wallet, err := e.PostEntry(ctx, tx, domain.PostEntryParams{
		UserID:     params.UserID,
		BetID:      &betID,
		DeltaCents: params.AmountCents,
		Reason:     odds.CreditReason(params.Outcome),
		Metadata:   meta,
	})
	if err != nil {
		return nil, fmt.Errorf("credit settlement: %w", err)
	}

	return &domain.CommandResult{Entry: entry, Wallet: wallet}, nil
}
