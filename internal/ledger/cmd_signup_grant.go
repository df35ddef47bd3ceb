package ledger

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/sideline/platform/internal/domain"
)

// ExecuteSignupGrant funds a freshly created wallet with the starting balance.
func (e *Engine) ExecuteSignupGrant(ctx context.Context, tx pgx.Tx, userID uuid.UUID, amountCents int64) (*domain.CommandResult, error) {
	if err := domain.ValidatePositiveAmount(amountCents); err != nil {
		return nil, domain.ErrValidation(err.Error())
	}

	entry, wallet, err := e.PostEntry(ctx, tx, domain.PostEntryParams{
		UserID:     userID,
		DeltaCents: amountCents,
		Reason:     domain.ReasonSignupGrant,
	})
	if err != nil {
		return nil, fmt.Errorf("signup grant: %w", err)
	}

	return &domain.CommandResult{Entry: entry, Wallet: wallet}, nil
}
