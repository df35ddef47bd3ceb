package projection

import (
	"context"
	"fmt"
	"time"

	"github.com/sideline/platform/internal/domain"
)

// BalanceProjection represents a cached wallet.
type BalanceProjection struct {
	UserID          string    `json:"user_id"`
	BalanceCents    int64     `json:"balance_cents"`
	LastResetAt     time.Time `json:"last_reset_at"`
	ResetsUsedMonth int       `json:"resets_used_month"`
	UpdatedAt       string    `json:"updated_at"`
}

const balanceTTL = 5 * time.Minute

func balanceKey(userID string) string {
	return fmt.Sprintf("projection:balance:%s", userID)
}

// FromWallet builds the projection for a wallet row.
func FromWallet(w *domain.Wallet) BalanceProjection {
	return BalanceProjection{
		UserID:          w.UserID.String(),
		BalanceCents:    w.BalanceCents,
		LastResetAt:     w.LastResetAt,
		ResetsUsedMonth: w.ResetsUsedMonth,
	}
}

// UpdateBalance caches a wallet projection.
func UpdateBalance(ctx context.Context, store Store, p BalanceProjection) error {
	p.UpdatedAt = time.Now().UTC().Format(time.RFC3339)
	return SetJSON(ctx, store, balanceKey(p.UserID), p, balanceTTL)
}

// GetBalance retrieves a cached wallet projection.
func GetBalance(ctx context.Context, store Store, userID string) (*BalanceProjection, error) {
	var p BalanceProjection
	if err := GetJSON(ctx, store, balanceKey(userID), &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// InvalidateBalance removes a user's cached wallet.
func InvalidateBalance(ctx context.Context, store Store, userID string) error {
	return store.Delete(ctx, balanceKey(userID))
}
