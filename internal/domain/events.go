package domain

import "github.com/google/uuid"

// LedgerPostedPayload is the body of EventLedgerPosted.
type LedgerPostedPayload struct {
	Entry        *LedgerEntry `json:"entry"`
	BalanceCents int64        `json:"balance_cents"`
}

// NewLedgerPostedEvent creates the standard wallet event for a ledger entry.
func NewLedgerPostedEvent(entry *LedgerEntry) OutboxDraft {
	uid := entry.UserID.String()
	return newDraft(AggregateWallet, uid, uid, EventLedgerPosted, LedgerPostedPayload{
		Entry:        entry,
		BalanceCents: entry.BalanceAfter,
	})
}

// NewUserRegisteredEvent creates a user lifecycle event.
func NewUserRegisteredEvent(userID uuid.UUID, username string) OutboxDraft {
	uid := userID.String()
	return newDraft(AggregateUser, uid, uid, EventUserRegistered, map[string]string{
		"user_id":  uid,
		"username": username,
	})
}

// NewWalletResetEvent records a completed wallet reset.
func NewWalletResetEvent(w *Wallet) OutboxDraft {
	uid := w.UserID.String()
	return newDraft(AggregateWallet, uid, uid, EventWalletReset, w)
}

// NewBetPlacedEvent records an accepted wager.
func NewBetPlacedEvent(b *Bet) OutboxDraft {
	return newDraft(AggregateBet, b.ID.String(), b.UserID.String(), EventBetPlaced, b)
}

// NewBetSettledEvent records a graded wager.
func NewBetSettledEvent(b *Bet) OutboxDraft {
	return newDraft(AggregateBet, b.ID.String(), b.UserID.String(), EventBetSettled, b)
}
