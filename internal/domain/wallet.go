package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// StartingBalanceCents is the play-money grant at signup and after a reset.
const StartingBalanceCents int64 = 100_000

// Wallet represents a wallets row. Balance is integer cents and never negative.
type Wallet struct {
	UserID          uuid.UUID `json:"user_id"`
	BalanceCents    int64     `json:"balance_cents"`
	LastResetAt     time.Time `json:"last_reset_at"`
	ResetsUsedMonth int       `json:"resets_used_month"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// LedgerReason classifies a ledger entry.
type LedgerReason string

const (
	ReasonSignupGrant   LedgerReason = "signup_grant"
	ReasonBetStake      LedgerReason = "bet_stake"
	ReasonBetWin        LedgerReason = "bet_win"
	ReasonBetPushRefund LedgerReason = "bet_push_refund"
	ReasonReset         LedgerReason = "reset"
)

// LedgerEntry represents a ledger_entries row (append-only).
type LedgerEntry struct {
	ID           int64           `json:"id"`
	UserID       uuid.UUID       `json:"user_id"`
	BetID        *uuid.UUID      `json:"bet_id,omitempty"`
	DeltaCents   int64           `json:"delta_cents"`
	BalanceAfter int64           `json:"balance_after"`
	Reason       LedgerReason    `json:"reason"`
	Metadata     json.RawMessage `json:"metadata"`
	CreatedAt    time.Time       `json:"created_at"`
}

// PostEntryParams is the input to the atomic ledger post.
// Delta is applied relative to the stored balance.
type PostEntryParams struct {
	UserID     uuid.UUID
	BetID      *uuid.UUID
	DeltaCents int64
	Reason     LedgerReason
	Metadata   json.RawMessage
}

// CommandResult is the return value from the wallet commands.
type CommandResult struct {
	Entry  *LedgerEntry
	Wallet *Wallet
}

// DebitStakeParams holds the input for a stake debit at placement.
type DebitStakeParams struct {
	UserID     uuid.UUID
	BetID      uuid.UUID
	StakeCents int64
	Metadata   json.RawMessage
}

// CreditSettlementParams holds the input for a settlement credit.
type CreditSettlementParams struct {
	UserID      uuid.UUID
	BetID       uuid.UUID
	AmountCents int64
	Outcome     Outcome
	Metadata    json.RawMessage
}

// ResetWalletParams holds the input for a wallet reset.
type ResetWalletParams struct {
	UserID       uuid.UUID
	BalanceCents int64
	CountReset   bool
	NewPeriod    bool // zero resets_used_month before counting
	At           time.Time
}
