package ledger

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/sideline/platform/internal/domain"
	"github.com/sideline/platform/internal/repository"
)

// Engine provides the foundational wallet operations:
//  1. LockWalletForUpdate: row-level pessimistic lock
//  2. PostEntry: relative balance update + append-only insert + outbox event
//
// Every balance change goes through PostEntry except a reset, which sets the
// balance to a fixed amount and records a zero-delta entry.
type Engine struct {
	wallets repository.WalletRepository
	entries repository.LedgerRepository
	outbox  repository.OutboxRepository
}

// NewEngine creates a ledger engine with the given repositories.
func NewEngine(
	wallets repository.WalletRepository,
	entries repository.LedgerRepository,
	outbox repository.OutboxRepository,
) *Engine {
	return &Engine{
		wallets: wallets,
		entries: entries,
		outbox:  outbox,
	}
}

// LockWalletForUpdate acquires a row-level lock and returns the wallet.
// Must be called within a transaction.
func (e *Engine) LockWalletForUpdate(ctx context.Context, tx pgx.Tx, userID uuid.UUID) (*domain.Wallet, error) {
	wallet, err := e.wallets.LockForUpdate(ctx, tx, userID)
	if err != nil {
		return nil, fmt.Errorf("lock wallet: %w", err)
	}
	if wallet == nil {
		return nil, domain.ErrNotFound("wallet", userID.String())
	}
	return wallet, nil
}

// PostEntry atomically applies a delta to the wallet and appends a ledger entry.
//
// Steps:
//  1. Update the balance with server-side arithmetic (guarded >= 0)
//  2. Insert the ledger entry with the post-update balance
//  3. Insert the outbox event
//
// All 3 steps run within the caller's transaction.
func (e *Engine) PostEntry(ctx context.Context, tx pgx.Tx, params domain.PostEntryParams) (*domain.LedgerEntry, *domain.Wallet, error) {
	wallet, err := e.wallets.ApplyDelta(ctx, tx, params.UserID, params.DeltaCents)
	if err != nil {
		return nil, nil, fmt.Errorf("apply delta: %w", err)
	}
	if wallet == nil {
		if params.DeltaCents < 0 {
			return nil, nil, domain.ErrInsufficientFunds()
		}
		return nil, nil, domain.ErrNotFound("wallet", params.UserID.String())
	}

	params.Metadata = ensureJSON(params.Metadata)
	entry, err := e.entries.Insert(ctx, tx, params, wallet.BalanceCents)
	if err != nil {
		return nil, nil, fmt.Errorf("insert ledger entry: %w", err)
	}

	if err := e.outbox.Insert(ctx, tx, domain.NewLedgerPostedEvent(entry)); err != nil {
		return nil, nil, fmt.Errorf("insert outbox event: %w", err)
	}

	return entry, wallet, nil
}

func ensureJSON(data json.RawMessage) json.RawMessage {
	if data == nil {
		return json.RawMessage(`{}`)
	}
	return data
}

func mergeMeta(base json.RawMessage, extra map[string]interface{}) json.RawMessage {
	merged := make(map[string]interface{})
	if len(base) > 0 {
		_ = json.Unmarshal(base, &merged)
	}
	for k, v := range extra {
		merged[k] = v
	}
	out, _ := json.Marshal(merged)
	return out
}

// Emit writes a domain event to the outbox within the caller's transaction.
func (e *Engine) Emit(ctx context.Context, db repository.DBTX, draft domain.OutboxDraft) error {
	if err := e.outbox.Insert(ctx, db, draft); err != nil {
		return fmt.Errorf("insert outbox event: %w", err)
	}
	return nil
}
