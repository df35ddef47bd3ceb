package ledger

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/sideline/platform/internal/domain"
	"github.com/sideline/platform/internal/repository"
)

// AuditResult holds the outcome of a wallet reconciliation.
type AuditResult struct {
	UserID       uuid.UUID        `json:"user_id"`
	BalanceCents int64            `json:"balance_cents"`
	EntryCount   int              `json:"entry_count"`
	Invariants   []InvariantCheck `json:"invariants"`
	AllPassed    bool             `json:"all_passed"`
}

// InvariantCheck records a single invariant validation.
type InvariantCheck struct {
	Name   string `json:"name"`
	Passed bool   `json:"passed"`
	Detail string `json:"detail"`
}

// auditWindow bounds how many recent entries a reconciliation walks.
const auditWindow = 100

// AuditWallet reconciles a wallet against its most recent ledger entries.
//
// Invariants:
//  1. Balance non-negativity
//  2. Ledger parity: the newest entry's balance_after matches the wallet row
//  3. Chain continuity: each entry's balance_after equals the previous one
//     plus its delta, restarting at every reset
func (e *Engine) AuditWallet(ctx context.Context, db repository.DBTX, userID uuid.UUID) (*AuditResult, error) {
	wallet, err := e.wallets.FindByUser(ctx, db, userID)
	if err != nil {
		return nil, fmt.Errorf("audit find wallet: %w", err)
	}
	if wallet == nil {
		return nil, domain.ErrNotFound("wallet", userID.String())
	}

	entries, err := e.entries.ListByUser(ctx, db, userID, nil, auditWindow)
	if err != nil {
		return nil, fmt.Errorf("audit list entries: %w", err)
	}

	checks := ValidateInvariants(wallet, entries)
	allPassed := true
	for _, c := range checks {
		if !c.Passed {
			allPassed = false
		}
	}

	return &AuditResult{
		UserID:       userID,
		BalanceCents: wallet.BalanceCents,
		EntryCount:   len(entries),
		Invariants:   checks,
		AllPassed:    allPassed,
	}, nil
}

// ValidateInvariants checks a wallet against its ledger entries, newest first.
func ValidateInvariants(wallet *domain.Wallet, entries []domain.LedgerEntry) []InvariantCheck {
	checks := make([]InvariantCheck, 0, 3)

	checks = append(checks, InvariantCheck{
		Name:   "balance_non_negative",
		Passed: wallet.BalanceCents >= 0,
		Detail: fmt.Sprintf("balance=%d", wallet.BalanceCents),
	})

	if len(entries) == 0 {
		checks = append(checks, InvariantCheck{
			Name:   "ledger_parity",
			Passed: true,
			Detail: "no entries (empty ledger)",
		})
	} else {
		last := entries[0]
		checks = append(checks, InvariantCheck{
			Name:   "ledger_parity",
			Passed: last.BalanceAfter == wallet.BalanceCents,
			Detail: fmt.Sprintf("wallet=%d last_entry=%d (entry %d)", wallet.BalanceCents, last.BalanceAfter, last.ID),
		})
	}

	chain := InvariantCheck{Name: "chain_continuity", Passed: true, Detail: fmt.Sprintf("%d entries checked", len(entries))}
	for i := len(entries) - 2; i >= 0; i-- {
		prev, cur := entries[i+1], entries[i]
		if cur.Reason == domain.ReasonReset {
			continue
		}
		if prev.BalanceAfter+cur.DeltaCents != cur.BalanceAfter {
			chain.Passed = false
			chain.Detail = fmt.Sprintf("entry %d: %d + %d != %d", cur.ID, prev.BalanceAfter, cur.DeltaCents, cur.BalanceAfter)
			break
		}
	}
	checks = append(checks, chain)

	return checks
}
