package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/sideline/platform/internal/domain"
	"github.com/sideline/platform/internal/ledger"
	"github.com/sideline/platform/internal/metrics"
	"github.com/sideline/platform/internal/policy"
	"github.com/sideline/platform/internal/projection"
	"github.com/sideline/platform/internal/repository"
)

const (
	defaultLedgerPage = 20
	maxLedgerPage     = 100
)

// WalletService reads wallets and performs resets.
type WalletService struct {
	pool            repository.TxBeginner
	repos           Repos
	engine          *ledger.Engine
	startingBalance int64
	cache           projection.Store
	metrics         *metrics.Metrics
	logger          *slog.Logger
	now             func() time.Time
}

// NewWalletService creates a WalletService. Resets restore startingBalance.
func NewWalletService(
	pool repository.TxBeginner,
	repos Repos,
	engine *ledger.Engine,
	startingBalance int64,
	cache projection.Store,
	m *metrics.Metrics,
	logger *slog.Logger,
) *WalletService {
	if startingBalance <= 0 {
		startingBalance = domain.StartingBalanceCents
	}
	return &WalletService{
		pool:            pool,
		repos:           repos,
		engine:          engine,
		startingBalance: startingBalance,
		cache:           cache,
		metrics:         m,
		logger:          logger,
		now:             utcNow,
	}
}

// Get returns the user's wallet, served from the balance projection when warm.
// resets_used_month reads zero once the month of the last reset has passed.
func (s *WalletService) Get(ctx context.Context, userID uuid.UUID) (*projection.BalanceProjection, error) {
	cached, err := projection.GetBalance(ctx, s.cache, userID.String())
	if err == nil {
		return s.currentPeriod(cached), nil
	}
	if !errors.Is(err, projection.ErrMiss) {
		s.logger.Warn("read balance projection", "user_id", userID, "error", err)
	}

	wallet, err := s.repos.Wallets.FindByUser(ctx, s.pool, userID)
	if err != nil {
		return nil, domain.ErrStorage("load wallet", err)
	}
	if wallet == nil {
		return nil, domain.ErrNotFound("wallet", userID.String())
	}

	p := projection.FromWallet(wallet)
	if err := projection.UpdateBalance(ctx, s.cache, p); err != nil {
		s.logger.Warn("write balance projection", "user_id", userID, "error", err)
	}
	return s.currentPeriod(&p), nil
}

func (s *WalletService) currentPeriod(p *projection.BalanceProjection) *projection.BalanceProjection {
	if policy.ResetPeriodStarted(p.LastResetAt, s.now()) {
		p.ResetsUsedMonth = 0
	}
	return p
}

// LedgerPage is one page of ledger entries, newest first. NextCursor is nil on
// the last page.
type LedgerPage struct {
	Entries    []domain.LedgerEntry `json:"entries"`
	NextCursor *int64               `json:"next_cursor"`
}

// Ledger pages through a user's ledger entries. cursor is the id of the last
// entry of the previous page.
func (s *WalletService) Ledger(ctx context.Context, userID uuid.UUID, cursor *int64, limit int) (*LedgerPage, error) {
	if limit <= 0 {
		limit = defaultLedgerPage
	}
	if limit > maxLedgerPage {
		limit = maxLedgerPage
	}

	entries, err := s.repos.Ledger.ListByUser(ctx, s.pool, userID, cursor, limit)
	if err != nil {
		return nil, domain.ErrStorage("list ledger entries", err)
	}

	page := &LedgerPage{Entries: entries}
	if page.Entries == nil {
		page.Entries = []domain.LedgerEntry{}
	}
	if len(entries) == limit {
		next := entries[len(entries)-1].ID
		page.NextCursor = &next
	}
	return page, nil
}

// ResetResult reports the wallet after a reset.
type ResetResult struct {
	BalanceCents    int64     `json:"balance_cents"`
	LastResetAt     time.Time `json:"last_reset_at"`
	ResetsUsedMonth int       `json:"resets_used_month"`
}

// Reset restores the starting balance when the plan's cooldown has elapsed.
// Paid users may reset every 7 days, free users every 30; only free resets
// count toward resets_used_month. The cooldown is re-checked under the wallet
// row lock so two concurrent resets cannot both succeed.
func (s *WalletService) Reset(ctx context.Context, userID uuid.UUID) (res *ResetResult, err error) {
	defer func() {
		switch {
		case err == nil:
			s.metrics.WalletReset("ok")
		case domain.HasCode(err, domain.CodeTooSoon):
			s.metrics.WalletReset("too_soon")
		default:
			s.metrics.WalletReset("error")
		}
	}()

	profile, err := s.repos.Profiles.FindByUserID(ctx, s.pool, userID)
	if err != nil {
		return nil, domain.ErrStorage("load profile", err)
	}
	if profile == nil {
		return nil, domain.ErrNotFound("profile", userID.String())
	}
	wallet, err := s.repos.Wallets.FindByUser(ctx, s.pool, userID)
	if err != nil {
		return nil, domain.ErrStorage("load wallet", err)
	}
	if wallet == nil {
		return nil, domain.ErrNotFound("wallet", userID.String())
	}

	now := s.now()
	if err := policy.CanReset(wallet.LastResetAt, profile.IsPaid, now); err != nil {
		return nil, err
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, domain.ErrStorage("begin tx", err)
	}
	defer tx.Rollback(ctx)

	locked, err := s.engine.LockWalletForUpdate(ctx, tx, userID)
	if err != nil {
		return nil, passOrStorage("lock wallet", err)
	}
	if err := policy.CanReset(locked.LastResetAt, profile.IsPaid, now); err != nil {
		return nil, err
	}

	result, err := s.engine.ExecuteReset(ctx, tx, domain.ResetWalletParams{
		UserID:       userID,
		BalanceCents: s.startingBalance,
		CountReset:   !profile.IsPaid,
		NewPeriod:    policy.ResetPeriodStarted(locked.LastResetAt, now),
		At:           now,
	})
	if err != nil {
		return nil, passOrStorage("reset wallet", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, domain.ErrStorage("commit tx", err)
	}

	if err := projection.InvalidateBalance(ctx, s.cache, userID.String()); err != nil {
		s.logger.Warn("invalidate balance projection", "user_id", userID, "error", err)
	}
	s.logger.Info("wallet reset",
		"user_id", userID, "is_paid", profile.IsPaid, "resets_used_month", result.Wallet.ResetsUsedMonth)

	return &ResetResult{
		BalanceCents:    result.Wallet.BalanceCents,
		LastResetAt:     result.Wallet.LastResetAt,
		ResetsUsedMonth: result.Wallet.ResetsUsedMonth,
	}, nil
}

// Audit reconciles a wallet against its recent ledger entries.
func (s *WalletService) Audit(ctx context.Context, userID uuid.UUID) (*ledger.AuditResult, error) {
	result, err := s.engine.AuditWallet(ctx, s.pool, userID)
	if err != nil {
		return nil, passOrStorage(fmt.Sprintf("audit wallet %s", userID), err)
	}
	if !result.AllPassed {
		s.logger.Warn("wallet audit failed", "user_id", userID, "entries", result.EntryCount)
	}
	return result, nil
}
