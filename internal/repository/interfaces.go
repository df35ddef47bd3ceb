package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/sideline/platform/internal/domain"
)

// DBTX abstracts pgx.Tx and pgxpool.Pool so repositories work with both.
type DBTX interface {
	Exec(ctx context.Context, sql string, arguments ...interface{}) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
}

// TxBeginner is a DBTX that can open transactions. *pgxpool.Pool satisfies it.
type TxBeginner interface {
	DBTX
	Begin(ctx context.Context) (pgx.Tx, error)
}

// AuthUserRepository provides access to auth_users.
type AuthUserRepository interface {
	// FindByEmail returns an auth user by email.
	FindByEmail(ctx context.Context, db DBTX, email string) (*domain.AuthUser, error)

	// Create inserts a new auth user.
	Create(ctx context.Context, db DBTX, user *domain.AuthUser) error
}

// AdminUserRepository provides access to admin_users.
type AdminUserRepository interface {
	FindByEmail(ctx context.Context, db DBTX, email string) (*domain.AdminUser, error)
}

// ProfileRepository provides access to user_profiles.
type ProfileRepository interface {
	// FindByUserID returns a user profile.
	FindByUserID(ctx context.Context, db DBTX, userID uuid.UUID) (*domain.UserProfile, error)

	// FindByUsername returns a profile by its unique username.
	FindByUsername(ctx context.Context, db DBTX, username string) (*domain.UserProfile, error)

	// Create inserts a new user profile.
	Create(ctx context.Context, db DBTX, profile *domain.UserProfile) error
}

// WalletRepository provides access to wallets.
type WalletRepository interface {
	// FindByUser returns a wallet by owner.
	FindByUser(ctx context.Context, db DBTX, userID uuid.UUID) (*domain.Wallet, error)

	// LockForUpdate acquires a row-level lock (SELECT FOR UPDATE) and returns the wallet.
	LockForUpdate(ctx context.Context, tx pgx.Tx, userID uuid.UUID) (*domain.Wallet, error)

	// Create inserts a new wallet.
	Create(ctx context.Context, db DBTX, wallet *domain.Wallet) error

	// ApplyDelta adds delta to the balance with server-side arithmetic, guarded
	// so the balance never goes negative. Returns nil when the guard rejects
	// the change or the wallet does not exist.
	ApplyDelta(ctx context.Context, tx pgx.Tx, userID uuid.UUID, deltaCents int64) (*domain.Wallet, error)

	// Reset sets the balance to a fixed amount and stamps last_reset_at.
	Reset(ctx context.Context, tx pgx.Tx, params domain.ResetWalletParams) (*domain.Wallet, error)
}

// LedgerRepository provides access to ledger_entries (append-only).
type LedgerRepository interface {
	// Insert appends a ledger entry with the resulting balance. Returns the inserted row.
	Insert(ctx context.Context, db DBTX, params domain.PostEntryParams, balanceAfter int64) (*domain.LedgerEntry, error)

	// ListByUser returns entries for a user, newest first.
	// Supports cursor-based pagination on entry id.
	ListByUser(ctx context.Context, db DBTX, userID uuid.UUID, cursor *int64, limit int) ([]domain.LedgerEntry, error)
}

// BetRepository provides access to bets.
type BetRepository interface {
	// Insert creates a pending bet.
	Insert(ctx context.Context, db DBTX, bet *domain.Bet) error

	// FindByID returns a bet by ID.
	FindByID(ctx context.Context, db DBTX, id uuid.UUID) (*domain.Bet, error)

	// FindByIdempotencyKey returns the bet a user placed with the given key.
	FindByIdempotencyKey(ctx context.Context, db DBTX, userID uuid.UUID, key string) (*domain.Bet, error)

	// ListByUser returns a user's bets joined with their events, newest first.
	ListByUser(ctx context.Context, db DBTX, userID uuid.UUID, limit int) ([]domain.BetWithEvent, error)

	// ListSettleable returns pending bets on final events, oldest first.
	ListSettleable(ctx context.Context, db DBTX, limit int) ([]domain.SettleableBet, error)

	// MarkSettled moves a bet out of pending. Returns false when the bet was
	// no longer pending.
	MarkSettled(ctx context.Context, db DBTX, id uuid.UUID, status domain.BetStatus, payoutCents int64, at time.Time) (bool, error)

	// Leaderboard ranks users by wallet balance.
	Leaderboard(ctx context.Context, db DBTX, limit int) ([]domain.LeaderboardRow, error)
}

// EventFilter narrows an event listing.
type EventFilter struct {
	Since  *time.Time
	Status *domain.EventStatus
	Limit  int
}

// EventRepository provides access to events.
type EventRepository interface {
	FindByID(ctx context.Context, db DBTX, id int64) (*domain.Event, error)

	// List returns events ordered by commence_time.
	List(ctx context.Context, db DBTX, filter EventFilter) ([]domain.Event, error)

	// Create inserts an event and fills its generated fields.
	Create(ctx context.Context, db DBTX, event *domain.Event) error

	// UpsertByKey inserts or refreshes an event by provider key. Events that
	// are final or cancelled keep their status.
	UpsertByKey(ctx context.Context, db DBTX, event *domain.Event) (*domain.Event, error)

	// UpdateStatus sets status and scores. Returns nil when the event does not exist.
	UpdateStatus(ctx context.Context, db DBTX, id int64, status domain.EventStatus, homeScore, awayScore *int) (*domain.Event, error)

	// MarkFinalByKey finalizes an open event with scores. Returns false when
	// the event is unknown or already closed.
	MarkFinalByKey(ctx context.Context, db DBTX, eventKey string, homeScore, awayScore int) (bool, error)
}

// OddsRepository provides access to odds_snapshots.
type OddsRepository interface {
	// ListByEvents returns all snapshots for the given events.
	ListByEvents(ctx context.Context, db DBTX, eventIDs []int64) ([]domain.OddsSnapshot, error)

	// ListByEventMarket returns all bookmaker snapshots for one event and market.
	ListByEventMarket(ctx context.Context, db DBTX, eventID int64, market domain.Market) ([]domain.OddsSnapshot, error)

	// Upsert writes a feed snapshot. Returns false when an overridden row
	// blocked the write.
	Upsert(ctx context.Context, db DBTX, snap *domain.OddsSnapshot) (bool, error)

	// Override forces fields on every snapshot of (event, market) and flags
	// them overridden. Returns the number of rows changed.
	Override(ctx context.Context, db DBTX, eventID int64, market domain.Market, fields map[string]interface{}) (int64, error)

	// ClearOverride lets ingestion write the (event, market) rows again.
	ClearOverride(ctx context.Context, db DBTX, eventID int64, market domain.Market) (int64, error)
}

// OutboxRepository provides access to the event_outbox table.
type OutboxRepository interface {
	// Insert writes an outbox event (within the same transaction as the state change).
	Insert(ctx context.Context, db DBTX, draft domain.OutboxDraft) error

	// FetchUnpublished returns unpublished events for the outbox poller.
	FetchUnpublished(ctx context.Context, db DBTX, limit int) ([]domain.OutboxRow, error)

	// MarkPublished deletes relayed events.
	MarkPublished(ctx context.Context, db DBTX, ids []int64) error
}
