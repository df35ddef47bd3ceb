package ledger

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sideline/platform/internal/domain"
	"github.com/sideline/platform/internal/repository/repotest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestEngine(t *testing.T, balance int64) (*Engine, *repotest.Store, uuid.UUID) {
	t.Helper()
	store := repotest.NewStore()
	userID := uuid.New()
	store.PutWallet(domain.Wallet{UserID: userID, BalanceCents: balance, LastResetAt: time.Now().UTC()})
	return NewEngine(store.Wallets(), store.Ledger(), store.Outbox()), store, userID
}

func TestExecuteDebitStake(t *testing.T) {
	ctx := context.Background()

	t.Run("debits and records entry", func(t *testing.T) {
		engine, store, userID := newTestEngine(t, 100000)
		tx, err := store.Begin(ctx)
		require.NoError(t, err)

		betID := uuid.New()
		res, err := engine.ExecuteDebitStake(ctx, tx, domain.DebitStakeParams{UserID: userID, BetID: betID, StakeCents: 1000})
		require.NoError(t, err)
		require.NoError(t, tx.Commit(ctx))

		assert.Equal(t, int64(99000), res.Wallet.BalanceCents)
		assert.Equal(t, int64(-1000), res.Entry.DeltaCents)
		assert.Equal(t, int64(99000), res.Entry.BalanceAfter)
		assert.Equal(t, domain.ReasonBetStake, res.Entry.Reason)
		require.NotNil(t, res.Entry.BetID)
		assert.Equal(t, betID, *res.Entry.BetID)
		assert.JSONEq(t, `{"stake_cents":1000}`, string(res.Entry.Metadata))
		assert.Equal(t, []domain.EventType{domain.EventLedgerPosted}, store.OutboxEvents())
	})

	t.Run("insufficient funds leaves wallet untouched", func(t *testing.T) {
		engine, store, userID := newTestEngine(t, 500)
		tx, err := store.Begin(ctx)
		require.NoError(t, err)

		_, err = engine.ExecuteDebitStake(ctx, tx, domain.DebitStakeParams{UserID: userID, BetID: uuid.New(), StakeCents: 501})
		require.Error(t, err)
		assert.True(t, domain.HasCode(err, domain.CodeInsufficientFunds))
		require.NoError(t, tx.Rollback(ctx))

		assert.Equal(t, int64(500), store.Wallet(userID).BalanceCents)
		assert.Empty(t, store.Entries(userID))
	})

	t.Run("exact balance drains to zero", func(t *testing.T) {
		engine, store, userID := newTestEngine(t, 500)
		tx, _ := store.Begin(ctx)
		res, err := engine.ExecuteDebitStake(ctx, tx, domain.DebitStakeParams{UserID: userID, BetID: uuid.New(), StakeCents: 500})
		require.NoError(t, err)
		assert.Zero(t, res.Wallet.BalanceCents)
	})

	t.Run("non-positive stake rejected", func(t *testing.T) {
		engine, store, userID := newTestEngine(t, 500)
		tx, _ := store.Begin(ctx)
		_, err := engine.ExecuteDebitStake(ctx, tx, domain.DebitStakeParams{UserID: userID, BetID: uuid.New(), StakeCents: 0})
		assert.True(t, domain.HasCode(err, domain.CodeValidation))
	})
}

func TestExecuteCreditSettlement(t *testing.T) {
	ctx := context.Background()

	t.Run("win credit", func(t *testing.T) {
		engine, store, userID := newTestEngine(t, 99000)
		tx, _ := store.Begin(ctx)
		res, err := engine.ExecuteCreditSettlement(ctx, tx, domain.CreditSettlementParams{
			UserID: userID, BetID: uuid.New(), AmountCents: 2500, Outcome: domain.OutcomeWin,
		})
		require.NoError(t, err)
		require.NoError(t, tx.Commit(ctx))

		assert.Equal(t, int64(101500), res.Wallet.BalanceCents)
		assert.Equal(t, domain.ReasonBetWin, res.Entry.Reason)
	})

	t.Run("push refund", func(t *testing.T) {
		engine, store, userID := newTestEngine(t, 99000)
		tx, _ := store.Begin(ctx)
		res, err := engine.ExecuteCreditSettlement(ctx, tx, domain.CreditSettlementParams{
			UserID: userID, BetID: uuid.New(), AmountCents: 1000, Outcome: domain.OutcomePush,
		})
		require.NoError(t, err)
		assert.Equal(t, domain.ReasonBetPushRefund, res.Entry.Reason)
		assert.Equal(t, int64(100000), res.Wallet.BalanceCents)
	})

	t.Run("loss carries no credit", func(t *testing.T) {
		engine, store, userID := newTestEngine(t, 99000)
		tx, _ := store.Begin(ctx)
		_, err := engine.ExecuteCreditSettlement(ctx, tx, domain.CreditSettlementParams{
			UserID: userID, BetID: uuid.New(), AmountCents: 1000, Outcome: domain.OutcomeLoss,
		})
		assert.True(t, domain.HasCode(err, domain.CodeValidation))
	})

	t.Run("credits accumulate relative to stored balance", func(t *testing.T) {
		engine, store, userID := newTestEngine(t, 0)
		tx, _ := store.Begin(ctx)
		for i := 0; i < 3; i++ {
			_, err := engine.ExecuteCreditSettlement(ctx, tx, domain.CreditSettlementParams{
				UserID: userID, BetID: uuid.New(), AmountCents: 1000, Outcome: domain.OutcomeWin,
			})
			require.NoError(t, err)
		}
		require.NoError(t, tx.Commit(ctx))
		assert.Equal(t, int64(3000), store.Wallet(userID).BalanceCents)
	})
}

func TestExecuteSignupGrant(t *testing.T) {
	ctx := context.Background()
	engine, store, userID := newTestEngine(t, 0)
	tx, _ := store.Begin(ctx)

	res, err := engine.ExecuteSignupGrant(ctx, tx, userID, domain.StartingBalanceCents)
	require.NoError(t, err)
	require.NoError(t, tx.Commit(ctx))

	assert.Equal(t, domain.StartingBalanceCents, res.Wallet.BalanceCents)
	assert.Equal(t, domain.ReasonSignupGrant, res.Entry.Reason)
	assert.Nil(t, res.Entry.BetID)
}

func TestExecuteReset(t *testing.T) {
	ctx := context.Background()
	at := time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)

	t.Run("free reset counts and writes zero delta entry", func(t *testing.T) {
		engine, store, userID := newTestEngine(t, 1234)
		tx, _ := store.Begin(ctx)
		_, err := engine.LockWalletForUpdate(ctx, tx, userID)
		require.NoError(t, err)

		res, err := engine.ExecuteReset(ctx, tx, domain.ResetWalletParams{
			UserID: userID, BalanceCents: domain.StartingBalanceCents, CountReset: true, At: at,
		})
		require.NoError(t, err)
		require.NoError(t, tx.Commit(ctx))

		assert.Equal(t, domain.StartingBalanceCents, res.Wallet.BalanceCents)
		assert.Equal(t, 1, res.Wallet.ResetsUsedMonth)
		assert.Equal(t, at, res.Wallet.LastResetAt)
		assert.Zero(t, res.Entry.DeltaCents)
		assert.Equal(t, domain.StartingBalanceCents, res.Entry.BalanceAfter)
		assert.Equal(t, domain.ReasonReset, res.Entry.Reason)
		assert.Equal(t, []domain.EventType{domain.EventWalletReset}, store.OutboxEvents())
	})

	t.Run("paid reset does not count", func(t *testing.T) {
		engine, store, userID := newTestEngine(t, 0)
		tx, _ := store.Begin(ctx)
		res, err := engine.ExecuteReset(ctx, tx, domain.ResetWalletParams{
			UserID: userID, BalanceCents: domain.StartingBalanceCents, CountReset: false, At: at,
		})
		require.NoError(t, err)
		assert.Zero(t, res.Wallet.ResetsUsedMonth)
	})

	t.Run("missing wallet", func(t *testing.T) {
		engine, store, _ := newTestEngine(t, 0)
		tx, _ := store.Begin(ctx)
		_, err := engine.ExecuteReset(ctx, tx, domain.ResetWalletParams{UserID: uuid.New(), BalanceCents: 100000, At: at})
		assert.True(t, domain.HasCode(err, domain.CodeNotFound))

		_, err = engine.LockWalletForUpdate(ctx, tx, uuid.New())
		assert.True(t, domain.HasCode(err, domain.CodeNotFound))
	})
}

func TestPostEntry_OutboxFailureRollsBack(t *testing.T) {
	ctx := context.Background()
	engine, store, userID := newTestEngine(t, 100000)
	store.FailOn("outbox.Insert", errors.New("disk full"))

	tx, _ := store.Begin(ctx)
	_, err := engine.ExecuteDebitStake(ctx, tx, domain.DebitStakeParams{UserID: userID, BetID: uuid.New(), StakeCents: 1000})
	require.Error(t, err)
	require.NoError(t, tx.Rollback(ctx))

	assert.Equal(t, int64(100000), store.Wallet(userID).BalanceCents)
	assert.Empty(t, store.Entries(userID))
}

func TestAuditWallet(t *testing.T) {
	ctx := context.Background()
	engine, store, userID := newTestEngine(t, 0)

	tx, _ := store.Begin(ctx)
	_, err := engine.ExecuteSignupGrant(ctx, tx, userID, 100000)
	require.NoError(t, err)
	_, err = engine.ExecuteDebitStake(ctx, tx, domain.DebitStakeParams{UserID: userID, BetID: uuid.New(), StakeCents: 1000})
	require.NoError(t, err)
	require.NoError(t, tx.Commit(ctx))

	res, err := engine.AuditWallet(ctx, store, userID)
	require.NoError(t, err)
	assert.True(t, res.AllPassed)
	assert.Equal(t, 2, res.EntryCount)
	assert.Equal(t, int64(99000), res.BalanceCents)

	// drift the wallet row away from the ledger
	store.PutWallet(domain.Wallet{UserID: userID, BalanceCents: 5})
	res, err = engine.AuditWallet(ctx, store, userID)
	require.NoError(t, err)
	assert.False(t, res.AllPassed)

	_, err = engine.AuditWallet(ctx, store, uuid.New())
	assert.True(t, domain.HasCode(err, domain.CodeNotFound))
}
