package projection

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sideline/platform/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedisStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisStore(client), mr
}

func TestStores(t *testing.T) {
	redisStore, _ := newRedisStore(t)
	stores := map[string]Store{
		"memory": NewInMemoryStore(),
		"redis":  redisStore,
	}

	for name, store := range stores {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			require.NoError(t, store.Set(ctx, "k1", []byte("hello"), 0))
			val, err := store.Get(ctx, "k1")
			require.NoError(t, err)
			assert.Equal(t, []byte("hello"), val)

			_, err = store.Get(ctx, "missing")
			assert.True(t, errors.Is(err, ErrMiss))

			require.NoError(t, store.Delete(ctx, "k1"))
			_, err = store.Get(ctx, "k1")
			assert.True(t, errors.Is(err, ErrMiss))

			// deleting an absent key is not an error
			assert.NoError(t, store.Delete(ctx, "k1"))
		})
	}
}

func TestInMemoryStore_TTLExpiry(t *testing.T) {
	store := NewInMemoryStore()
	now := time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }
	ctx := context.Background()

	_ = store.Set(ctx, "k1", []byte("data"), time.Minute)
	_, err := store.Get(ctx, "k1")
	require.NoError(t, err)

	now = now.Add(2 * time.Minute)
	_, err = store.Get(ctx, "k1")
	assert.True(t, errors.Is(err, ErrMiss))
}

func TestRedisStore_TTLExpiry(t *testing.T) {
	store, mr := newRedisStore(t)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "k1", []byte("data"), BoardTTL))
	mr.FastForward(BoardTTL + time.Second)

	_, err := store.Get(ctx, "k1")
	assert.True(t, errors.Is(err, ErrMiss))
}

func TestRedisStore_ConnectionError(t *testing.T) {
	store, mr := newRedisStore(t)
	mr.Close()

	_, err := store.Get(context.Background(), "k1")
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrMiss))
}

func TestBalanceProjection_RoundTrip(t *testing.T) {
	store, _ := newRedisStore(t)
	ctx := context.Background()

	userID := uuid.New()
	reset := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
	p := FromWallet(&domain.Wallet{UserID: userID, BalanceCents: 100000, LastResetAt: reset, ResetsUsedMonth: 1})

	require.NoError(t, UpdateBalance(ctx, store, p))

	got, err := GetBalance(ctx, store, userID.String())
	require.NoError(t, err)
	assert.Equal(t, int64(100000), got.BalanceCents)
	assert.Equal(t, 1, got.ResetsUsedMonth)
	assert.True(t, reset.Equal(got.LastResetAt))
	assert.NotEmpty(t, got.UpdatedAt)
}

func TestBalanceProjection_Invalidate(t *testing.T) {
	store := NewInMemoryStore()
	ctx := context.Background()

	_ = UpdateBalance(ctx, store, BalanceProjection{UserID: "abc-123", BalanceCents: 100})
	_ = InvalidateBalance(ctx, store, "abc-123")

	_, err := GetBalance(ctx, store, "abc-123")
	assert.True(t, errors.Is(err, ErrMiss))
}

func TestBoard(t *testing.T) {
	store, mr := newRedisStore(t)
	ctx := context.Background()

	type row struct {
		EventID int64 `json:"event_id"`
	}
	require.NoError(t, PutBoard(ctx, store, []row{{EventID: 7}}))
	assert.True(t, mr.Exists(boardKey))

	var got []row
	require.NoError(t, GetBoard(ctx, store, &got))
	assert.Equal(t, []row{{EventID: 7}}, got)

	require.NoError(t, InvalidateBoard(ctx, store))
	assert.True(t, errors.Is(GetBoard(ctx, store, &got), ErrMiss))
}
