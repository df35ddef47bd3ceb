package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- Validator Tests ---

func TestValidateEmail(t *testing.T) {
	tests := []struct {
		name    string
		email   string
		wantErr bool
		errMsg  string
	}{
		{"valid email", "user@example.com", false, ""},
		{"valid email with dots", "first.last@example.co.uk", false, ""},
		{"valid email with plus", "user+tag@example.com", false, ""},
		{"empty string", "", true, "email is required"},
		{"no at sign", "userexample.com", true, "invalid email format"},
		{"no domain", "user@", true, "invalid email format"},
		{"double at", "user@@example.com", true, "invalid email format"},
		{"no tld", "user@example", true, "invalid email format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateEmail(tt.email)
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errMsg)
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestValidateUsername(t *testing.T) {
	tests := []struct {
		name     string
		username string
		wantErr  bool
	}{
		{"simple", "sharp_bettor", false},
		{"digits", "bettor99", false},
		{"empty", "", true},
		{"too short", "ab", true},
		{"too long", "abcdefghijklmnopqrstuvwxy", true},
		{"spaces", "sharp bettor", true},
		{"symbols", "bettor!", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateUsername(tt.username)
			if tt.wantErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestValidatePositiveAmount(t *testing.T) {
	tests := []struct {
		name    string
		amount  int64
		wantErr bool
	}{
		{"positive", 100, false},
		{"one cent", 1, false},
		{"zero", 0, true},
		{"negative", -100, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePositiveAmount(tt.amount)
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), "amount must be positive")
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestValidateSelection(t *testing.T) {
	tests := []struct {
		market  Market
		side    Side
		wantErr bool
	}{
		{MarketMoneyline, SideHome, false},
		{MarketMoneyline, SideAway, false},
		{MarketSpread, SideHome, false},
		{MarketSpread, SideAway, false},
		{MarketTotal, SideOver, false},
		{MarketTotal, SideUnder, false},
		{MarketMoneyline, SideOver, true},
		{MarketSpread, SideUnder, true},
		{MarketTotal, SideHome, true},
		{"parlay", SideHome, true},
		{MarketTotal, "draw", true},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%s/%s", tt.market, tt.side), func(t *testing.T) {
			err := ValidateSelection(tt.market, tt.side)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, HasCode(err, CodeInvalidSelection))
			} else {
				require.NoError(t, err)
			}
		})
	}
}

// --- AppError Tests ---

func TestAppError_Error(t *testing.T) {
	t.Run("without cause", func(t *testing.T) {
		err := ErrNotFound("event", "42")
		assert.Equal(t, "not_found: event 42 not found", err.Error())
	})

	t.Run("with cause", func(t *testing.T) {
		cause := errors.New("connection refused")
		err := ErrStorage("database error", cause)
		assert.Contains(t, err.Error(), "storage_failure")
		assert.Contains(t, err.Error(), "connection refused")
	})
}

func TestAppError_Unwrap(t *testing.T) {
	cause := errors.New("root cause")
	err := ErrStorage("wrapped", cause)
	assert.Equal(t, cause, errors.Unwrap(err))
}

func TestErrorFactories(t *testing.T) {
	tests := []struct {
		name       string
		err        *AppError
		wantCode   string
		wantStatus int
	}{
		{"ErrUnauthenticated", ErrUnauthenticated("no token"), "unauthenticated", 401},
		{"ErrForbidden", ErrForbidden("bad secret"), "forbidden", 403},
		{"ErrNotFound", ErrNotFound("event", "1"), "not_found", 404},
		{"ErrBettingClosed", ErrBettingClosed(), "betting_closed", 400},
		{"ErrPriceUnavailable", ErrPriceUnavailable("no odds"), "price_unavailable", 400},
		{"ErrInvalidSelection", ErrInvalidSelection(MarketTotal, SideHome), "invalid_selection", 400},
		{"ErrStakeOutOfRange", ErrStakeOutOfRange(500, 10000), "stake_out_of_range", 400},
		{"ErrInsufficientFunds", ErrInsufficientFunds(), "insufficient_funds", 400},
		{"ErrTooSoon", ErrTooSoon("wait"), "too_soon", 400},
		{"ErrValidation", ErrValidation("bad input"), "validation_error", 400},
		{"ErrConflict", ErrConflict("taken"), "conflict", 409},
		{"ErrRateLimited", ErrRateLimited("slow down"), "rate_limited", 429},
		{"ErrAccountLocked", ErrAccountLocked("too many attempts"), "account_locked", 429},
		{"ErrStorage", ErrStorage("oops", nil), "storage_failure", 500},
		{"ErrUnknown", ErrUnknown("oops", nil), "unknown", 500},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantCode, tt.err.Code)
			assert.Equal(t, tt.wantStatus, tt.err.Status)
			assert.NotEmpty(t, tt.err.Message)
		})
	}
}

func TestHasCode(t *testing.T) {
	wrapped := fmt.Errorf("place bet: %w", ErrInsufficientFunds())
	assert.True(t, HasCode(wrapped, CodeInsufficientFunds))
	assert.False(t, HasCode(wrapped, CodeTooSoon))
	assert.False(t, HasCode(errors.New("plain"), CodeInsufficientFunds))
}

// --- Event Tests ---

func TestEvent_BettingOpen(t *testing.T) {
	now := time.Date(2026, 9, 13, 17, 0, 0, 0, time.UTC)

	tests := []struct {
		name   string
		status EventStatus
		start  time.Time
		want   bool
	}{
		{"scheduled future", EventScheduled, now.Add(time.Hour), true},
		{"open future", EventOpen, now.Add(time.Minute), true},
		{"exactly at start", EventOpen, now, false},
		{"started", EventScheduled, now.Add(-time.Minute), false},
		{"final future", EventFinal, now.Add(time.Hour), false},
		{"cancelled future", EventCancelled, now.Add(time.Hour), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := &Event{Status: tt.status, CommenceTime: tt.start}
			assert.Equal(t, tt.want, e.BettingOpen(now))
		})
	}
}

func TestEvent_FinalScores(t *testing.T) {
	t.Run("missing scores are zero", func(t *testing.T) {
		e := &Event{}
		home, away := e.FinalScores()
		assert.Equal(t, 0, home)
		assert.Equal(t, 0, away)
	})

	t.Run("present scores", func(t *testing.T) {
		h, a := 24, 17
		e := &Event{HomeScore: &h, AwayScore: &a}
		home, away := e.FinalScores()
		assert.Equal(t, 24, home)
		assert.Equal(t, 17, away)
	})
}

// --- OddsSnapshot Tests ---

func TestOddsSnapshot_Quote(t *testing.T) {
	ip := func(v int) *int { return &v }
	fp := func(v float64) *float64 { return &v }

	ml := &OddsSnapshot{Market: MarketMoneyline, HomeML: ip(-150), AwayML: ip(130)}
	spread := &OddsSnapshot{Market: MarketSpread, SpreadLine: fp(-3.5), HomeSpreadAmerican: ip(-110), AwaySpreadAmerican: ip(-105)}
	total := &OddsSnapshot{Market: MarketTotal, TotalLine: fp(44.5), OverAmerican: ip(-112)}

	t.Run("moneyline has no line", func(t *testing.T) {
		price, line := ml.Quote(SideAway)
		require.NotNil(t, price)
		assert.Equal(t, 130, *price)
		assert.Nil(t, line)
	})

	t.Run("spread carries line", func(t *testing.T) {
		price, line := spread.Quote(SideHome)
		require.NotNil(t, price)
		require.NotNil(t, line)
		assert.Equal(t, -110, *price)
		assert.Equal(t, -3.5, *line)
	})

	t.Run("unpriced side is nil", func(t *testing.T) {
		price, line := total.Quote(SideUnder)
		assert.Nil(t, price)
		require.NotNil(t, line)
	})

	t.Run("side of another market", func(t *testing.T) {
		price, line := total.Quote(SideHome)
		assert.Nil(t, price)
		assert.Nil(t, line)
	})
}

func TestOutcome_BetStatus(t *testing.T) {
	assert.Equal(t, BetWon, OutcomeWin.BetStatus())
	assert.Equal(t, BetLost, OutcomeLoss.BetStatus())
	assert.Equal(t, BetPush, OutcomePush.BetStatus())
}

// --- Event Factory Tests ---

func TestNewLedgerPostedEvent(t *testing.T) {
	userID := uuid.New()
	entry := &LedgerEntry{
		ID:           7,
		UserID:       userID,
		DeltaCents:   2500,
		BalanceAfter: 101500,
		Reason:       ReasonBetWin,
	}

	event := NewLedgerPostedEvent(entry)

	assert.NotEqual(t, uuid.Nil, event.EventID)
	assert.Equal(t, AggregateWallet, event.AggregateType)
	assert.Equal(t, userID.String(), event.AggregateID)
	assert.Equal(t, EventLedgerPosted, event.EventType)
	assert.Equal(t, userID.String(), event.PartitionKey)
	assert.Equal(t, "sideline.wallet.ledger.posted", event.Topic())
	assert.False(t, event.OccurredAt.IsZero())

	var payload LedgerPostedPayload
	require.NoError(t, json.Unmarshal(event.Payload, &payload))
	assert.Equal(t, int64(101500), payload.BalanceCents)
	assert.Equal(t, ReasonBetWin, payload.Entry.Reason)
}

func TestNewBetEvents(t *testing.T) {
	bet := &Bet{ID: uuid.New(), UserID: uuid.New(), Market: MarketTotal, Side: SideOver, StakeCents: 1000}

	placed := NewBetPlacedEvent(bet)
	assert.Equal(t, AggregateBet, placed.AggregateType)
	assert.Equal(t, bet.ID.String(), placed.AggregateID)
	assert.Equal(t, bet.UserID.String(), placed.PartitionKey)
	assert.Equal(t, EventBetPlaced, placed.EventType)

	settled := NewBetSettledEvent(bet)
	assert.Equal(t, EventBetSettled, settled.EventType)
	assert.NotEqual(t, placed.EventID, settled.EventID)
}

func TestNewUserRegisteredEvent(t *testing.T) {
	userID := uuid.New()
	event := NewUserRegisteredEvent(userID, "sharp_bettor")

	assert.Equal(t, AggregateUser, event.AggregateType)
	assert.Equal(t, EventUserRegistered, event.EventType)

	var payload map[string]string
	require.NoError(t, json.Unmarshal(event.Payload, &payload))
	assert.Equal(t, "sharp_bettor", payload["username"])
}
