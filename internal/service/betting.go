package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/sideline/platform/internal/domain"
	"github.com/sideline/platform/internal/ledger"
	"github.com/sideline/platform/internal/metrics"
	"github.com/sideline/platform/internal/odds"
	"github.com/sideline/platform/internal/policy"
	"github.com/sideline/platform/internal/projection"
	"github.com/sideline/platform/internal/repository"
)

// BettingService places and lists wagers.
type BettingService struct {
	pool      repository.TxBeginner
	repos     Repos
	engine    *ledger.Engine
	limits    policy.StakeLimitPolicy
	preferred []string
	cache     projection.Store
	metrics   *metrics.Metrics
	logger    *slog.Logger
	now       func() time.Time
}

// NewBettingService creates a BettingService. preferred orders the bookmakers
// consulted when pricing a bet.
func NewBettingService(
	pool repository.TxBeginner,
	repos Repos,
	engine *ledger.Engine,
	limits policy.StakeLimitPolicy,
	preferred []string,
	cache projection.Store,
	m *metrics.Metrics,
	logger *slog.Logger,
) *BettingService {
	return &BettingService{
		pool:      pool,
		repos:     repos,
		engine:    engine,
		limits:    limits,
		preferred: preferred,
		cache:     cache,
		metrics:   m,
		logger:    logger,
		now:       utcNow,
	}
}

// PlaceBetInput holds the bet placement request. Stake bounds are enforced by
// the stake policy, not by tags, so that a zero stake reports stake_out_of_range.
type PlaceBetInput struct {
	EventID    int64         `json:"event_id" validate:"required,gt=0"`
	Market     domain.Market `json:"market" validate:"required"`
	Side       domain.Side   `json:"side" validate:"required"`
	StakeCents int64         `json:"stake_cents"`
}

// PlaceBetResult is returned for an accepted (or replayed) bet.
type PlaceBetResult struct {
	BetID                uuid.UUID `json:"bet_id"`
	BalanceCents         int64     `json:"balance_cents"`
	AmericanOdds         int       `json:"american_odds"`
	Line                 *float64  `json:"line"`
	PotentialPayoutCents int64     `json:"potential_payout_cents"`

	// Replayed is set when an earlier bet with the same idempotency key was returned.
	Replayed bool `json:"-"`
}

// PlaceBet validates a wager against the event, the effective odds snapshot,
// the stake policy and the wallet, then debits the stake and records the bet
// in one transaction. Checks run in a fixed order and each failure leaves no
// writes behind. A non-empty idempotencyKey makes retries return the first bet.
func (s *BettingService) PlaceBet(ctx context.Context, userID uuid.UUID, idempotencyKey string, in PlaceBetInput) (res *PlaceBetResult, err error) {
	defer func() {
		var appErr *domain.AppError
		if errors.As(err, &appErr) {
			s.metrics.BetRejected(appErr.Code)
		}
	}()

	if userID == uuid.Nil {
		return nil, domain.ErrUnauthenticated("sign in to place a bet")
	}

	if idempotencyKey != "" {
		existing, err := s.repos.Bets.FindByIdempotencyKey(ctx, s.pool, userID, idempotencyKey)
		if err != nil {
			return nil, domain.ErrStorage("lookup idempotency key", err)
		}
		if existing != nil {
			return s.replay(ctx, existing, in)
		}
	}

	if err := validateInput(in); err != nil {
		return nil, err
	}
	if err := domain.ValidateSelection(in.Market, in.Side); err != nil {
		return nil, err
	}

	event, err := s.repos.Events.FindByID(ctx, s.pool, in.EventID)
	if err != nil {
		return nil, domain.ErrStorage("load event", err)
	}
	if event == nil {
		return nil, domain.ErrNotFound("event", strconv.FormatInt(in.EventID, 10))
	}
	if !event.BettingOpen(s.now()) {
		return nil, domain.ErrBettingClosed()
	}

	price, line, err := s.quote(ctx, in.EventID, in.Market, in.Side)
	if err != nil {
		return nil, err
	}

	if err := policy.CheckStake(s.limits, in.StakeCents); err != nil {
		return nil, err
	}

	wallet, err := s.repos.Wallets.FindByUser(ctx, s.pool, userID)
	if err != nil {
		return nil, domain.ErrStorage("load wallet", err)
	}
	if wallet == nil {
		return nil, domain.ErrNotFound("wallet", userID.String())
	}
	if wallet.BalanceCents < in.StakeCents {
		return nil, domain.ErrInsufficientFunds()
	}

	potential, err := odds.Payout(in.StakeCents, price)
	if err != nil {
		return nil, domain.ErrPriceUnavailable(err.Error())
	}

	bet := &domain.Bet{
		ID:           uuid.New(),
		UserID:       userID,
		EventID:      in.EventID,
		Market:       in.Market,
		Side:         in.Side,
		AmericanOdds: price,
		Line:         line,
		StakeCents:   in.StakeCents,
	}
	if idempotencyKey != "" {
		key := idempotencyKey
		bet.IdempotencyKey = &key
	}

	balance, err := s.commit(ctx, bet)
	if err != nil {
		if repository.IsUniqueViolation(err) && bet.IdempotencyKey != nil {
			existing, lookupErr := s.repos.Bets.FindByIdempotencyKey(ctx, s.pool, userID, idempotencyKey)
			if lookupErr == nil && existing != nil {
				return s.replay(ctx, existing, in)
			}
		}
		return nil, passOrStorage("place bet", err)
	}

	if err := projection.InvalidateBalance(ctx, s.cache, userID.String()); err != nil {
		s.logger.Warn("invalidate balance projection", "user_id", userID, "error", err)
	}
	s.metrics.BetPlaced(string(in.Market))
	s.logger.Info("bet placed",
		"bet_id", bet.ID, "user_id", userID, "event_id", in.EventID,
		"market", in.Market, "side", in.Side, "stake_cents", in.StakeCents, "american_odds", price)

	return &PlaceBetResult{
		BetID:                bet.ID,
		BalanceCents:         balance,
		AmericanOdds:         price,
		Line:                 line,
		PotentialPayoutCents: potential,
	}, nil
}

// quote prices a selection from the effective snapshot of the market.
func (s *BettingService) quote(ctx context.Context, eventID int64, market domain.Market, side domain.Side) (int, *float64, error) {
	snaps, err := s.repos.Odds.ListByEventMarket(ctx, s.pool, eventID, market)
	if err != nil {
		return 0, nil, domain.ErrStorage("load odds", err)
	}
	snap := odds.ResolveEffective(snaps, s.preferred)
	if snap == nil {
		return 0, nil, domain.ErrPriceUnavailable(fmt.Sprintf("no %s odds for this event", market))
	}
	price, line := snap.Quote(side)
	if price == nil || *price == 0 {
		return 0, nil, domain.ErrPriceUnavailable(fmt.Sprintf("no %s price for %s", market, side))
	}
	if market.HasLine() && line == nil {
		return 0, nil, domain.ErrPriceUnavailable(fmt.Sprintf("no %s line", market))
	}
	if line != nil {
		frozen := *line
		line = &frozen
	}
	return *price, line, nil
}

// commit writes the bet, the stake debit and the placement event atomically.
// The bet row goes first because ledger entries reference it.
func (s *BettingService) commit(ctx context.Context, bet *domain.Bet) (int64, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := s.repos.Bets.Insert(ctx, tx, bet); err != nil {
		return 0, fmt.Errorf("insert bet: %w", err)
	}

	meta := fmt.Sprintf(`{"event_id":%d,"market":%q,"side":%q,"american_odds":%d}`,
		bet.EventID, bet.Market, bet.Side, bet.AmericanOdds)
	result, err := s.engine.ExecuteDebitStake(ctx, tx, domain.DebitStakeParams{
		UserID:     bet.UserID,
		BetID:      bet.ID,
		StakeCents: bet.StakeCents,
		Metadata:   []byte(meta),
	})
	if err != nil {
		return 0, err
	}

	if err := s.engine.Emit(ctx, tx, domain.NewBetPlacedEvent(bet)); err != nil {
		return 0, err
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit tx: %w", err)
	}
	return result.Wallet.BalanceCents, nil
}

// replay rebuilds the placement response for a bet that already exists. A key
// reused for a different slip is a client bug and is rejected.
func (s *BettingService) replay(ctx context.Context, bet *domain.Bet, in PlaceBetInput) (*PlaceBetResult, error) {
	if bet.EventID != in.EventID || bet.Market != in.Market || bet.Side != in.Side || bet.StakeCents != in.StakeCents {
		return nil, domain.ErrConflict("idempotency key was already used for a different bet")
	}
	wallet, err := s.repos.Wallets.FindByUser(ctx, s.pool, bet.UserID)
	if err != nil {
		return nil, domain.ErrStorage("load wallet", err)
	}
	var balance int64
	if wallet != nil {
		balance = wallet.BalanceCents
	}
	potential, err := odds.Payout(bet.StakeCents, bet.AmericanOdds)
	if err != nil {
		return nil, domain.ErrUnknown("stored bet has invalid odds", err)
	}
	s.logger.Info("bet placement replayed", "bet_id", bet.ID, "user_id", bet.UserID)
	return &PlaceBetResult{
		BetID:                bet.ID,
		BalanceCents:         balance,
		AmericanOdds:         bet.AmericanOdds,
		Line:                 bet.Line,
		PotentialPayoutCents: potential,
		Replayed:             true,
	}, nil
}

// ListMyBets returns a user's most recent bets with their events.
func (s *BettingService) ListMyBets(ctx context.Context, userID uuid.UUID) ([]domain.BetWithEvent, error) {
	if userID == uuid.Nil {
		return nil, domain.ErrUnauthenticated("sign in to view bets")
	}
	bets, err := s.repos.Bets.ListByUser(ctx, s.pool, userID, 50)
	if err != nil {
		return nil, domain.ErrStorage("list bets", err)
	}
	if bets == nil {
		bets = []domain.BetWithEvent{}
	}
	return bets, nil
}
