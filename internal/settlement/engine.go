package settlement

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sideline/platform/internal/domain"
	"github.com/sideline/platform/internal/ledger"
	"github.com/sideline/platform/internal/metrics"
	"github.com/sideline/platform/internal/odds"
	"github.com/sideline/platform/internal/projection"
	"github.com/sideline/platform/internal/repository"
)

// Settlement steps reported in an Issue.
const (
	StepGrade     = "grade"
	StepBegin     = "begin"
	StepUpdateBet = "update_bet"
	StepLedger    = "ledger"
	StepCommit    = "commit"
)

// defaultBatch bounds how many bets one run picks up.
const defaultBatch = 500

// Issue is a bet that could not be settled in this run. It stays pending and
// is retried on the next run.
type Issue struct {
	BetID uuid.UUID `json:"bet"`
	Step  string    `json:"step"`
	Error string    `json:"error"`
}

// RunResult summarises one settlement run.
type RunResult struct {
	Settled int     `json:"settled"`
	Issues  []Issue `json:"issues"`
}

// Engine grades pending bets on final events and credits winners.
type Engine struct {
	pool    repository.TxBeginner
	bets    repository.BetRepository
	ledger  *ledger.Engine
	cache   projection.Store
	metrics *metrics.Metrics
	logger  *slog.Logger
	now     func() time.Time

	mu sync.Mutex
}

// NewEngine creates a settlement engine. Cached balances of credited users
// are dropped from cache after each commit.
func NewEngine(pool repository.TxBeginner, bets repository.BetRepository, ledgerEngine *ledger.Engine, cache projection.Store, m *metrics.Metrics, logger *slog.Logger) *Engine {
	return &Engine{
		pool:    pool,
		bets:    bets,
		ledger:  ledgerEngine,
		cache:   cache,
		metrics: m,
		logger:  logger,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Run settles every pending bet whose event is final. Each bet is graded and
// credited in its own transaction; a failure rolls that bet back and is
// reported without stopping the run. Concurrent calls in one process are
// serialised, and the pending-status guard on the update keeps runs in
// different processes from settling a bet twice.
func (e *Engine) Run(ctx context.Context) (*RunResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	start := time.Now()
	defer func() { e.metrics.ObserveSettlementRun(time.Since(start)) }()

	pending, err := e.bets.ListSettleable(ctx, e.pool, defaultBatch)
	if err != nil {
		return nil, domain.ErrStorage("list settleable bets", err)
	}

	result := &RunResult{Issues: []Issue{}}
	for i := range pending {
		if ctx.Err() != nil {
			break
		}
		settled, issue := e.settleOne(ctx, &pending[i])
		if issue != nil {
			e.metrics.SettlementIssue(issue.Step)
			e.logger.Warn("settlement issue",
				"bet_id", issue.BetID, "step", issue.Step, "error", issue.Error)
			result.Issues = append(result.Issues, *issue)
			continue
		}
		if settled {
			result.Settled++
		}
	}

	if len(pending) > 0 {
		e.logger.Info("settlement run complete",
			"candidates", len(pending), "settled", result.Settled, "issues", len(result.Issues))
	}
	return result, nil
}

// settleOne returns settled=false with no issue when another run got there first.
func (e *Engine) settleOne(ctx context.Context, sb *domain.SettleableBet) (bool, *Issue) {
	bet := &sb.Bet
	issue := func(step string, err error) *Issue {
		return &Issue{BetID: bet.ID, Step: step, Error: err.Error()}
	}

	outcome, err := Grade(bet.Market, bet.Side, bet.Line, sb.HomeScore, sb.AwayScore)
	if err != nil {
		return false, issue(StepGrade, err)
	}
	credit, err := odds.SettlementCredit(outcome, bet.StakeCents, bet.AmericanOdds)
	if err != nil {
		return false, issue(StepGrade, err)
	}

	tx, err := e.pool.Begin(ctx)
	if err != nil {
		return false, issue(StepBegin, err)
	}
	defer tx.Rollback(ctx)

	at := e.now()
	ok, err := e.bets.MarkSettled(ctx, tx, bet.ID, outcome.BetStatus(), credit, at)
	if err != nil {
		return false, issue(StepUpdateBet, err)
	}
	if !ok {
		return false, nil
	}

	if credit > 0 {
		meta := fmt.Sprintf(`{"event_id":%d,"american_odds":%d}`, bet.EventID, bet.AmericanOdds)
		if _, err := e.ledger.ExecuteCreditSettlement(ctx, tx, domain.CreditSettlementParams{
			UserID:      bet.UserID,
			BetID:       bet.ID,
			AmountCents: credit,
			Outcome:     outcome,
			Metadata:    []byte(meta),
		}); err != nil {
			return false, issue(StepLedger, err)
		}
	}

	bet.Status = outcome.BetStatus()
	bet.PayoutCents = &credit
	bet.SettledAt = &at
	if err := e.ledger.Emit(ctx, tx, domain.NewBetSettledEvent(bet)); err != nil {
		return false, issue(StepLedger, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return false, issue(StepCommit, err)
	}
	if credit > 0 {
		if err := projection.InvalidateBalance(ctx, e.cache, bet.UserID.String()); err != nil {
			e.logger.Warn("invalidate balance projection", "user_id", bet.UserID, "error", err)
		}
	}

	e.metrics.BetSettled(string(outcome))
	e.logger.Debug("bet settled",
		"bet_id", bet.ID, "user_id", bet.UserID, "outcome", outcome, "payout_cents", credit)
	return true, nil
}
