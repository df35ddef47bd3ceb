package app

import (
	"log/slog"

	"github.com/sideline/platform/internal/auth"
	"github.com/sideline/platform/internal/ledger"
	"github.com/sideline/platform/internal/metrics"
	"github.com/sideline/platform/internal/policy"
	"github.com/sideline/platform/internal/projection"
	"github.com/sideline/platform/internal/repository"
	"github.com/sideline/platform/internal/service"
	"github.com/sideline/platform/internal/settlement"
)

// Options carries the tunables shared by the API and the worker.
type Options struct {
	StakeLimits         policy.StakeLimitPolicy
	StartingBalance     int64
	PreferredBookmakers []string
	Sports              []string
}

// Services is the assembled application layer.
type Services struct {
	Ledger      *ledger.Engine
	Auth        *service.AuthService
	Betting     *service.BettingService
	Wallet      *service.WalletService
	Odds        *service.OddsService
	Events      *service.EventService
	Ingest      *service.IngestService
	Leaderboard *service.LeaderboardService
	Settlement  *settlement.Engine
}

// NewServices wires every service over one database handle. feed may be nil
// in processes that never ingest.
func NewServices(
	db repository.TxBeginner,
	repos service.Repos,
	outbox repository.OutboxRepository,
	feed service.OddsFeed,
	lockout service.LoginGuard,
	jwtMgr *auth.JWTManager,
	cache projection.Store,
	m *metrics.Metrics,
	logger *slog.Logger,
	opts Options,
) *Services {
	engine := ledger.NewEngine(repos.Wallets, repos.Ledger, outbox)
	return &Services{
		Ledger:      engine,
		Auth:        service.NewAuthService(db, repos, engine, jwtMgr, lockout, opts.StartingBalance, logger),
		Betting:     service.NewBettingService(db, repos, engine, opts.StakeLimits, opts.PreferredBookmakers, cache, m, logger),
		Wallet:      service.NewWalletService(db, repos, engine, opts.StartingBalance, cache, m, logger),
		Odds:        service.NewOddsService(db, repos, opts.PreferredBookmakers, cache, m, logger),
		Events:      service.NewEventService(db, repos, cache, logger),
		Ingest:      service.NewIngestService(db, repos, feed, opts.Sports, cache, m, logger),
		Leaderboard: service.NewLeaderboardService(db, repos),
		Settlement:  settlement.NewEngine(db, repos.Bets, engine, cache, m, logger),
	}
}
