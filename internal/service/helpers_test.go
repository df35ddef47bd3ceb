package service

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sideline/platform/internal/domain"
	"github.com/sideline/platform/internal/ledger"
	"github.com/sideline/platform/internal/metrics"
	"github.com/sideline/platform/internal/projection"
	"github.com/sideline/platform/internal/repository/repotest"
)

var testNow = time.Date(2026, 10, 4, 17, 0, 0, 0, time.UTC)

type fixture struct {
	store   *repotest.Store
	repos   Repos
	ledger  *ledger.Engine
	cache   *projection.InMemoryStore
	metrics *metrics.Metrics
	logger  *slog.Logger
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := repotest.NewStore()
	return &fixture{
		store: store,
		repos: Repos{
			AuthUsers: store.AuthUsers(),
			Admins:    store.Admins(),
			Profiles:  store.Profiles(),
			Wallets:   store.Wallets(),
			Ledger:    store.Ledger(),
			Bets:      store.Bets(),
			Events:    store.Events(),
			Odds:      store.Odds(),
		},
		ledger:  ledger.NewEngine(store.Wallets(), store.Ledger(), store.Outbox()),
		cache:   projection.NewInMemoryStore(),
		metrics: metrics.New(prometheus.NewRegistry()),
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

// user seeds a free user with a wallet holding balance.
func (f *fixture) user(balance int64) uuid.UUID {
	id := uuid.New()
	f.store.PutProfile(domain.UserProfile{UserID: id, Username: "user_" + id.String()[:8]})
	f.store.PutWallet(domain.Wallet{UserID: id, BalanceCents: balance, LastResetAt: testNow.AddDate(0, -2, 0)})
	return id
}

// event seeds a scheduled game starting in two hours.
func (f *fixture) event() domain.Event {
	return f.store.PutEvent(domain.Event{
		Sport:        "NFL",
		League:       "NFL",
		HomeTeam:     "Kansas City Chiefs",
		AwayTeam:     "Buffalo Bills",
		CommenceTime: testNow.Add(2 * time.Hour),
		Status:       domain.EventScheduled,
	})
}

func (f *fixture) moneyline(eventID int64, bookmaker string, home, away int) {
	f.store.PutSnapshot(domain.OddsSnapshot{
		EventID:   eventID,
		Bookmaker: bookmaker,
		Market:    domain.MarketMoneyline,
		HomeML:    &home,
		AwayML:    &away,
		UpdatedAt: testNow.Add(-time.Minute),
	})
}

func (f *fixture) spread(eventID int64, line float64, home, away int) {
	f.store.PutSnapshot(domain.OddsSnapshot{
		EventID:            eventID,
		Bookmaker:          "draftkings",
		Market:             domain.MarketSpread,
		SpreadLine:         &line,
		HomeSpreadAmerican: &home,
		AwaySpreadAmerican: &away,
		UpdatedAt:          testNow.Add(-time.Minute),
	})
}

func (f *fixture) total(eventID int64, line float64, over, under int) {
	f.store.PutSnapshot(domain.OddsSnapshot{
		EventID:       eventID,
		Bookmaker:     "draftkings",
		Market:        domain.MarketTotal,
		TotalLine:     &line,
		OverAmerican:  &over,
		UnderAmerican: &under,
		UpdatedAt:     testNow.Add(-time.Minute),
	})
}

func intPtr(v int) *int { return &v }

func floatPtr(v float64) *float64 { return &v }
