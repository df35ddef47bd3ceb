//go:build integration

package testutil

import (
	"context"
	"fmt"
	"log/slog"
	"net/http/httptest"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sideline/platform/internal/app"
	"github.com/sideline/platform/internal/auth"
	"github.com/sideline/platform/internal/guard"
	"github.com/sideline/platform/internal/infra"
	"github.com/sideline/platform/internal/metrics"
	"github.com/sideline/platform/internal/policy"
	"github.com/sideline/platform/internal/projection"
	"github.com/sideline/platform/internal/provider"
	"github.com/sideline/platform/internal/repository"
	"github.com/sideline/platform/internal/service"
)

const (
	TestJWTSecret  = "integration-test-secret-32-chars!!"
	TestCronSecret = "integration-cron-secret"
	TestDBHost     = "localhost"
	TestDBPort     = 5435
	TestDBUser     = "sideline"
	TestDBPass     = "sideline"
	TestDBName     = "sideline_test"
)

// TestEnv holds all resources for an integration test.
type TestEnv struct {
	Server *httptest.Server
	Pool   *pgxpool.Pool
	JWTMgr *auth.JWTManager
	t      *testing.T
}

var (
	sharedPool *pgxpool.Pool
	poolOnce   sync.Once
	poolErr    error
)

func testDSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		TestDBUser, TestDBPass, TestDBHost, TestDBPort, TestDBName)
}

func bootstrapDSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		TestDBUser, TestDBPass, TestDBHost, TestDBPort, "sideline")
}

func ensureTestDB() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Connect to the main database to create the test database
	bPool, err := pgxpool.New(ctx, bootstrapDSN())
	if err != nil {
		return fmt.Errorf("connect bootstrap db: %w", err)
	}
	defer bPool.Close()

	var exists bool
	err = bPool.QueryRow(ctx,
		"SELECT EXISTS(SELECT 1 FROM pg_database WHERE datname = $1)", TestDBName).Scan(&exists)
	if err != nil {
		return fmt.Errorf("check db exists: %w", err)
	}

	if !exists {
		if _, err = bPool.Exec(ctx, fmt.Sprintf("CREATE DATABASE %s", TestDBName)); err != nil {
			return fmt.Errorf("create test db: %w", err)
		}
	}
	return nil
}

func getSharedPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	poolOnce.Do(func() {
		if err := ensureTestDB(); err != nil {
			poolErr = err
			return
		}
		quiet := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
		if err := infra.RunMigrations(testDSN(), "", quiet); err != nil {
			poolErr = fmt.Errorf("run migrations: %w", err)
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		poolCfg, err := pgxpool.ParseConfig(testDSN())
		if err != nil {
			poolErr = fmt.Errorf("parse pool config: %w", err)
			return
		}
		poolCfg.MaxConns = 10
		poolCfg.MinConns = 1

		sharedPool, err = pgxpool.NewWithConfig(ctx, poolCfg)
		if err != nil {
			poolErr = fmt.Errorf("create pool: %w", err)
		}
	})

	if poolErr != nil {
		t.Fatalf("failed to initialize test pool: %v", poolErr)
	}
	return sharedPool
}

type noFeed struct{}

func (noFeed) FetchOdds(context.Context, string) ([]provider.OddsEvent, error) { return nil, nil }

func (noFeed) FetchScores(context.Context, string, int) ([]provider.ScoreEvent, error) {
	return nil, nil
}

// NewTestEnv creates a test environment with an httptest.Server backed by the real router and test DB.
func NewTestEnv(t *testing.T) *TestEnv {
	t.Helper()

	pool := getSharedPool(t)

	jwtMgr := auth.NewJWTManager(TestJWTSecret, 24*time.Hour, 8*time.Hour)
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	m := metrics.New(prometheus.NewRegistry())

	svcs := app.NewServices(pool, service.NewPgRepos(), repository.NewOutboxRepository(), noFeed{},
		guard.NewLoginLockout(pool), jwtMgr, projection.NewInMemoryStore(), m, logger, app.Options{
			StakeLimits:         policy.DefaultStakeLimits(),
			PreferredBookmakers: []string{"draftkings", "fanduel"},
		})

	router := app.NewRouter(app.RouterDeps{
		Services:    svcs,
		JWTMgr:      jwtMgr,
		CronSecret:  TestCronSecret,
		CORSOrigins: "*",
		Metrics:     m,
		Health:      func(ctx context.Context) error { return infra.HealthCheck(ctx, pool) },
		Logger:      logger,
	})

	server := httptest.NewServer(router)

	env := &TestEnv{
		Server: server,
		Pool:   pool,
		JWTMgr: jwtMgr,
		t:      t,
	}

	t.Cleanup(func() {
		server.Close()
		env.CleanAll()
	})

	// Clean before test to ensure isolation
	env.CleanAll()

	return env
}
