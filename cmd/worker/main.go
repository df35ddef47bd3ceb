package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/sideline/platform/internal/app"
	"github.com/sideline/platform/internal/infra"
	"github.com/sideline/platform/internal/ledger"
	"github.com/sideline/platform/internal/metrics"
	"github.com/sideline/platform/internal/repository"
	"github.com/sideline/platform/internal/scheduler"
	"github.com/sideline/platform/internal/service"
	"github.com/sideline/platform/internal/settlement"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	if err := run(logger); err != nil {
		logger.Error("worker failed", "error", err)
		os.Exit(1)
	}
}

func run(logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := infra.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	logger = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.SlogLevel()}))
	slog.SetDefault(logger)

	pool, err := infra.NewPostgresPool(ctx, cfg)
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	defer pool.Close()
	logger.Info("worker connected to postgres")

	cache, closeCache := app.NewCache(ctx, cfg, logger)
	defer closeCache()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)
	metricsSrv := m.StartServer(fmt.Sprintf(":%d", cfg.MetricsPort), func(ctx context.Context) error {
		return infra.HealthCheck(ctx, pool)
	})
	defer metricsSrv.Close()

	repos := service.NewPgRepos()
	outboxRepo := repository.NewOutboxRepository()
	engine := ledger.NewEngine(repos.Wallets, repos.Ledger, outboxRepo)
	opts := app.OptionsFromConfig(cfg)

	ingest := service.NewIngestService(pool, repos, app.NewOddsFeed(cfg, logger), opts.Sports, cache, m, logger)
	settler := settlement.NewEngine(pool, repos.Bets, engine, cache, m, logger)

	producer := infra.NewKafkaProducer(cfg.KafkaBrokers, cfg.KafkaEnabled, logger)
	defer producer.Close()

	sched := scheduler.New(logger)
	tasks := []scheduler.Task{
		{
			Name: "odds-sync", Interval: cfg.OddsSyncEvery, Timeout: 2 * time.Minute, RunOnStart: true,
			Fn: func(ctx context.Context) error {
				_, err := ingest.SyncOdds(ctx)
				return err
			},
		},
		{
			Name: "scores-sync", Interval: cfg.ScoresSyncEvery, Timeout: time.Minute, RunOnStart: true,
			Fn: func(ctx context.Context) error {
				_, err := ingest.SyncScores(ctx)
				return err
			},
		},
		{
			Name: "settlement", Interval: cfg.SettleEvery, Timeout: 5 * time.Minute,
			Fn: func(ctx context.Context) error {
				_, err := settler.Run(ctx)
				return err
			},
		},
	}
	if producer.Enabled() {
		relay := infra.NewOutboxRelay(pool, outboxRepo, producer, m, logger)
		tasks = append(tasks, scheduler.Task{
			Name: "outbox-relay", Interval: cfg.OutboxPollEvery, Timeout: 30 * time.Second,
			Fn: func(ctx context.Context) error {
				_, err := relay.RelayOnce(ctx)
				return err
			},
		})
	} else {
		logger.Info("kafka disabled, outbox rows stay queued")
	}
	for _, t := range tasks {
		if err := sched.Add(t); err != nil {
			return fmt.Errorf("schedule %s: %w", t.Name, err)
		}
	}

	logger.Info("worker starting", "tasks", len(tasks), "metrics_port", cfg.MetricsPort)
	sched.Run(ctx)
	logger.Info("worker stopped")
	return nil
}
