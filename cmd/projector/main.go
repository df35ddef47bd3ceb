package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/sideline/platform/internal/infra"
	"github.com/sideline/platform/internal/projection"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	if err := run(logger); err != nil {
		logger.Error("projector failed", "error", err)
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
	logger = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.SlogLevel()}))
	slog.SetDefault(logger)

	if cfg.RedisURL == "" {
		return fmt.Errorf("REDIS_URL is required: the projector keeps the shared balance cache")
	}
	client, err := infra.NewRedisClient(ctx, cfg.RedisURL)
	if err != nil {
		return fmt.Errorf("connect redis: %w", err)
	}
	defer client.Close()

	projector := projection.NewProjector(projection.NewRedisStore(client), logger)
	consumer := infra.NewKafkaConsumer(cfg.KafkaBrokers, projection.ProjectorTopics, cfg.KafkaGroupID, cfg.KafkaEnabled, logger)
	defer consumer.Close()

	logger.Info("projector starting", "topics", projection.ProjectorTopics, "group", cfg.KafkaGroupID)
	if err := consumer.Consume(ctx, projector.Handle); err != nil {
		return fmt.Errorf("consume: %w", err)
	}
	logger.Info("projector stopped")
	return nil
}
