package app

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/sideline/platform/internal/guard"
	"github.com/sideline/platform/internal/infra"
	"github.com/sideline/platform/internal/policy"
	"github.com/sideline/platform/internal/projection"
	"github.com/sideline/platform/internal/provider"
)

// OptionsFromConfig maps the environment config onto service options.
func OptionsFromConfig(cfg *infra.Config) Options {
	return Options{
		StakeLimits: policy.StakeLimitPolicy{
			MinStakeCents: cfg.StakeMinCents,
			MaxStakeCents: cfg.StakeMaxCents,
		},
		StartingBalance:     cfg.StartingBalanceCents,
		PreferredBookmakers: cfg.OddsBookmakers,
		Sports:              cfg.OddsSports,
	}
}

// NewOddsFeed builds The Odds API client behind a circuit breaker that opens
// after three consecutive failures per sport.
func NewOddsFeed(cfg *infra.Config, logger *slog.Logger) *provider.OddsAPIClient {
	return provider.NewOddsAPIClient(provider.OddsAPIConfig{
		BaseURL:    cfg.OddsAPIBaseURL,
		APIKey:     cfg.OddsAPIKey,
		Regions:    cfg.OddsRegion,
		Markets:    cfg.OddsMarkets,
		Bookmakers: strings.Join(cfg.OddsBookmakers, ","),
	}, guard.NewCircuitBreaker(3, 5*time.Minute), logger)
}

// NewCache returns the Redis projection store, or an in-process store when
// REDIS_URL is empty or Redis is unreachable. The returned func releases it.
func NewCache(ctx context.Context, cfg *infra.Config, logger *slog.Logger) (projection.Store, func()) {
	if cfg.RedisURL == "" {
		logger.Info("redis disabled, using in-memory projections")
		return projection.NewInMemoryStore(), func() {}
	}
	client, err := infra.NewRedisClient(ctx, cfg.RedisURL)
	if err != nil {
		logger.Warn("redis unavailable, using in-memory projections", "error", err)
		return projection.NewInMemoryStore(), func() {}
	}
	logger.Info("connected to redis")
	return projection.NewRedisStore(client), func() { _ = client.Close() }
}
