package infra

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

const insecureJWTSecret = "change-me-in-production"

// Config holds all application configuration parsed from environment variables.
type Config struct {
	// Database
	DatabaseURL   string `env:"DATABASE_URL"`
	PGHost        string `env:"PGHOST" envDefault:"localhost"`
	PGPort        int    `env:"PGPORT" envDefault:"5432"`
	PGUser        string `env:"PGUSER" envDefault:"sideline"`
	PGPassword    string `env:"PGPASSWORD" envDefault:"sideline"`
	PGDatabase    string `env:"PGDATABASE" envDefault:"sideline"`
	PGMaxConns    int32  `env:"PG_MAX_CONNS" envDefault:"20"`
	PGMinConns    int32  `env:"PG_MIN_CONNS" envDefault:"2"`
	RunMigrations bool   `env:"RUN_MIGRATIONS" envDefault:"true"`
	MigrationsDir string `env:"MIGRATIONS_DIR"`

	// Redis. Empty disables the Redis projection store.
	RedisURL string `env:"REDIS_URL" envDefault:"redis://localhost:6379/0"`

	// JWT
	JWTSecret       string        `env:"JWT_SECRET" envDefault:"change-me-in-production"`
	JWTPlayerExpiry time.Duration `env:"JWT_PLAYER_EXPIRY" envDefault:"24h"`
	JWTAdminExpiry  time.Duration `env:"JWT_ADMIN_EXPIRY" envDefault:"8h"`

	// Shared bearer secret for cron and operator routes.
	CronSecret string `env:"CRON_SECRET"`

	// Server ports
	APIPort     int `env:"API_PORT" envDefault:"3100"`
	MetricsPort int `env:"METRICS_PORT" envDefault:"9100"`

	// Kafka
	KafkaBrokers string `env:"KAFKA_BROKERS" envDefault:"localhost:9092"`
	KafkaEnabled bool   `env:"KAFKA_ENABLED" envDefault:"false"`
	KafkaGroupID string `env:"KAFKA_GROUP_ID" envDefault:"sideline-projector"`

	// CORS
	CORSAllowedOrigins string `env:"CORS_ALLOWED_ORIGINS" envDefault:"*"`

	// The Odds API
	OddsAPIKey      string        `env:"ODDS_API_KEY"`
	OddsAPIBaseURL  string        `env:"ODDS_API_BASE_URL" envDefault:"https://api.the-odds-api.com"`
	OddsSports      []string      `env:"ODDS_SPORTS" envSeparator:"," envDefault:"americanfootball_nfl,americanfootball_ncaaf"`
	OddsRegion      string        `env:"ODDS_REGION" envDefault:"us"`
	OddsMarkets     string        `env:"ODDS_MARKETS" envDefault:"h2h,spreads,totals"`
	OddsBookmakers  []string      `env:"ODDS_BOOKMAKERS" envSeparator:"," envDefault:"draftkings,fanduel"`
	OddsSyncEvery   time.Duration `env:"ODDS_SYNC_INTERVAL" envDefault:"10m"`
	ScoresSyncEvery time.Duration `env:"SCORES_SYNC_INTERVAL" envDefault:"5m"`

	// Worker
	SettleEvery     time.Duration `env:"SETTLE_INTERVAL" envDefault:"2m"`
	OutboxPollEvery time.Duration `env:"OUTBOX_POLL_INTERVAL" envDefault:"500ms"`

	// Betting
	StakeMinCents        int64 `env:"STAKE_MIN_CENTS" envDefault:"500"`
	StakeMaxCents        int64 `env:"STAKE_MAX_CENTS" envDefault:"10000"`
	StartingBalanceCents int64 `env:"STARTING_BALANCE_CENTS" envDefault:"100000"`

	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	// Dev
	AllowInsecureDefaults bool `env:"ALLOW_INSECURE_DEFAULTS" envDefault:"false"`
}

// LoadConfig reads an optional .env file and parses environment variables
// into a Config. Variables already set in the environment win over the file.
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

// Validate checks for insecure configuration that must not run in production.
// Set ALLOW_INSECURE_DEFAULTS=true to bypass (local dev only).
func (c *Config) Validate() error {
	if c.StakeMinCents <= 0 || c.StakeMaxCents < c.StakeMinCents {
		return fmt.Errorf("stake limits are invalid: min %d, max %d", c.StakeMinCents, c.StakeMaxCents)
	}
	if c.StartingBalanceCents <= 0 {
		return fmt.Errorf("STARTING_BALANCE_CENTS must be positive")
	}
	if c.AllowInsecureDefaults {
		return nil
	}
	if c.JWTSecret == insecureJWTSecret {
		return fmt.Errorf("JWT_SECRET is set to the insecure default; set a strong secret or set ALLOW_INSECURE_DEFAULTS=true for local dev")
	}
	if len(c.JWTSecret) < 32 {
		return fmt.Errorf("JWT_SECRET is too short (%d chars); minimum 32 characters required", len(c.JWTSecret))
	}
	if len(c.CronSecret) < 16 {
		return fmt.Errorf("CRON_SECRET must be at least 16 characters")
	}
	return nil
}

// DSN returns the PostgreSQL connection string, preferring DATABASE_URL if set.
func (c *Config) DSN() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		c.PGUser, c.PGPassword, c.PGHost, c.PGPort, c.PGDatabase)
}

// SlogLevel maps LOG_LEVEL to a slog level, defaulting to info.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
