//go:build integration

package testutil

import (
	"context"
	"strings"
	"time"
)

// cleanTables lists every table a test can write to, children first.
var cleanTables = []string{
	"ledger_entries",
	"bets",
	"odds_snapshots",
	"events",
	"event_outbox",
	"login_attempts",
	"wallets",
	"user_profiles",
	"admin_users",
	"auth_users",
}

// CleanAll empties every table and resets identity sequences so event ids
// start from 1 in each test.
func (env *TestEnv) CleanAll() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	stmt := "TRUNCATE TABLE " + strings.Join(cleanTables, ", ") + " RESTART IDENTITY CASCADE"
	if _, err := env.Pool.Exec(ctx, stmt); err != nil {
		env.t.Fatalf("clean tables: %v", err)
	}
}
