package repository

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func TestIsUniqueViolation(t *testing.T) {
	unique := &pgconn.PgError{Code: "23505", ConstraintName: "idx_bets_idempotency"}
	assert.True(t, IsUniqueViolation(unique))
	assert.True(t, IsUniqueViolation(fmt.Errorf("insert bet: %w", unique)))
	assert.False(t, IsUniqueViolation(&pgconn.PgError{Code: "23514"}))
	assert.False(t, IsUniqueViolation(errors.New("boom")))
	assert.False(t, IsUniqueViolation(nil))
}

func TestIsCheckViolation(t *testing.T) {
	assert.True(t, IsCheckViolation(fmt.Errorf("wrap: %w", &pgconn.PgError{Code: "23514"})))
	assert.False(t, IsCheckViolation(&pgconn.PgError{Code: "23505"}))
}

func TestOverridableOddsColumns(t *testing.T) {
	for _, col := range []string{"home_ml", "away_ml", "spread_line", "total_line", "over_american", "under_american"} {
		assert.True(t, OverridableOddsColumns[col], col)
	}
	for _, col := range []string{"id", "event_id", "is_overridden", "bookmaker", "market", "updated_at"} {
		assert.False(t, OverridableOddsColumns[col], col)
	}
}
