package domain

import (
	"time"

	"github.com/google/uuid"
)

// AuthUser holds credentials from auth_users.
type AuthUser struct {
	ID           uuid.UUID `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// UserProfile represents a user_profiles row.
type UserProfile struct {
	UserID    uuid.UUID `json:"user_id"`
	Username  string    `json:"username"`
	IsPaid    bool      `json:"is_paid"`
	CreatedAt time.Time `json:"created_at"`
}

// LeaderboardRow is one ranked user on the leaderboard.
type LeaderboardRow struct {
	Rank         int    `json:"rank"`
	Username     string `json:"username"`
	BalanceCents int64  `json:"balance_cents"`
	BetsWon      int    `json:"bets_won"`
	NetCents     int64  `json:"net_cents"`
}

// AdminUser is an operator account from admin_users.
type AdminUser struct {
	ID           uuid.UUID `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         string    `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
}
