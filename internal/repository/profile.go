package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/sideline/platform/internal/domain"
)

// PgProfileRepository implements ProfileRepository using pgx.
type PgProfileRepository struct{}

// NewPgProfileRepository creates a new PgProfileRepository.
func NewPgProfileRepository() *PgProfileRepository {
	return &PgProfileRepository{}
}

// FindByUserID returns a user profile, or nil if not found.
func (r *PgProfileRepository) FindByUserID(ctx context.Context, db DBTX, userID uuid.UUID) (*domain.UserProfile, error) {
	row := db.QueryRow(ctx,
		`SELECT user_id, username, is_paid, created_at
		 FROM user_profiles WHERE user_id = $1`, userID)
	return scanProfile(row)
}

// FindByUsername returns a user profile by username, or nil if not found.
func (r *PgProfileRepository) FindByUsername(ctx context.Context, db DBTX, username string) (*domain.UserProfile, error) {
	row := db.QueryRow(ctx,
		`SELECT user_id, username, is_paid, created_at
		 FROM user_profiles WHERE username = $1`, username)
	return scanProfile(row)
}

// Create inserts a new user profile.
func (r *PgProfileRepository) Create(ctx context.Context, db DBTX, profile *domain.UserProfile) error {
	err := db.QueryRow(ctx,
		`INSERT INTO user_profiles (user_id, username, is_paid) VALUES ($1, $2, $3)
		 RETURNING created_at`,
		profile.UserID, profile.Username, profile.IsPaid).Scan(&profile.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert profile: %w", err)
	}
	return nil
}

func scanProfile(row pgx.Row) (*domain.UserProfile, error) {
	p := &domain.UserProfile{}
	err := row.Scan(&p.UserID, &p.Username, &p.IsPaid, &p.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan profile: %w", err)
	}
	return p, nil
}
