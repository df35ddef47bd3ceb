package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/sideline/platform/internal/domain"
)

// PgAuthUserRepository implements AuthUserRepository using pgx.
type PgAuthUserRepository struct{}

// NewPgAuthUserRepository creates a new PgAuthUserRepository.
func NewPgAuthUserRepository() *PgAuthUserRepository {
	return &PgAuthUserRepository{}
}

// FindByEmail returns an auth user by email, or nil if not found.
// The email column is citext so the lookup is case-insensitive.
func (r *PgAuthUserRepository) FindByEmail(ctx context.Context, db DBTX, email string) (*domain.AuthUser, error) {
	row := db.QueryRow(ctx,
		`SELECT id, email, password_hash, created_at
		 FROM auth_users WHERE email = $1`, email)

	u := &domain.AuthUser{}
	err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan auth user: %w", err)
	}
	return u, nil
}

// Create inserts a new auth user.
func (r *PgAuthUserRepository) Create(ctx context.Context, db DBTX, user *domain.AuthUser) error {
	err := db.QueryRow(ctx,
		`INSERT INTO auth_users (id, email, password_hash) VALUES ($1, $2, $3)
		 RETURNING created_at`,
		user.ID, user.Email, user.PasswordHash).Scan(&user.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert auth user: %w", err)
	}
	return nil
}

// PgAdminUserRepository implements AdminUserRepository using pgx.
type PgAdminUserRepository struct{}

// NewPgAdminUserRepository creates a new PgAdminUserRepository.
func NewPgAdminUserRepository() *PgAdminUserRepository {
	return &PgAdminUserRepository{}
}

// FindByEmail returns an admin by email, or nil if not found.
func (r *PgAdminUserRepository) FindByEmail(ctx context.Context, db DBTX, email string) (*domain.AdminUser, error) {
	row := db.QueryRow(ctx,
		`SELECT id, email, password_hash, role, created_at
		 FROM admin_users WHERE email = $1`, email)

	a := &domain.AdminUser{}
	err := row.Scan(&a.ID, &a.Email, &a.PasswordHash, &a.Role, &a.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan admin user: %w", err)
	}
	return a, nil
}
