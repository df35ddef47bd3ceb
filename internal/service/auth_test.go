package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sideline/platform/internal/auth"
	"github.com/sideline/platform/internal/domain"
	"github.com/sideline/platform/internal/guard"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newAuthService(f *fixture) (*AuthService, *auth.JWTManager) {
	jwtMgr := auth.NewJWTManager("test-secret-at-least-32-bytes-long!!", time.Hour, time.Hour)
	svc := NewAuthService(f.store, f.repos, f.ledger, jwtMgr, guard.NewMemoryLockout(), 0, f.logger)
	svc.bcryptCost = bcrypt.MinCost
	return svc, jwtMgr
}

func TestRegister(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	svc, jwtMgr := newAuthService(f)

	res, err := svc.Register(ctx, RegisterInput{Email: " Fan@Example.com ", Password: "correct-horse", Username: "gridiron_fan"})
	require.NoError(t, err)
	assert.Equal(t, "gridiron_fan", res.Username)
	assert.Equal(t, domain.StartingBalanceCents, res.BalanceCents)

	claims, err := jwtMgr.ValidateTokenForRealm(res.Token, auth.RealmPlayer)
	require.NoError(t, err)
	assert.Equal(t, res.UserID.String(), claims.Subject)

	wallet := f.store.Wallet(res.UserID)
	require.NotNil(t, wallet)
	assert.Equal(t, domain.StartingBalanceCents, wallet.BalanceCents)
	entries := f.store.Entries(res.UserID)
	require.Len(t, entries, 1)
	assert.Equal(t, domain.ReasonSignupGrant, entries[0].Reason)
	assert.Contains(t, f.store.OutboxEvents(), domain.EventUserRegistered)

	login, err := svc.Login(ctx, LoginInput{Email: "fan@example.com", Password: "correct-horse"}, "10.0.0.1")
	require.NoError(t, err)
	assert.Equal(t, res.UserID, login.UserID)
	assert.Equal(t, domain.StartingBalanceCents, login.BalanceCents)
}

func TestRegister_Rejections(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	svc, _ := newAuthService(f)
	_, err := svc.Register(ctx, RegisterInput{Email: "taken@example.com", Password: "password1", Username: "taken_name"})
	require.NoError(t, err)

	tests := []struct {
		name     string
		input    RegisterInput
		wantCode string
	}{
		{"bad email", RegisterInput{Email: "nope", Password: "password1", Username: "someone"}, domain.CodeValidation},
		{"bad username", RegisterInput{Email: "a@example.com", Password: "password1", Username: "x"}, domain.CodeValidation},
		{"short password", RegisterInput{Email: "a@example.com", Password: "short", Username: "someone"}, domain.CodeValidation},
		{"duplicate email", RegisterInput{Email: "TAKEN@example.com", Password: "password1", Username: "someone"}, domain.CodeConflict},
		{"duplicate username", RegisterInput{Email: "b@example.com", Password: "password1", Username: "taken_name"}, domain.CodeConflict},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Register(ctx, tt.input)
			require.Error(t, err)
			assert.True(t, domain.HasCode(err, tt.wantCode), "got %v", err)
		})
	}
}

func TestRegister_RollsBackOnStorageFailure(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	svc, _ := newAuthService(f)
	f.store.FailOn("ledger.Insert", errors.New("disk full"))

	_, err := svc.Register(ctx, RegisterInput{Email: "a@example.com", Password: "password1", Username: "someone"})
	assert.True(t, domain.HasCode(err, domain.CodeStorageFailure), "got %v", err)

	f.store.FailOn("ledger.Insert", nil)
	_, err = svc.Register(ctx, RegisterInput{Email: "a@example.com", Password: "password1", Username: "someone"})
	require.NoError(t, err)
}

func TestLogin_Lockout(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	svc, _ := newAuthService(f)
	_, err := svc.Register(ctx, RegisterInput{Email: "a@example.com", Password: "password1", Username: "someone"})
	require.NoError(t, err)

	_, err = svc.Login(ctx, LoginInput{Email: "missing@example.com", Password: "password1"}, "")
	assert.True(t, domain.HasCode(err, domain.CodeUnauthenticated))

	for i := 0; i < guard.MaxAttempts; i++ {
		_, err = svc.Login(ctx, LoginInput{Email: "a@example.com", Password: "wrong-password"}, "")
		assert.True(t, domain.HasCode(err, domain.CodeUnauthenticated))
	}
	_, err = svc.Login(ctx, LoginInput{Email: "a@example.com", Password: "password1"}, "")
	assert.True(t, domain.HasCode(err, domain.CodeAccountLocked))

	// Lockouts are per realm.
	_, err = svc.AdminLogin(ctx, LoginInput{Email: "a@example.com", Password: "password1"}, "")
	assert.True(t, domain.HasCode(err, domain.CodeUnauthenticated))
}

func TestAdminLogin(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	svc, jwtMgr := newAuthService(f)
	hash, err := bcrypt.GenerateFromPassword([]byte("admin-pass"), bcrypt.MinCost)
	require.NoError(t, err)
	adminID := uuid.New()
	f.store.PutAdmin(domain.AdminUser{ID: adminID, Email: "ops@example.com", PasswordHash: string(hash), Role: "admin"})

	res, err := svc.AdminLogin(ctx, LoginInput{Email: "OPS@example.com", Password: "admin-pass"}, "10.0.0.2")
	require.NoError(t, err)
	assert.Equal(t, adminID, res.AdminID)
	assert.Equal(t, "admin", res.Role)

	claims, err := jwtMgr.ValidateTokenForRealm(res.Token, auth.RealmAdmin)
	require.NoError(t, err)
	assert.Equal(t, "admin", claims.Role)

	_, err = jwtMgr.ValidateTokenForRealm(res.Token, auth.RealmPlayer)
	assert.Error(t, err)

	_, err = svc.AdminLogin(ctx, LoginInput{Email: "ops@example.com", Password: "nope"}, "")
	assert.True(t, domain.HasCode(err, domain.CodeUnauthenticated))
}
