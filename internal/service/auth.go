package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/sideline/platform/internal/auth"
	"github.com/sideline/platform/internal/domain"
	"github.com/sideline/platform/internal/guard"
	"github.com/sideline/platform/internal/ledger"
	"github.com/sideline/platform/internal/repository"
	"golang.org/x/crypto/bcrypt"
)

const minPasswordLength = 8

// LoginGuard tracks failed logins and locks accounts that exceed the limit.
type LoginGuard interface {
	CheckLocked(ctx context.Context, email, realm string) error
	RecordAttempt(ctx context.Context, email, realm, ip string, success bool)
}

// AuthService handles player signup and login for both realms.
type AuthService struct {
	pool            repository.TxBeginner
	repos           Repos
	engine          *ledger.Engine
	jwtMgr          *auth.JWTManager
	lockout         LoginGuard
	startingBalance int64
	bcryptCost      int
	logger          *slog.Logger
}

// NewAuthService creates an AuthService. New players are granted startingBalance.
func NewAuthService(
	pool repository.TxBeginner,
	repos Repos,
	engine *ledger.Engine,
	jwtMgr *auth.JWTManager,
	lockout LoginGuard,
	startingBalance int64,
	logger *slog.Logger,
) *AuthService {
	if startingBalance <= 0 {
		startingBalance = domain.StartingBalanceCents
	}
	return &AuthService{
		pool:            pool,
		repos:           repos,
		engine:          engine,
		jwtMgr:          jwtMgr,
		lockout:         lockout,
		startingBalance: startingBalance,
		bcryptCost:      bcrypt.DefaultCost,
		logger:          logger,
	}
}

// RegisterInput holds the signup request fields.
type RegisterInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Username string `json:"username"`
}

// LoginInput holds the login request fields.
type LoginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthResult is returned on successful signup or login.
type AuthResult struct {
	Token        string    `json:"token"`
	UserID       uuid.UUID `json:"user_id"`
	Username     string    `json:"username"`
	BalanceCents int64     `json:"balance_cents"`
}

// AdminAuthResult is returned on successful admin login.
type AdminAuthResult struct {
	Token   string    `json:"token"`
	AdminID uuid.UUID `json:"admin_id"`
	Email   string    `json:"email"`
	Role    string    `json:"role"`
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register creates the auth user, profile and wallet in one transaction and
// posts the signup grant so the opening balance has a ledger entry.
func (s *AuthService) Register(ctx context.Context, input RegisterInput) (*AuthResult, error) {
	email := normalizeEmail(input.Email)
	username := strings.TrimSpace(input.Username)
	if err := domain.ValidateEmail(email); err != nil {
		return nil, domain.ErrValidation(err.Error())
	}
	if err := domain.ValidateUsername(username); err != nil {
		return nil, domain.ErrValidation(err.Error())
	}
	if len(input.Password) < minPasswordLength {
		return nil, domain.ErrValidation(fmt.Sprintf("password must be at least %d characters", minPasswordLength))
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), s.bcryptCost)
	if err != nil {
		return nil, domain.ErrUnknown("hash password", err)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, domain.ErrStorage("begin tx", err)
	}
	defer tx.Rollback(ctx)

	userID := uuid.New()
	if err := s.repos.AuthUsers.Create(ctx, tx, &domain.AuthUser{ID: userID, Email: email, PasswordHash: string(hash)}); err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, domain.ErrConflict("email already registered")
		}
		return nil, domain.ErrStorage("create auth user", err)
	}
	if err := s.repos.Profiles.Create(ctx, tx, &domain.UserProfile{UserID: userID, Username: username}); err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, domain.ErrConflict("username already taken")
		}
		return nil, domain.ErrStorage("create profile", err)
	}
	if err := s.repos.Wallets.Create(ctx, tx, &domain.Wallet{UserID: userID}); err != nil {
		return nil, domain.ErrStorage("create wallet", err)
	}

	grant, err := s.engine.ExecuteSignupGrant(ctx, tx, userID, s.startingBalance)
	if err != nil {
		return nil, passOrStorage("signup grant", err)
	}
	if err := s.engine.Emit(ctx, tx, domain.NewUserRegisteredEvent(userID, username)); err != nil {
		return nil, domain.ErrStorage("emit user registered", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, domain.ErrStorage("commit tx", err)
	}

	token, err := s.jwtMgr.GeneratePlayerToken(userID, email, username)
	if err != nil {
		return nil, domain.ErrUnknown("generate token", err)
	}

	s.logger.Info("user registered", "user_id", userID, "username", username)
	return &AuthResult{
		Token:        token,
		UserID:       userID,
		Username:     username,
		BalanceCents: grant.Wallet.BalanceCents,
	}, nil
}

// Login authenticates a player. Repeated failures lock the account for
// guard.LockoutWindow.
func (s *AuthService) Login(ctx context.Context, input LoginInput, ip string) (*AuthResult, error) {
	email := normalizeEmail(input.Email)
	if err := s.lockout.CheckLocked(ctx, email, guard.RealmPlayer); err != nil {
		return nil, err
	}

	user, err := s.repos.AuthUsers.FindByEmail(ctx, s.pool, email)
	if err != nil {
		return nil, domain.ErrStorage("find user", err)
	}
	if user == nil || bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password)) != nil {
		s.lockout.RecordAttempt(ctx, email, guard.RealmPlayer, ip, false)
		return nil, domain.ErrUnauthenticated("invalid credentials")
	}
	s.lockout.RecordAttempt(ctx, email, guard.RealmPlayer, ip, true)

	profile, err := s.repos.Profiles.FindByUserID(ctx, s.pool, user.ID)
	if err != nil {
		return nil, domain.ErrStorage("load profile", err)
	}
	if profile == nil {
		return nil, domain.ErrNotFound("profile", user.ID.String())
	}
	wallet, err := s.repos.Wallets.FindByUser(ctx, s.pool, user.ID)
	if err != nil {
		return nil, domain.ErrStorage("load wallet", err)
	}
	if wallet == nil {
		return nil, domain.ErrNotFound("wallet", user.ID.String())
	}

	token, err := s.jwtMgr.GeneratePlayerToken(user.ID, user.Email, profile.Username)
	if err != nil {
		return nil, domain.ErrUnknown("generate token", err)
	}
	return &AuthResult{
		Token:        token,
		UserID:       user.ID,
		Username:     profile.Username,
		BalanceCents: wallet.BalanceCents,
	}, nil
}

// AdminLogin authenticates an operator from admin_users.
func (s *AuthService) AdminLogin(ctx context.Context, input LoginInput, ip string) (*AdminAuthResult, error) {
	email := normalizeEmail(input.Email)
	if err := s.lockout.CheckLocked(ctx, email, guard.RealmAdmin); err != nil {
		return nil, err
	}

	admin, err := s.repos.Admins.FindByEmail(ctx, s.pool, email)
	if err != nil {
		return nil, domain.ErrStorage("find admin", err)
	}
	if admin == nil || bcrypt.CompareHashAndPassword([]byte(admin.PasswordHash), []byte(input.Password)) != nil {
		s.lockout.RecordAttempt(ctx, email, guard.RealmAdmin, ip, false)
		return nil, domain.ErrUnauthenticated("invalid credentials")
	}
	s.lockout.RecordAttempt(ctx, email, guard.RealmAdmin, ip, true)

	token, err := s.jwtMgr.GenerateAdminToken(admin.ID, admin.Email, admin.Role)
	if err != nil {
		return nil, domain.ErrUnknown("generate token", err)
	}
	s.logger.Info("admin login", "admin_id", admin.ID, "ip", ip)
	return &AdminAuthResult{Token: token, AdminID: admin.ID, Email: admin.Email, Role: admin.Role}, nil
}
