package guard

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/sideline/platform/internal/domain"
	"github.com/sideline/platform/internal/repository"
)

const (
	MaxAttempts   = 5
	LockoutWindow = 15 * time.Minute
)

// Login realms recorded with each attempt.
const (
	RealmPlayer = "player"
	RealmAdmin  = "admin"
)

// LoginLockout counts failed logins in the login_attempts table.
type LoginLockout struct {
	db  repository.DBTX
	now func() time.Time
}

// NewLoginLockout creates a Postgres-backed lockout.
func NewLoginLockout(db repository.DBTX) *LoginLockout {
	return &LoginLockout{db: db, now: time.Now}
}

// RecordAttempt inserts a login attempt row. Failures to record are ignored.
func (l *LoginLockout) RecordAttempt(ctx context.Context, email, realm, ip string, success bool) {
	_, _ = l.db.Exec(ctx, `
		INSERT INTO login_attempts (email, realm, ip_address, success)
		VALUES ($1, $2, $3, $4)`,
		strings.ToLower(email), realm, ip, success)
}

// CheckLocked returns ErrAccountLocked if the account has >= MaxAttempts failed
// logins within the lockout window.
func (l *LoginLockout) CheckLocked(ctx context.Context, email, realm string) error {
	var count int
	err := l.db.QueryRow(ctx, `
		SELECT COUNT(*) FROM login_attempts
		WHERE email = $1 AND realm = $2 AND success = false
		  AND created_at > $3`,
		strings.ToLower(email), realm, l.now().Add(-LockoutWindow)).Scan(&count)
	if err != nil {
		return nil // fail open on DB error
	}
	if count >= MaxAttempts {
		return domain.ErrAccountLocked("too many failed login attempts, try again later")
	}
	return nil
}

// MemoryLockout is an in-process lockout for development and tests.
type MemoryLockout struct {
	mu       sync.Mutex
	failures map[string][]time.Time
	now      func() time.Time
}

// NewMemoryLockout creates an empty in-memory lockout.
func NewMemoryLockout() *MemoryLockout {
	return &MemoryLockout{failures: make(map[string][]time.Time), now: time.Now}
}

func lockoutKey(email, realm string) string {
	return realm + "|" + strings.ToLower(email)
}

func (m *MemoryLockout) RecordAttempt(_ context.Context, email, realm, _ string, success bool) {
	if success {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	key := lockoutKey(email, realm)
	m.failures[key] = append(m.failures[key], m.now())
}

func (m *MemoryLockout) CheckLocked(_ context.Context, email, realm string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cutoff := m.now().Add(-LockoutWindow)
	count := 0
	for _, t := range m.failures[lockoutKey(email, realm)] {
		if t.After(cutoff) {
			count++
		}
	}
	if count >= MaxAttempts {
		return domain.ErrAccountLocked("too many failed login attempts, try again later")
	}
	return nil
}
