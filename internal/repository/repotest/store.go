// Package repotest provides in-memory implementations of the repository
// interfaces for unit tests. A Store stands in for the database: Begin
// snapshots its state and Rollback restores it, so tests observe the same
// all-or-nothing behaviour as a real transaction.
package repotest

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/sideline/platform/internal/domain"
	"github.com/sideline/platform/internal/repository"
)

// ErrUnsupported is returned by raw SQL calls, which the memory store cannot run.
var ErrUnsupported = errors.New("repotest: raw SQL is not supported")

type state struct {
	authUsers map[uuid.UUID]domain.AuthUser
	admins    map[uuid.UUID]domain.AdminUser
	profiles  map[uuid.UUID]domain.UserProfile
	wallets   map[uuid.UUID]domain.Wallet
	entries   []domain.LedgerEntry
	bets      []domain.Bet
	events    map[int64]domain.Event
	snapshots []domain.OddsSnapshot
	outbox    []domain.OutboxRow
	nextID    int64
}

func newState() state {
	return state{
		authUsers: make(map[uuid.UUID]domain.AuthUser),
		admins:    make(map[uuid.UUID]domain.AdminUser),
		profiles:  make(map[uuid.UUID]domain.UserProfile),
		wallets:   make(map[uuid.UUID]domain.Wallet),
		events:    make(map[int64]domain.Event),
	}
}

func (s state) clone() state {
	c := state{
		authUsers: make(map[uuid.UUID]domain.AuthUser, len(s.authUsers)),
		admins:    make(map[uuid.UUID]domain.AdminUser, len(s.admins)),
		profiles:  make(map[uuid.UUID]domain.UserProfile, len(s.profiles)),
		wallets:   make(map[uuid.UUID]domain.Wallet, len(s.wallets)),
		events:    make(map[int64]domain.Event, len(s.events)),
		entries:   append([]domain.LedgerEntry(nil), s.entries...),
		bets:      append([]domain.Bet(nil), s.bets...),
		snapshots: append([]domain.OddsSnapshot(nil), s.snapshots...),
		outbox:    append([]domain.OutboxRow(nil), s.outbox...),
		nextID:    s.nextID,
	}
	for k, v := range s.authUsers {
		c.authUsers[k] = v
	}
	for k, v := range s.admins {
		c.admins[k] = v
	}
	for k, v := range s.profiles {
		c.profiles[k] = v
	}
	for k, v := range s.wallets {
		c.wallets[k] = v
	}
	for k, v := range s.events {
		c.events[k] = v
	}
	return c
}

// Store is an in-memory database. It satisfies repository.TxBeginner.
type Store struct {
	mu    sync.Mutex
	st    state
	fails map[string]error

	// Begins counts opened transactions; Commits and Rollbacks count how they ended.
	Begins    int
	Commits   int
	Rollbacks int
}

var _ repository.TxBeginner = (*Store)(nil)

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{st: newState(), fails: make(map[string]error)}
}

// FailOn makes the named operation (e.g. "bets.MarkSettled", "tx.Commit")
// return err until cleared with a nil err.
func (s *Store) FailOn(op string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err == nil {
		delete(s.fails, op)
		return
	}
	s.fails[op] = err
}

func (s *Store) fail(op string) error {
	return s.fails[op]
}

func (s *Store) id() int64 {
	s.st.nextID++
	return s.st.nextID
}

// Exec is unsupported; repositories never issue raw SQL against the store.
func (s *Store) Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error) {
	return pgconn.CommandTag{}, ErrUnsupported
}

// Query is unsupported.
func (s *Store) Query(context.Context, string, ...interface{}) (pgx.Rows, error) {
	return nil, ErrUnsupported
}

// QueryRow is unsupported.
func (s *Store) QueryRow(context.Context, string, ...interface{}) pgx.Row {
	return errRow{}
}

// Begin snapshots the current state.
func (s *Store) Begin(context.Context) (pgx.Tx, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("tx.Begin"); err != nil {
		return nil, err
	}
	s.Begins++
	return &Tx{store: s, saved: s.st.clone()}, nil
}

// Tx is a snapshot transaction over a Store. Only Commit and Rollback are
// implemented; everything else panics through the nil embedded interface.
type Tx struct {
	pgx.Tx
	store *Store
	saved state
	done  bool
}

// Commit keeps the changes made since Begin.
func (t *Tx) Commit(context.Context) error {
	t.store.mu.Lock()
	defer t.store.mu.Unlock()
	if t.done {
		return pgx.ErrTxClosed
	}
	if err := t.store.fail("tx.Commit"); err != nil {
		t.store.st = t.saved
		t.done = true
		return err
	}
	t.done = true
	t.store.Commits++
	return nil
}

// Rollback restores the state captured at Begin. It is a no-op after Commit.
func (t *Tx) Rollback(context.Context) error {
	t.store.mu.Lock()
	defer t.store.mu.Unlock()
	if t.done {
		return pgx.ErrTxClosed
	}
	t.store.st = t.saved
	t.done = true
	t.store.Rollbacks++
	return nil
}

type errRow struct{}

func (errRow) Scan(...interface{}) error { return ErrUnsupported }

func uniqueViolation(constraint string) error {
	return fmt.Errorf("repotest: %w", &pgconn.PgError{Code: "23505", ConstraintName: constraint})
}
