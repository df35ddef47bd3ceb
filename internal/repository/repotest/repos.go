package repotest

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/sideline/platform/internal/domain"
	"github.com/sideline/platform/internal/repository"
)

// AuthUsers returns an AuthUserRepository backed by the store.
func (s *Store) AuthUsers() repository.AuthUserRepository { return authUsers{s} }

// Admins returns an AdminUserRepository backed by the store.
func (s *Store) Admins() repository.AdminUserRepository { return admins{s} }

// Profiles returns a ProfileRepository backed by the store.
func (s *Store) Profiles() repository.ProfileRepository { return profiles{s} }

// Wallets returns a WalletRepository backed by the store.
func (s *Store) Wallets() repository.WalletRepository { return wallets{s} }

// Ledger returns a LedgerRepository backed by the store.
func (s *Store) Ledger() repository.LedgerRepository { return ledger{s} }

// Bets returns a BetRepository backed by the store.
func (s *Store) Bets() repository.BetRepository { return bets{s} }

// Events returns an EventRepository backed by the store.
func (s *Store) Events() repository.EventRepository { return events{s} }

// Odds returns an OddsRepository backed by the store.
func (s *Store) Odds() repository.OddsRepository { return oddsRepo{s} }

// Outbox returns an OutboxRepository backed by the store.
func (s *Store) Outbox() repository.OutboxRepository { return outbox{s} }

// --- auth users / admins / profiles ---

type authUsers struct{ s *Store }

func (r authUsers) FindByEmail(_ context.Context, _ repository.DBTX, email string) (*domain.AuthUser, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail("auth_users.FindByEmail"); err != nil {
		return nil, err
	}
	for _, u := range r.s.st.authUsers {
		if strings.EqualFold(u.Email, email) {
			u := u
			return &u, nil
		}
	}
	return nil, nil
}

func (r authUsers) Create(_ context.Context, _ repository.DBTX, user *domain.AuthUser) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail("auth_users.Create"); err != nil {
		return err
	}
	for _, u := range r.s.st.authUsers {
		if strings.EqualFold(u.Email, user.Email) {
			return uniqueViolation("auth_users_email_key")
		}
	}
	user.CreatedAt = time.Now().UTC()
	r.s.st.authUsers[user.ID] = *user
	return nil
}

type admins struct{ s *Store }

func (r admins) FindByEmail(_ context.Context, _ repository.DBTX, email string) (*domain.AdminUser, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, a := range r.s.st.admins {
		if strings.EqualFold(a.Email, email) {
			a := a
			return &a, nil
		}
	}
	return nil, nil
}

// PutAdmin seeds an admin account.
func (s *Store) PutAdmin(a domain.AdminUser) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.st.admins[a.ID] = a
}

type profiles struct{ s *Store }

func (r profiles) FindByUserID(_ context.Context, _ repository.DBTX, userID uuid.UUID) (*domain.UserProfile, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail("profiles.FindByUserID"); err != nil {
		return nil, err
	}
	p, ok := r.s.st.profiles[userID]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (r profiles) FindByUsername(_ context.Context, _ repository.DBTX, username string) (*domain.UserProfile, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, p := range r.s.st.profiles {
		if p.Username == username {
			p := p
			return &p, nil
		}
	}
	return nil, nil
}

func (r profiles) Create(_ context.Context, _ repository.DBTX, profile *domain.UserProfile) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, p := range r.s.st.profiles {
		if p.Username == profile.Username {
			return uniqueViolation("user_profiles_username_key")
		}
	}
	profile.CreatedAt = time.Now().UTC()
	r.s.st.profiles[profile.UserID] = *profile
	return nil
}

// PutProfile seeds a profile.
func (s *Store) PutProfile(p domain.UserProfile) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.st.profiles[p.UserID] = p
}

// --- wallets ---

type wallets struct{ s *Store }

func (r wallets) FindByUser(_ context.Context, _ repository.DBTX, userID uuid.UUID) (*domain.Wallet, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail("wallets.FindByUser"); err != nil {
		return nil, err
	}
	w, ok := r.s.st.wallets[userID]
	if !ok {
		return nil, nil
	}
	return &w, nil
}

func (r wallets) LockForUpdate(_ context.Context, _ pgx.Tx, userID uuid.UUID) (*domain.Wallet, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail("wallets.LockForUpdate"); err != nil {
		return nil, err
	}
	w, ok := r.s.st.wallets[userID]
	if !ok {
		return nil, nil
	}
	return &w, nil
}

func (r wallets) Create(_ context.Context, _ repository.DBTX, w *domain.Wallet) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.st.wallets[w.UserID]; ok {
		return uniqueViolation("wallets_pkey")
	}
	now := time.Now().UTC()
	w.LastResetAt, w.CreatedAt, w.UpdatedAt = now, now, now
	r.s.st.wallets[w.UserID] = *w
	return nil
}

func (r wallets) ApplyDelta(_ context.Context, _ pgx.Tx, userID uuid.UUID, deltaCents int64) (*domain.Wallet, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail("wallets.ApplyDelta"); err != nil {
		return nil, err
	}
	w, ok := r.s.st.wallets[userID]
	if !ok || w.BalanceCents+deltaCents < 0 {
		return nil, nil
	}
	w.BalanceCents += deltaCents
	w.UpdatedAt = time.Now().UTC()
	r.s.st.wallets[userID] = w
	return &w, nil
}

func (r wallets) Reset(_ context.Context, _ pgx.Tx, params domain.ResetWalletParams) (*domain.Wallet, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail("wallets.Reset"); err != nil {
		return nil, err
	}
	w, ok := r.s.st.wallets[params.UserID]
	if !ok {
		return nil, nil
	}
	w.BalanceCents = params.BalanceCents
	w.LastResetAt = params.At
	if params.NewPeriod {
		w.ResetsUsedMonth = 0
	}
	if params.CountReset {
		w.ResetsUsedMonth++
	}
	w.UpdatedAt = time.Now().UTC()
	r.s.st.wallets[params.UserID] = w
	return &w, nil
}

// PutWallet seeds a wallet.
func (s *Store) PutWallet(w domain.Wallet) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.st.wallets[w.UserID] = w
}

// Wallet returns the stored wallet, or nil.
func (s *Store) Wallet(userID uuid.UUID) *domain.Wallet {
	s.mu.Lock()
	defer s.mu.Unlock()
	w, ok := s.st.wallets[userID]
	if !ok {
		return nil
	}
	return &w
}

// --- ledger ---

type ledger struct{ s *Store }

func (r ledger) Insert(_ context.Context, _ repository.DBTX, params domain.PostEntryParams, balanceAfter int64) (*domain.LedgerEntry, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail("ledger.Insert"); err != nil {
		return nil, err
	}
	meta := params.Metadata
	if meta == nil {
		meta = json.RawMessage(`{}`)
	}
	e := domain.LedgerEntry{
		ID:           r.s.id(),
		UserID:       params.UserID,
		BetID:        params.BetID,
		DeltaCents:   params.DeltaCents,
		BalanceAfter: balanceAfter,
		Reason:       params.Reason,
		Metadata:     meta,
		CreatedAt:    time.Now().UTC(),
	}
	r.s.st.entries = append(r.s.st.entries, e)
	return &e, nil
}

func (r ledger) ListByUser(_ context.Context, _ repository.DBTX, userID uuid.UUID, cursor *int64, limit int) ([]domain.LedgerEntry, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	var out []domain.LedgerEntry
	for i := len(r.s.st.entries) - 1; i >= 0 && len(out) < limit; i-- {
		e := r.s.st.entries[i]
		if e.UserID != userID {
			continue
		}
		if cursor != nil && e.ID >= *cursor {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

// Entries returns a copy of all ledger entries for a user, oldest first.
func (s *Store) Entries(userID uuid.UUID) []domain.LedgerEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.LedgerEntry
	for _, e := range s.st.entries {
		if e.UserID == userID {
			out = append(out, e)
		}
	}
	return out
}

// --- bets ---

type bets struct{ s *Store }

func (r bets) Insert(_ context.Context, _ repository.DBTX, bet *domain.Bet) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail("bets.Insert"); err != nil {
		return err
	}
	if bet.IdempotencyKey != nil {
		for _, b := range r.s.st.bets {
			if b.UserID == bet.UserID && b.IdempotencyKey != nil && *b.IdempotencyKey == *bet.IdempotencyKey {
				return uniqueViolation("idx_bets_idempotency")
			}
		}
	}
	bet.Status = domain.BetPending
	bet.PlacedAt = time.Now().UTC()
	r.s.st.bets = append(r.s.st.bets, *bet)
	return nil
}

func (r bets) FindByID(_ context.Context, _ repository.DBTX, id uuid.UUID) (*domain.Bet, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, b := range r.s.st.bets {
		if b.ID == id {
			b := b
			return &b, nil
		}
	}
	return nil, nil
}

func (r bets) FindByIdempotencyKey(_ context.Context, _ repository.DBTX, userID uuid.UUID, key string) (*domain.Bet, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, b := range r.s.st.bets {
		if b.UserID == userID && b.IdempotencyKey != nil && *b.IdempotencyKey == key {
			b := b
			return &b, nil
		}
	}
	return nil, nil
}

func (r bets) ListByUser(_ context.Context, _ repository.DBTX, userID uuid.UUID, limit int) ([]domain.BetWithEvent, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	var out []domain.BetWithEvent
	for i := len(r.s.st.bets) - 1; i >= 0 && len(out) < limit; i-- {
		b := r.s.st.bets[i]
		if b.UserID != userID {
			continue
		}
		ev := r.s.st.events[b.EventID]
		out = append(out, domain.BetWithEvent{
			Bet:          b,
			HomeTeam:     ev.HomeTeam,
			AwayTeam:     ev.AwayTeam,
			CommenceTime: ev.CommenceTime,
			EventStatus:  ev.Status,
		})
	}
	return out, nil
}

func (r bets) ListSettleable(_ context.Context, _ repository.DBTX, limit int) ([]domain.SettleableBet, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail("bets.ListSettleable"); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 500
	}
	var out []domain.SettleableBet
	for _, b := range r.s.st.bets {
		if len(out) >= limit {
			break
		}
		ev, ok := r.s.st.events[b.EventID]
		if b.Status != domain.BetPending || !ok || ev.Status != domain.EventFinal {
			continue
		}
		home, away := ev.FinalScores()
		out = append(out, domain.SettleableBet{Bet: b, HomeScore: home, AwayScore: away})
	}
	return out, nil
}

func (r bets) MarkSettled(_ context.Context, _ repository.DBTX, id uuid.UUID, status domain.BetStatus, payoutCents int64, at time.Time) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail("bets.MarkSettled"); err != nil {
		return false, err
	}
	for i, b := range r.s.st.bets {
		if b.ID != id {
			continue
		}
		if b.Status != domain.BetPending {
			return false, nil
		}
		payout := payoutCents
		settled := at
		b.Status = status
		b.PayoutCents = &payout
		b.SettledAt = &settled
		r.s.st.bets[i] = b
		return true, nil
	}
	return false, nil
}

func (r bets) Leaderboard(_ context.Context, _ repository.DBTX, limit int) ([]domain.LeaderboardRow, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	var rows []domain.LeaderboardRow
	for userID, p := range r.s.st.profiles {
		w, ok := r.s.st.wallets[userID]
		if !ok {
			continue
		}
		row := domain.LeaderboardRow{Username: p.Username, BalanceCents: w.BalanceCents}
		for _, b := range r.s.st.bets {
			if b.UserID != userID || b.Status == domain.BetPending {
				continue
			}
			if b.Status == domain.BetWon {
				row.BetsWon++
			}
			var payout int64
			if b.PayoutCents != nil {
				payout = *b.PayoutCents
			}
			row.NetCents += payout - b.StakeCents
		}
		rows = append(rows, row)
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].BalanceCents != rows[j].BalanceCents {
			return rows[i].BalanceCents > rows[j].BalanceCents
		}
		return rows[i].Username < rows[j].Username
	})
	if len(rows) > limit {
		rows = rows[:limit]
	}
	for i := range rows {
		rows[i].Rank = i + 1
	}
	return rows, nil
}

// Bet returns the stored bet, or nil.
func (s *Store) Bet(id uuid.UUID) *domain.Bet {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, b := range s.st.bets {
		if b.ID == id {
			return &b
		}
	}
	return nil
}

// PutBet seeds a bet.
func (s *Store) PutBet(b domain.Bet) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.st.bets = append(s.st.bets, b)
}

// BetCount returns the number of stored bets.
func (s *Store) BetCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.st.bets)
}

// --- events ---

type events struct{ s *Store }

func (r events) FindByID(_ context.Context, _ repository.DBTX, id int64) (*domain.Event, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail("events.FindByID"); err != nil {
		return nil, err
	}
	e, ok := r.s.st.events[id]
	if !ok {
		return nil, nil
	}
	return &e, nil
}

func (r events) List(_ context.Context, _ repository.DBTX, filter repository.EventFilter) ([]domain.Event, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []domain.Event
	for _, e := range r.s.st.events {
		if filter.Since != nil && e.CommenceTime.Before(*filter.Since) {
			continue
		}
		if filter.Status != nil && e.Status != *filter.Status {
			continue
		}
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CommenceTime.Equal(out[j].CommenceTime) {
			return out[i].CommenceTime.Before(out[j].CommenceTime)
		}
		return out[i].ID < out[j].ID
	})
	limit := filter.Limit
	if limit <= 0 || limit > 500 {
		limit = 200
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r events) Create(_ context.Context, _ repository.DBTX, e *domain.Event) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.st.events {
		if existing.EventKey == e.EventKey {
			return uniqueViolation("events_event_key_key")
		}
	}
	if e.Status == "" {
		e.Status = domain.EventScheduled
	}
	now := time.Now().UTC()
	e.ID = r.s.id()
	e.CreatedAt, e.UpdatedAt = now, now
	r.s.st.events[e.ID] = *e
	return nil
}

func (r events) UpsertByKey(_ context.Context, _ repository.DBTX, e *domain.Event) (*domain.Event, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail("events.UpsertByKey"); err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	status := e.Status
	if status == "" {
		status = domain.EventScheduled
	}
	for id, existing := range r.s.st.events {
		if existing.EventKey != e.EventKey {
			continue
		}
		existing.Sport, existing.League = e.Sport, e.League
		existing.HomeTeam, existing.AwayTeam = e.HomeTeam, e.AwayTeam
		existing.CommenceTime = e.CommenceTime
		if existing.Status != domain.EventFinal && existing.Status != domain.EventCancelled {
			existing.Status = status
		}
		existing.UpdatedAt = now
		r.s.st.events[id] = existing
		return &existing, nil
	}
	created := *e
	created.ID = r.s.id()
	created.Status = status
	created.CreatedAt, created.UpdatedAt = now, now
	r.s.st.events[created.ID] = created
	return &created, nil
}

func (r events) UpdateStatus(_ context.Context, _ repository.DBTX, id int64, status domain.EventStatus, homeScore, awayScore *int) (*domain.Event, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	e, ok := r.s.st.events[id]
	if !ok || e.Status == domain.EventFinal {
		return nil, nil
	}
	e.Status = status
	if homeScore != nil {
		e.HomeScore = homeScore
	}
	if awayScore != nil {
		e.AwayScore = awayScore
	}
	e.UpdatedAt = time.Now().UTC()
	r.s.st.events[id] = e
	return &e, nil
}

func (r events) MarkFinalByKey(_ context.Context, _ repository.DBTX, eventKey string, homeScore, awayScore int) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for id, e := range r.s.st.events {
		if e.EventKey != eventKey || !e.Status.AcceptsBets() {
			continue
		}
		h, a := homeScore, awayScore
		e.Status = domain.EventFinal
		e.HomeScore, e.AwayScore = &h, &a
		e.UpdatedAt = time.Now().UTC()
		r.s.st.events[id] = e
		return true, nil
	}
	return false, nil
}

// PutEvent seeds an event, assigning an id when zero. Returns the stored event.
func (s *Store) PutEvent(e domain.Event) domain.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e.ID == 0 {
		e.ID = s.id()
	}
	if e.EventKey == "" {
		e.EventKey = fmt.Sprintf("evt-%d", e.ID)
	}
	s.st.events[e.ID] = e
	return e
}

// Event returns the stored event, or nil.
func (s *Store) Event(id int64) *domain.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.st.events[id]
	if !ok {
		return nil
	}
	return &e
}

// --- odds snapshots ---

type oddsRepo struct{ s *Store }

func (r oddsRepo) ListByEvents(_ context.Context, _ repository.DBTX, eventIDs []int64) ([]domain.OddsSnapshot, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	want := make(map[int64]bool, len(eventIDs))
	for _, id := range eventIDs {
		want[id] = true
	}
	var out []domain.OddsSnapshot
	for _, snap := range r.s.st.snapshots {
		if want[snap.EventID] {
			out = append(out, snap)
		}
	}
	return out, nil
}

func (r oddsRepo) ListByEventMarket(_ context.Context, _ repository.DBTX, eventID int64, market domain.Market) ([]domain.OddsSnapshot, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail("odds.ListByEventMarket"); err != nil {
		return nil, err
	}
	var out []domain.OddsSnapshot
	for _, snap := range r.s.st.snapshots {
		if snap.EventID == eventID && snap.Market == market {
			out = append(out, snap)
		}
	}
	return out, nil
}

func (r oddsRepo) Upsert(_ context.Context, _ repository.DBTX, snap *domain.OddsSnapshot) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	now := time.Now().UTC()
	for i, existing := range r.s.st.snapshots {
		if existing.EventID != snap.EventID || existing.Bookmaker != snap.Bookmaker || existing.Market != snap.Market {
			continue
		}
		if existing.IsOverridden {
			return false, nil
		}
		updated := *snap
		updated.ID = existing.ID
		updated.IsOverridden = false
		updated.UpdatedAt = now
		r.s.st.snapshots[i] = updated
		return true, nil
	}
	created := *snap
	created.ID = r.s.id()
	created.IsOverridden = false
	created.UpdatedAt = now
	r.s.st.snapshots = append(r.s.st.snapshots, created)
	return true, nil
}

func (r oddsRepo) Override(_ context.Context, _ repository.DBTX, eventID int64, market domain.Market, fields map[string]interface{}) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for col := range fields {
		if !repository.OverridableOddsColumns[col] {
			return 0, fmt.Errorf("column %q cannot be overridden", col)
		}
	}
	var n int64
	for i, snap := range r.s.st.snapshots {
		if snap.EventID != eventID || snap.Market != market {
			continue
		}
		for col, v := range fields {
			applyOddsField(&snap, col, v)
		}
		snap.IsOverridden = true
		snap.UpdatedAt = time.Now().UTC()
		r.s.st.snapshots[i] = snap
		n++
	}
	return n, nil
}

func (r oddsRepo) ClearOverride(_ context.Context, _ repository.DBTX, eventID int64, market domain.Market) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var n int64
	for i, snap := range r.s.st.snapshots {
		if snap.EventID == eventID && snap.Market == market {
			snap.IsOverridden = false
			r.s.st.snapshots[i] = snap
			n++
		}
	}
	return n, nil
}

func applyOddsField(snap *domain.OddsSnapshot, col string, v interface{}) {
	intPtr := func() *int {
		switch n := v.(type) {
		case int:
			return &n
		case int64:
			i := int(n)
			return &i
		case float64:
			i := int(n)
			return &i
		}
		return nil
	}
	floatPtr := func() *float64 {
		switch n := v.(type) {
		case float64:
			return &n
		case int:
			f := float64(n)
			return &f
		case int64:
			f := float64(n)
			return &f
		}
		return nil
	}
	switch col {
	case "home_ml":
		snap.HomeML = intPtr()
	case "away_ml":
		snap.AwayML = intPtr()
	case "spread_line":
		snap.SpreadLine = floatPtr()
	case "home_spread_american":
		snap.HomeSpreadAmerican = intPtr()
	case "away_spread_american":
		snap.AwaySpreadAmerican = intPtr()
	case "total_line":
		snap.TotalLine = floatPtr()
	case "over_american":
		snap.OverAmerican = intPtr()
	case "under_american":
		snap.UnderAmerican = intPtr()
	}
}

// PutSnapshot seeds an odds snapshot. UpdatedAt defaults to now.
func (s *Store) PutSnapshot(snap domain.OddsSnapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if snap.ID == 0 {
		snap.ID = s.id()
	}
	if snap.UpdatedAt.IsZero() {
		snap.UpdatedAt = time.Now().UTC()
	}
	s.st.snapshots = append(s.st.snapshots, snap)
}

// Snapshots returns all stored snapshots for an event.
func (s *Store) Snapshots(eventID int64) []domain.OddsSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.OddsSnapshot
	for _, snap := range s.st.snapshots {
		if snap.EventID == eventID {
			out = append(out, snap)
		}
	}
	return out
}

// --- outbox ---

type outbox struct{ s *Store }

func (r outbox) Insert(_ context.Context, _ repository.DBTX, draft domain.OutboxDraft) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail("outbox.Insert"); err != nil {
		return err
	}
	r.s.st.outbox = append(r.s.st.outbox, domain.OutboxRow{SeqID: r.s.id(), OutboxDraft: draft})
	return nil
}

func (r outbox) FetchUnpublished(_ context.Context, _ repository.DBTX, limit int) ([]domain.OutboxRow, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail("outbox.FetchUnpublished"); err != nil {
		return nil, err
	}
	n := len(r.s.st.outbox)
	if limit > 0 && n > limit {
		n = limit
	}
	return append([]domain.OutboxRow(nil), r.s.st.outbox[:n]...), nil
}

func (r outbox) MarkPublished(_ context.Context, _ repository.DBTX, ids []int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	drop := make(map[int64]bool, len(ids))
	for _, id := range ids {
		drop[id] = true
	}
	kept := r.s.st.outbox[:0]
	for _, row := range r.s.st.outbox {
		if !drop[row.SeqID] {
			kept = append(kept, row)
		}
	}
	r.s.st.outbox = kept
	return nil
}

// OutboxEvents returns the event types waiting in the outbox, in order.
func (s *Store) OutboxEvents() []domain.EventType {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.EventType, 0, len(s.st.outbox))
	for _, row := range s.st.outbox {
		out = append(out, row.EventType)
	}
	return out
}
