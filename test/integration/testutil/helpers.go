//go:build integration

package testutil

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// RegisterPlayer creates a new player and returns the auth token and user ID.
func (env *TestEnv) RegisterPlayer(email, password, username string) (token string, userID uuid.UUID) {
	env.t.Helper()
	resp := env.POST("/auth/register", map[string]string{
		"email":    email,
		"password": password,
		"username": username,
	}, "")
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		env.t.Fatalf("RegisterPlayer: expected 201, got %d", resp.StatusCode)
	}

	var result struct {
		Token  string    `json:"token"`
		UserID uuid.UUID `json:"user_id"`
	}
	env.Decode(resp, &result)
	return result.Token, result.UserID
}

// LoginPlayer authenticates an existing player and returns the response.
func (env *TestEnv) LoginPlayer(email, password string) *http.Response {
	env.t.Helper()
	return env.POST("/auth/login", map[string]string{
		"email":    email,
		"password": password,
	}, "")
}

// AdminToken seeds an operator with the given role and logs in as them.
func (env *TestEnv) AdminToken(role string) string {
	env.t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	hash, err := bcrypt.GenerateFromPassword([]byte("operator-pass"), bcrypt.MinCost)
	if err != nil {
		env.t.Fatalf("AdminToken: hash: %v", err)
	}
	email := fmt.Sprintf("%s-%s@sideline.test", role, uuid.New().String()[:8])
	if _, err := env.Pool.Exec(ctx,
		`INSERT INTO admin_users (email, password_hash, role) VALUES ($1, $2, $3)`,
		email, string(hash), role); err != nil {
		env.t.Fatalf("AdminToken: insert: %v", err)
	}

	resp := env.POST("/admin/auth/login", map[string]string{"email": email, "password": "operator-pass"}, "")
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		env.t.Fatalf("AdminToken: expected 200, got %d", resp.StatusCode)
	}
	var result struct {
		Token string `json:"token"`
	}
	env.Decode(resp, &result)
	return result.Token
}

// SeedEvent inserts a scheduled game and returns its id.
func (env *TestEnv) SeedEvent(home, away string, commence time.Time) int64 {
	env.t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var id int64
	err := env.Pool.QueryRow(ctx,
		`INSERT INTO events (event_key, sport, league, home_team, away_team, commence_time)
		 VALUES ($1, 'NFL', 'NFL', $2, $3, $4) RETURNING id`,
		"it-"+uuid.New().String(), home, away, commence).Scan(&id)
	if err != nil {
		env.t.Fatalf("SeedEvent: %v", err)
	}
	return id
}

// SeedMoneyline inserts a moneyline snapshot for an event.
func (env *TestEnv) SeedMoneyline(eventID int64, bookmaker string, homeML, awayML int) {
	env.t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := env.Pool.Exec(ctx,
		`INSERT INTO odds_snapshots (event_id, bookmaker, market, home_ml, away_ml)
		 VALUES ($1, $2, 'moneyline', $3, $4)`,
		eventID, bookmaker, homeML, awayML); err != nil {
		env.t.Fatalf("SeedMoneyline: %v", err)
	}
}

// Balance reads the stored wallet balance.
func (env *TestEnv) Balance(userID uuid.UUID) int64 {
	env.t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var balance int64
	if err := env.Pool.QueryRow(ctx,
		`SELECT balance_cents::bigint FROM wallets WHERE user_id = $1`, userID).Scan(&balance); err != nil {
		env.t.Fatalf("Balance: %v", err)
	}
	return balance
}

// LedgerSum returns the sum of a user's ledger deltas.
func (env *TestEnv) LedgerSum(userID uuid.UUID) int64 {
	env.t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var sum int64
	if err := env.Pool.QueryRow(ctx,
		`SELECT COALESCE(SUM(delta_cents), 0)::bigint FROM ledger_entries WHERE user_id = $1`, userID).Scan(&sum); err != nil {
		env.t.Fatalf("LedgerSum: %v", err)
	}
	return sum
}

// Decode reads a JSON response body into dst.
func (env *TestEnv) Decode(resp *http.Response, dst interface{}) {
	env.t.Helper()
	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		env.t.Fatalf("decode response: %v", err)
	}
}

// GET performs an unauthenticated GET request.
func (env *TestEnv) GET(path string) *http.Response {
	env.t.Helper()
	return env.Do(http.MethodGet, path, nil, "")
}

// POST performs a POST request with optional auth token.
func (env *TestEnv) POST(path string, body interface{}, token string) *http.Response {
	env.t.Helper()
	return env.Do(http.MethodPost, path, body, token)
}

// AuthGET performs an authenticated GET request.
func (env *TestEnv) AuthGET(path, token string) *http.Response {
	env.t.Helper()
	return env.Do(http.MethodGet, path, nil, token)
}

// AuthPATCH performs an authenticated PATCH request.
func (env *TestEnv) AuthPATCH(path string, body interface{}, token string) *http.Response {
	env.t.Helper()
	return env.Do(http.MethodPatch, path, body, token)
}

// Do sends a request with an optional JSON body, bearer token and extra
// header pairs.
func (env *TestEnv) Do(method, path string, body interface{}, token string, headers ...string) *http.Response {
	env.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			env.t.Fatalf("%s %s: encode: %v", method, path, err)
		}
	}
	req, err := http.NewRequest(method, env.Server.URL+path, &buf)
	if err != nil {
		env.t.Fatalf("%s %s: new request: %v", method, path, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		env.t.Fatalf("%s %s: %v", method, path, err)
	}
	return resp
}
