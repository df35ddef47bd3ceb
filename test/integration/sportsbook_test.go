//go:build integration

package integration

import (
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/sideline/platform/test/integration/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func placeBet(env *testutil.TestEnv, token string, eventID int64, side string, stake int64, key string) *http.Response {
	body := map[string]interface{}{"event_id": eventID, "market": "moneyline", "side": side, "stake_cents": stake}
	if key == "" {
		return env.POST("/bets", body, token)
	}
	return env.Do(http.MethodPost, "/bets", body, token, "Idempotency-Key", key)
}

func TestSportsbook_PlaceAndSettle(t *testing.T) {
	env := testutil.NewTestEnv(t)
	token, userID := env.RegisterPlayer("bettor@test.com", "securepass123", "bettor")
	eventID := env.SeedEvent("Green Bay Packers", "Chicago Bears", time.Now().Add(2*time.Hour))
	env.SeedMoneyline(eventID, "draftkings", -150, 130)

	resp := placeBet(env, token, eventID, "away", 1000, "slip-1")
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var placed struct {
		BetID        string `json:"bet_id"`
		AmericanOdds int    `json:"american_odds"`
		BalanceCents int64  `json:"balance_cents"`
	}
	env.Decode(resp, &placed)
	resp.Body.Close()
	assert.Equal(t, 130, placed.AmericanOdds)
	assert.Equal(t, int64(99_000), placed.BalanceCents)

	// Same key replays the original bet without a second debit.
	resp = placeBet(env, token, eventID, "away", 1000, "slip-1")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var replay struct {
		BetID string `json:"bet_id"`
	}
	env.Decode(resp, &replay)
	resp.Body.Close()
	assert.Equal(t, placed.BetID, replay.BetID)
	assert.Equal(t, int64(99_000), env.Balance(userID))

	admin := env.AdminToken("admin")
	resp = env.AuthPATCH("/admin/events/"+strconv.FormatInt(eventID, 10)+"/status",
		map[string]interface{}{"status": "final", "home_score": 17, "away_score": 24}, admin)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp = env.POST("/settle/run", nil, testutil.TestCronSecret)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var run struct {
		Settled int `json:"settled"`
	}
	env.Decode(resp, &run)
	resp.Body.Close()
	assert.Equal(t, 1, run.Settled)

	// +130 on 1000 pays 2300.
	assert.Equal(t, int64(101_300), env.Balance(userID))
	assert.Equal(t, env.Balance(userID), env.LedgerSum(userID))

	// A second run finds nothing to grade.
	resp = env.POST("/settle/run", nil, testutil.TestCronSecret)
	env.Decode(resp, &run)
	resp.Body.Close()
	assert.Equal(t, 0, run.Settled)
	assert.Equal(t, int64(101_300), env.Balance(userID))
}

func TestSportsbook_BettingClosedAfterKickoff(t *testing.T) {
	env := testutil.NewTestEnv(t)
	token, _ := env.RegisterPlayer("late@test.com", "securepass123", "late_bettor")
	eventID := env.SeedEvent("Dallas Cowboys", "New York Giants", time.Now().Add(-time.Minute))
	env.SeedMoneyline(eventID, "draftkings", -200, 170)

	resp := placeBet(env, token, eventID, "home", 1000, "")
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	var body struct {
		Error string `json:"error"`
	}
	env.Decode(resp, &body)
	assert.Equal(t, "betting_closed", body.Error)
}

func TestSportsbook_ConcurrentBetsNeverOverdraw(t *testing.T) {
	env := testutil.NewTestEnv(t)
	token, userID := env.RegisterPlayer("racer@test.com", "securepass123", "racer")
	eventID := env.SeedEvent("Kansas City Chiefs", "Buffalo Bills", time.Now().Add(3*time.Hour))
	env.SeedMoneyline(eventID, "draftkings", 110, -130)

	// 100000 cents covers exactly ten 10000-cent stakes.
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		accepted int
	)
	for i := 0; i < 15; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			resp := placeBet(env, token, eventID, "home", 10_000, fmt.Sprintf("race-%d", i))
			defer resp.Body.Close()
			if resp.StatusCode == http.StatusCreated {
				mu.Lock()
				accepted++
				mu.Unlock()
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 10, accepted)
	assert.Equal(t, int64(0), env.Balance(userID))
	assert.Equal(t, int64(0), env.LedgerSum(userID))
}
