//go:build integration

package integration

import (
	"net/http"
	"testing"

	"github.com/sideline/platform/test/integration/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWallet_ResetRespectsCooldown(t *testing.T) {
	env := testutil.NewTestEnv(t)
	token, userID := env.RegisterPlayer("reset@test.com", "securepass123", "resetter")

	resp := env.POST("/wallet/reset", nil, token)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	var body struct {
		Error string `json:"error"`
	}
	env.Decode(resp, &body)
	assert.Equal(t, "too_soon", body.Error)
	assert.Equal(t, int64(100_000), env.Balance(userID))
}

func TestWallet_AdminAudit(t *testing.T) {
	env := testutil.NewTestEnv(t)
	_, userID := env.RegisterPlayer("audit@test.com", "securepass123", "audited")

	resp := env.AuthGET("/admin/wallets/"+userID.String()+"/audit", env.AdminToken("viewer"))
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var audit struct {
		BalanceCents int64 `json:"balance_cents"`
		EntryCount   int   `json:"entry_count"`
		AllPassed    bool  `json:"all_passed"`
	}
	env.Decode(resp, &audit)
	assert.True(t, audit.AllPassed)
	assert.Equal(t, int64(100_000), audit.BalanceCents)
	assert.Equal(t, 1, audit.EntryCount)
}
