package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/sideline/platform/internal/auth"
	"github.com/sideline/platform/internal/domain"
	"github.com/sideline/platform/internal/guard"
	"github.com/sideline/platform/internal/metrics"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRespondJSON(t *testing.T) {
	t.Run("200 with body", func(t *testing.T) {
		w := httptest.NewRecorder()
		RespondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
		assert.Equal(t, http.StatusOK, w.Code)
		var body map[string]string
		require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
		assert.Equal(t, "ok", body["status"])
	})

	t.Run("201 with body", func(t *testing.T) {
		w := httptest.NewRecorder()
		RespondJSON(w, http.StatusCreated, map[string]int{"id": 42})
		assert.Equal(t, http.StatusCreated, w.Code)
	})

	t.Run("204 with nil body", func(t *testing.T) {
		w := httptest.NewRecorder()
		RespondJSON(w, http.StatusNoContent, nil)
		assert.Equal(t, http.StatusNoContent, w.Code)
		assert.Empty(t, w.Body.String())
	})
}

func TestRespondError(t *testing.T) {
	t.Run("AppError maps to correct status", func(t *testing.T) {
		tests := []struct {
			err        *domain.AppError
			wantStatus int
			wantCode   string
		}{
			{domain.ErrNotFound("event", "123"), 404, "not_found"},
			{domain.ErrValidation("bad input"), 400, "validation_error"},
			{domain.ErrUnauthenticated("no token"), 401, "unauthenticated"},
			{domain.ErrForbidden("not allowed"), 403, "forbidden"},
			{domain.ErrConflict("duplicate"), 409, "conflict"},
			{domain.ErrInsufficientFunds(), 400, "insufficient_funds"},
			{domain.ErrBettingClosed(), 400, "betting_closed"},
			{domain.ErrStakeOutOfRange(500, 10000), 400, "stake_out_of_range"},
			{domain.ErrTooSoon("wait"), 400, "too_soon"},
			{domain.ErrRateLimited("slow down"), 429, "rate_limited"},
			{domain.ErrAccountLocked("locked"), 429, "account_locked"},
			{domain.ErrStorage("oops", nil), 500, "storage_failure"},
		}

		for _, tt := range tests {
			t.Run(tt.wantCode, func(t *testing.T) {
				w := httptest.NewRecorder()
				RespondError(w, tt.err)
				assert.Equal(t, tt.wantStatus, w.Code)

				var body ErrorBody
				require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
				assert.Equal(t, tt.wantCode, body.Error)
				assert.Equal(t, tt.err.Message, body.Message)
			})
		}
	})

	t.Run("wrapped AppError keeps its code", func(t *testing.T) {
		w := httptest.NewRecorder()
		RespondError(w, fmt.Errorf("place bet: %w", domain.ErrBettingClosed()))
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), `"error":"betting_closed"`)
	})

	t.Run("generic error returns 500", func(t *testing.T) {
		w := httptest.NewRecorder()
		RespondError(w, assert.AnError)
		assert.Equal(t, http.StatusInternalServerError, w.Code)

		var body ErrorBody
		require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
		assert.Equal(t, "unknown", body.Error)
		assert.Equal(t, "internal server error", body.Message)
	})
}

func TestDecodeJSON(t *testing.T) {
	type slip struct {
		EventID    int64  `json:"event_id"`
		Side       string `json:"side"`
		StakeCents int64  `json:"stake_cents"`
	}
	tests := []struct {
		name    string
		body    string
		wantErr bool
	}{
		{"bet slip", `{"event_id":7,"side":"home","stake_cents":2500}`, false},
		{"truncated", `{"event_id":7,`, true},
		{"wrong type", `{"event_id":"seven"}`, true},
		{"over body limit", `{"side":"` + strings.Repeat("h", maxBodyBytes) + `"}`, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodPost, "/bets", strings.NewReader(tt.body))
			var dst slip
			err := DecodeJSON(r, &dst)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, slip{EventID: 7, Side: "home", StakeCents: 2500}, dst)
		})
	}
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		name       string
		forwarded  string
		remoteAddr string
		want       string
	}{
		{"proxy chain uses first hop", "203.0.113.9, 10.0.0.2", "10.0.0.2:443", "203.0.113.9"},
		{"padded header", "  203.0.113.9 ", "10.0.0.2:443", "203.0.113.9"},
		{"blank header falls back", " ", "198.51.100.4:50123", "198.51.100.4"},
		{"remote addr with port", "", "198.51.100.4:50123", "198.51.100.4"},
		{"remote addr without port", "", "198.51.100.4", "198.51.100.4"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodPost, "/auth/login", nil)
			r.RemoteAddr = tt.remoteAddr
			if tt.forwarded != "" {
				r.Header.Set("X-Forwarded-For", tt.forwarded)
			}
			assert.Equal(t, tt.want, ClientIP(r))
		})
	}
}

func TestRequestID(t *testing.T) {
	var seen string
	h := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetRequestID(r.Context())
	}))

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/odds", nil))
	require.NotEmpty(t, seen)
	assert.Equal(t, seen, w.Header().Get("X-Request-ID"))

	r := httptest.NewRequest(http.MethodGet, "/odds", nil)
	r.Header.Set("X-Request-ID", "upstream-42")
	w = httptest.NewRecorder()
	h.ServeHTTP(w, r)
	assert.Equal(t, "upstream-42", seen)
	assert.Equal(t, "upstream-42", w.Header().Get("X-Request-ID"))

	assert.Empty(t, GetRequestID(context.Background()))
}

func TestJSONContentType(t *testing.T) {
	h := JSONContentType(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/leaderboard", nil))
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
}

func TestCORSWithOrigins(t *testing.T) {
	tests := []struct {
		name    string
		allowed string
		origin  string
		want    string
	}{
		{"wildcard", "*", "https://anywhere.example", "*"},
		{"single origin without Origin header", "https://play.sideline.bet", "", "https://play.sideline.bet"},
		{"listed origin echoed", "https://a.example, https://b.example", "https://b.example", "https://b.example"},
		{"unlisted origin", "https://a.example, https://b.example", "https://evil.example", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := CORSWithOrigins(tt.allowed)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
			r := httptest.NewRequest(http.MethodGet, "/odds", nil)
			if tt.origin != "" {
				r.Header.Set("Origin", tt.origin)
			}
			w := httptest.NewRecorder()
			h.ServeHTTP(w, r)
			assert.Equal(t, tt.want, w.Header().Get("Access-Control-Allow-Origin"))
			assert.Contains(t, w.Header().Get("Access-Control-Allow-Headers"), "Idempotency-Key")
		})
	}

	t.Run("preflight short-circuits", func(t *testing.T) {
		called := false
		h := CORSWithOrigins("*")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { called = true }))
		w := httptest.NewRecorder()
		h.ServeHTTP(w, httptest.NewRequest(http.MethodOptions, "/bets", nil))
		assert.Equal(t, http.StatusNoContent, w.Code)
		assert.False(t, called)
	})
}

func TestRecovery(t *testing.T) {
	h := Recovery(noopLogger())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/settle/run" {
			panic("grading blew up")
		}
		w.WriteHeader(http.StatusAccepted)
	}))

	w := httptest.NewRecorder()
	assert.NotPanics(t, func() { h.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/settle/run", nil)) })
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), `"error":"unknown"`)

	w = httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/odds/pull", nil))
	assert.Equal(t, http.StatusAccepted, w.Code)
}

func TestRateLimitBySubject(t *testing.T) {
	limiter := guard.NewRateLimiter(2, time.Minute)
	handler := RateLimitBySubject(limiter)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	send := func(subject string) *httptest.ResponseRecorder {
		r := httptest.NewRequest(http.MethodPost, "/bets", nil)
		if subject != "" {
			r = r.WithContext(auth.WithClaims(r.Context(), &auth.Claims{RegisteredClaims: jwt.RegisteredClaims{Subject: subject}}))
		}
		r.RemoteAddr = "10.0.0.9:1234"
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, r)
		return w
	}

	assert.Equal(t, http.StatusOK, send("alice").Code)
	assert.Equal(t, http.StatusOK, send("alice").Code)
	w := send("alice")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "10", w.Header().Get("Retry-After"))
	assert.Contains(t, w.Body.String(), `"error":"rate_limited"`)

	// Other subjects and anonymous callers have their own buckets.
	assert.Equal(t, http.StatusOK, send("bob").Code)
	assert.Equal(t, http.StatusOK, send("").Code)
}

func TestInstrument_UsesRoutePattern(t *testing.T) {
	m := metrics.New(prometheus.NewRegistry())
	r := chi.NewRouter()
	r.Use(Instrument(m))
	r.Patch("/admin/events/{id}/status", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
	})

	for _, id := range []string{"1", "2", "3"} {
		req := httptest.NewRequest(http.MethodPatch, "/admin/events/"+id+"/status", nil)
		r.ServeHTTP(httptest.NewRecorder(), req)
	}

	assert.Equal(t, 3.0, testutil.ToFloat64(m.HTTPRequests.WithLabelValues(http.MethodPatch, "/admin/events/{id}/status", "409")))
}

func noopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
