package handler

import (
	"net/http"
	"strings"

	"github.com/sideline/platform/internal/domain"
	"github.com/sideline/platform/internal/service"
)

// IdempotencyHeader carries the client's retry key for bet placement.
const IdempotencyHeader = "Idempotency-Key"

const maxIdempotencyKeyLen = 128

// BetHandler handles bet placement and history.
type BetHandler struct {
	svc *service.BettingService
}

// NewBetHandler creates a new BetHandler.
func NewBetHandler(svc *service.BettingService) *BetHandler {
	return &BetHandler{svc: svc}
}

// PlaceBet handles POST /bets. A retried request with the same
// Idempotency-Key returns the original bet with 200 instead of 201.
func (h *BetHandler) PlaceBet(w http.ResponseWriter, r *http.Request) {
	userID, err := playerIDFromContext(r)
	if err != nil {
		RespondError(w, err)
		return
	}

	key := strings.TrimSpace(r.Header.Get(IdempotencyHeader))
	if len(key) > maxIdempotencyKeyLen {
		RespondError(w, domain.ErrValidation("Idempotency-Key is too long"))
		return
	}

	var input service.PlaceBetInput
	if err := DecodeJSON(r, &input); err != nil {
		RespondBadBody(w)
		return
	}

	result, err := h.svc.PlaceBet(r.Context(), userID, key, input)
	if err != nil {
		RespondError(w, err)
		return
	}

	status := http.StatusCreated
	if result.Replayed {
		status = http.StatusOK
	}
	RespondJSON(w, status, result)
}

// MyBets handles GET /bets/me.
func (h *BetHandler) MyBets(w http.ResponseWriter, r *http.Request) {
	userID, err := playerIDFromContext(r)
	if err != nil {
		RespondError(w, err)
		return
	}

	bets, err := h.svc.ListMyBets(r.Context(), userID)
	if err != nil {
		RespondError(w, err)
		return
	}

	RespondJSON(w, http.StatusOK, bets)
}
