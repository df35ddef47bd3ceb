package handler

import (
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/sideline/platform/internal/auth"
	"github.com/sideline/platform/internal/domain"
	"github.com/sideline/platform/internal/service"
)

// WalletHandler handles the player's wallet endpoints.
type WalletHandler struct {
	svc *service.WalletService
}

// NewWalletHandler creates a new WalletHandler.
func NewWalletHandler(svc *service.WalletService) *WalletHandler {
	return &WalletHandler{svc: svc}
}

// Get handles GET /wallet.
func (h *WalletHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, err := playerIDFromContext(r)
	if err != nil {
		RespondError(w, err)
		return
	}

	wallet, err := h.svc.Get(r.Context(), userID)
	if err != nil {
		RespondError(w, err)
		return
	}
	RespondJSON(w, http.StatusOK, wallet)
}

// Ledger handles GET /wallet/ledger?cursor=&limit= with cursor-based pagination.
func (h *WalletHandler) Ledger(w http.ResponseWriter, r *http.Request) {
	userID, err := playerIDFromContext(r)
	if err != nil {
		RespondError(w, err)
		return
	}

	limit := 0
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n <= 0 {
			RespondError(w, domain.ErrValidation("limit must be a positive integer"))
			return
		}
		limit = n
	}

	var cursor *int64
	if s := r.URL.Query().Get("cursor"); s != "" {
		c, err := strconv.ParseInt(s, 10, 64)
		if err != nil || c <= 0 {
			RespondError(w, domain.ErrValidation("invalid cursor"))
			return
		}
		cursor = &c
	}

	page, err := h.svc.Ledger(r.Context(), userID, cursor, limit)
	if err != nil {
		RespondError(w, err)
		return
	}
	RespondJSON(w, http.StatusOK, page)
}

// Reset handles POST /wallet/reset.
func (h *WalletHandler) Reset(w http.ResponseWriter, r *http.Request) {
	userID, err := playerIDFromContext(r)
	if err != nil {
		RespondError(w, err)
		return
	}

	result, err := h.svc.Reset(r.Context(), userID)
	if err != nil {
		RespondError(w, err)
		return
	}
	RespondJSON(w, http.StatusOK, resetResponse{OK: true, ResetResult: result})
}

type resetResponse struct {
	OK bool `json:"ok"`
	*service.ResetResult
}

// playerIDFromContext extracts and validates the player UUID from auth context.
func playerIDFromContext(r *http.Request) (uuid.UUID, error) {
	sub := auth.SubjectFromContext(r.Context())
	if sub == "" {
		return uuid.Nil, domain.ErrUnauthenticated("no subject in context")
	}
	id, err := uuid.Parse(sub)
	if err != nil {
		return uuid.Nil, domain.ErrUnauthenticated("invalid subject")
	}
	return id, nil
}
