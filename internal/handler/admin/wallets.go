package admin

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/sideline/platform/internal/domain"
	"github.com/sideline/platform/internal/handler"
	"github.com/sideline/platform/internal/service"
)

// WalletsHandler handles operator wallet actions.
type WalletsHandler struct {
	svc *service.WalletService
}

// NewWalletsHandler creates a new WalletsHandler.
func NewWalletsHandler(svc *service.WalletService) *WalletsHandler {
	return &WalletsHandler{svc: svc}
}

// Reset handles POST /admin/wallets/reset. The cooldown still applies.
func (h *WalletsHandler) Reset(w http.ResponseWriter, r *http.Request) {
	var input struct {
		UserID string `json:"user_id"`
	}
	if err := handler.DecodeJSON(r, &input); err != nil {
		handler.RespondBadBody(w)
		return
	}
	userID, err := uuid.Parse(input.UserID)
	if err != nil {
		handler.RespondError(w, domain.ErrValidation("user_id must be a uuid"))
		return
	}

	result, err := h.svc.Reset(r.Context(), userID)
	if err != nil {
		handler.RespondError(w, err)
		return
	}
	handler.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"ok":                true,
		"balance_cents":     result.BalanceCents,
		"last_reset_at":     result.LastResetAt,
		"resets_used_month": result.ResetsUsedMonth,
	})
}

// Audit handles GET /admin/wallets/{userID}/audit.
func (h *WalletsHandler) Audit(w http.ResponseWriter, r *http.Request) {
	userID, err := uuid.Parse(chi.URLParam(r, "userID"))
	if err != nil {
		handler.RespondError(w, domain.ErrValidation("invalid user id"))
		return
	}

	result, err := h.svc.Audit(r.Context(), userID)
	if err != nil {
		handler.RespondError(w, err)
		return
	}
	handler.RespondJSON(w, http.StatusOK, result)
}
