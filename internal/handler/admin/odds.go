package admin

import (
	"net/http"

	"github.com/sideline/platform/internal/domain"
	"github.com/sideline/platform/internal/handler"
	"github.com/sideline/platform/internal/service"
)

// OddsHandler handles manual odds overrides.
type OddsHandler struct {
	svc *service.OddsService
}

// NewOddsHandler creates a new OddsHandler.
func NewOddsHandler(svc *service.OddsService) *OddsHandler {
	return &OddsHandler{svc: svc}
}

var okBody = map[string]bool{"ok": true}

// Override handles POST /admin/odds/override.
func (h *OddsHandler) Override(w http.ResponseWriter, r *http.Request) {
	var input service.OverrideInput
	if err := handler.DecodeJSON(r, &input); err != nil {
		handler.RespondBadBody(w)
		return
	}

	if err := h.svc.Override(r.Context(), input); err != nil {
		handler.RespondError(w, err)
		return
	}
	handler.RespondJSON(w, http.StatusOK, okBody)
}

// ClearOverride handles DELETE /admin/odds/override.
func (h *OddsHandler) ClearOverride(w http.ResponseWriter, r *http.Request) {
	var input struct {
		EventID int64         `json:"event_id"`
		Market  domain.Market `json:"market"`
	}
	if err := handler.DecodeJSON(r, &input); err != nil {
		handler.RespondBadBody(w)
		return
	}
	if input.EventID <= 0 || !input.Market.Valid() {
		handler.RespondError(w, domain.ErrValidation("event_id and a valid market are required"))
		return
	}

	if err := h.svc.ClearOverride(r.Context(), input.EventID, input.Market); err != nil {
		handler.RespondError(w, err)
		return
	}
	handler.RespondJSON(w, http.StatusOK, okBody)
}
