package handler

import (
	"net/http"

	"github.com/sideline/platform/internal/service"
)

// OddsHandler serves the public odds board and leaderboard.
type OddsHandler struct {
	odds        *service.OddsService
	leaderboard *service.LeaderboardService
}

// NewOddsHandler creates a new OddsHandler.
func NewOddsHandler(odds *service.OddsService, leaderboard *service.LeaderboardService) *OddsHandler {
	return &OddsHandler{odds: odds, leaderboard: leaderboard}
}

// Board handles GET /odds.
func (h *OddsHandler) Board(w http.ResponseWriter, r *http.Request) {
	board, err := h.odds.Board(r.Context())
	if err != nil {
		RespondError(w, err)
		return
	}
	RespondJSON(w, http.StatusOK, board)
}

// Leaderboard handles GET /leaderboard.
func (h *OddsHandler) Leaderboard(w http.ResponseWriter, r *http.Request) {
	rows, err := h.leaderboard.Top(r.Context())
	if err != nil {
		RespondError(w, err)
		return
	}
	RespondJSON(w, http.StatusOK, rows)
}
