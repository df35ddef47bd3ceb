package handler

import (
	"log/slog"
	"net/http"

	"github.com/sideline/platform/internal/service"
	"github.com/sideline/platform/internal/settlement"
)

// CronHandler exposes the recurring jobs to an external scheduler. Routes are
// guarded by the shared bearer secret.
type CronHandler struct {
	settler *settlement.Engine
	ingest  *service.IngestService
	logger  *slog.Logger
}

// NewCronHandler creates a new CronHandler.
func NewCronHandler(settler *settlement.Engine, ingest *service.IngestService, logger *slog.Logger) *CronHandler {
	return &CronHandler{settler: settler, ingest: ingest, logger: logger}
}

// Settle handles POST /settle/run.
func (h *CronHandler) Settle(w http.ResponseWriter, r *http.Request) {
	result, err := h.settler.Run(r.Context())
	if err != nil {
		RespondError(w, err)
		return
	}
	h.logger.Info("settlement triggered", "settled", result.Settled, "issues", len(result.Issues))
	RespondJSON(w, http.StatusOK, result)
}

type pullResponse struct {
	OK bool `json:"ok"`
	*service.SyncResult
}

// PullOdds handles POST /odds/pull.
func (h *CronHandler) PullOdds(w http.ResponseWriter, r *http.Request) {
	result, err := h.ingest.SyncOdds(r.Context())
	if err != nil {
		RespondError(w, err)
		return
	}
	RespondJSON(w, http.StatusOK, pullResponse{OK: true, SyncResult: result})
}

type scoresResponse struct {
	OK bool `json:"ok"`
	*service.ScoresResult
}

// PullScores handles POST /scores/pull.
func (h *CronHandler) PullScores(w http.ResponseWriter, r *http.Request) {
	result, err := h.ingest.SyncScores(r.Context())
	if err != nil {
		RespondError(w, err)
		return
	}
	RespondJSON(w, http.StatusOK, scoresResponse{OK: true, ScoresResult: result})
}
