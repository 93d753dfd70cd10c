package httpapi

import (
	"net/http"
)

// The job endpoints mirror what the scheduler runs on its own timers,
// for manual triggering and external schedulers. They share the
// services' own in-flight semantics: a sync that is already running
// absorbs nothing here, the services return immediately after the pull.

func (h *Handler) RunFixtureSyncJob(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.RunFixtureSyncJob")
	defer span.End()

	h.feedService.FetchNewFixtures(ctx)
	writeSuccess(ctx, w, http.StatusAccepted, map[string]string{"job": "fixture-sync", "status": "completed"})
}

func (h *Handler) RunScoreSyncJob(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.RunScoreSyncJob")
	defer span.End()

	h.feedService.ReconcileScores(ctx)
	writeSuccess(ctx, w, http.StatusAccepted, map[string]string{"job": "score-sync", "status": "completed"})
}

func (h *Handler) RunPredictionResetJob(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.RunPredictionResetJob")
	defer span.End()

	if err := h.predictionService.ResetAll(ctx); err != nil {
		h.logger.ErrorContext(ctx, "prediction reset job failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, map[string]string{"job": "prediction-reset", "status": "completed"})
}
