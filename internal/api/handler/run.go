package handler

import (
	"context"
	"net/http"

	"github.com/jhigh13/podium-data/internal/api/respond"
)

// TriggerRun starts a pipeline run out of schedule. Returns 409 when a
// run is already in progress; triggers are never queued.
// @Summary Trigger a pipeline run
// @Tags run
// @Produce json
// @Success 202 {object} map[string]interface{}
// @Failure 409 {object} map[string]interface{}
// @Router /api/v1/run [post]
func (h *Handler) TriggerRun(w http.ResponseWriter, r *http.Request) {
	if h.sched == nil {
		respond.Error(w, http.StatusServiceUnavailable, "no orchestrator attached")
		return
	}

	// Detached from the request context: the run outlives the HTTP
	// round trip.
	if !h.sched.TriggerAsync(context.Background()) {
		respond.Error(w, http.StatusConflict, "a run is already in progress")
		return
	}
	respond.WriteJSONObject(w, http.StatusAccepted, map[string]interface{}{"status": "started"})
}
