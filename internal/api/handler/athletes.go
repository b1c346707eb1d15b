package handler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/jhigh13/podium-data/internal/api/respond"
	"github.com/jhigh13/podium-data/internal/baseline"
	"github.com/jhigh13/podium-data/internal/roster"
)

// ListAthletes returns the full roster.
// @Summary List athletes
// @Tags athletes
// @Produce json
// @Success 200 {array} roster.Athlete
// @Router /api/v1/athletes [get]
func (h *Handler) ListAthletes(w http.ResponseWriter, r *http.Request) {
	athletes, err := roster.List(r.Context(), h.pool)
	if err != nil {
		respond.Error(w, http.StatusInternalServerError, "failed to list athletes")
		return
	}
	respond.WriteJSONObject(w, http.StatusOK, athletes)
}

// GetAthlete returns one athlete by ID.
// @Summary Get athlete
// @Tags athletes
// @Produce json
// @Param athleteID path int true "Athlete ID"
// @Success 200 {object} roster.Athlete
// @Failure 404 {object} map[string]interface{}
// @Router /api/v1/athletes/{athleteID} [get]
func (h *Handler) GetAthlete(w http.ResponseWriter, r *http.Request) {
	id, ok := h.athleteID(w, r)
	if !ok {
		return
	}
	ath, err := roster.GetByID(r.Context(), h.pool, id)
	if err != nil {
		respond.Error(w, http.StatusInternalServerError, "failed to load athlete")
		return
	}
	if ath == nil {
		respond.Error(w, http.StatusNotFound, "athlete not found")
		return
	}
	respond.WriteJSONObject(w, http.StatusOK, ath)
}

// GetBaselines returns all stored baselines for an athlete.
// @Summary Get athlete baselines
// @Tags baselines
// @Produce json
// @Param athleteID path int true "Athlete ID"
// @Success 200 {object} map[string]interface{}
// @Router /api/v1/athletes/{athleteID}/baselines [get]
func (h *Handler) GetBaselines(w http.ResponseWriter, r *http.Request) {
	id, ok := h.athleteID(w, r)
	if !ok {
		return
	}
	baselines, err := baseline.ForAthlete(r.Context(), h.pool, id)
	if err != nil {
		respond.Error(w, http.StatusInternalServerError, "failed to load baselines")
		return
	}
	respond.WriteJSONObject(w, http.StatusOK, baselines)
}

func (h *Handler) athleteID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "athleteID"), 10, 64)
	if err != nil || id < 1 {
		respond.Error(w, http.StatusBadRequest, "invalid athlete ID")
		return 0, false
	}
	return id, true
}
