package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/jhigh13/podium-data/internal/alerts"
	"github.com/jhigh13/podium-data/internal/api/respond"
)

// GetAlerts returns an athlete's recent alerts. Cached with ETag
// support; pass ?days=N to change the lookback (default 30).
// @Summary List recent alerts
// @Tags alerts
// @Produce json
// @Param athleteID path int true "Athlete ID"
// @Param days query int false "Lookback in days" default(30)
// @Success 200 {array} alerts.Alert
// @Router /api/v1/athletes/{athleteID}/alerts [get]
func (h *Handler) GetAlerts(w http.ResponseWriter, r *http.Request) {
	id, ok := h.athleteID(w, r)
	if !ok {
		return
	}
	days := 30
	if raw := r.URL.Query().Get("days"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > 365 {
			respond.Error(w, http.StatusBadRequest, "days must be between 1 and 365")
			return
		}
		days = n
	}

	key := fmt.Sprintf("alerts:%d:%d", id, days)
	if data, etag, hit := h.cache.Get(key); hit {
		w.Header().Set("X-Cache", "HIT")
		if r.Header.Get("If-None-Match") == etag {
			w.WriteHeader(http.StatusNotModified)
			return
		}
		w.Header().Set("ETag", etag)
		respond.WriteJSONBytes(w, http.StatusOK, data)
		return
	}

	since := time.Now().AddDate(0, 0, -days)
	list, err := alerts.ListRecent(r.Context(), h.pool, id, since)
	if err != nil {
		respond.Error(w, http.StatusInternalServerError, "failed to load alerts")
		return
	}
	if list == nil {
		list = []alerts.Alert{}
	}

	data, err := json.Marshal(list)
	if err != nil {
		respond.Error(w, http.StatusInternalServerError, "failed to encode alerts")
		return
	}
	etag := h.cache.Set(key, data)
	w.Header().Set("X-Cache", "MISS")
	w.Header().Set("ETag", etag)
	respond.WriteJSONBytes(w, http.StatusOK, data)
}

// AcknowledgeAlert marks an alert as seen by the coach.
// @Summary Acknowledge alert
// @Tags alerts
// @Produce json
// @Param alertID path int true "Alert ID"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Router /api/v1/alerts/{alertID}/ack [post]
func (h *Handler) AcknowledgeAlert(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "alertID"), 10, 64)
	if err != nil || id < 1 {
		respond.Error(w, http.StatusBadRequest, "invalid alert ID")
		return
	}

	found, err := alerts.Acknowledge(r.Context(), h.pool, id)
	if err != nil {
		respond.Error(w, http.StatusInternalServerError, "failed to acknowledge alert")
		return
	}
	if !found {
		respond.Error(w, http.StatusNotFound, "alert not found")
		return
	}
	respond.WriteJSONObject(w, http.StatusOK, map[string]interface{}{"acknowledged": true})
}
