package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/jhigh13/podium-data/internal/api/respond"
)

// AuthorizationURL returns the provider consent URL for account
// linking. The interactive browser flow happens outside this service;
// the resulting code comes back through ExchangeCode.
// @Summary Get OAuth authorization URL
// @Tags auth
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /api/v1/auth/url [get]
func (h *Handler) AuthorizationURL(w http.ResponseWriter, r *http.Request) {
	state := uuid.NewString()
	respond.WriteJSONObject(w, http.StatusOK, map[string]interface{}{
		"url":   h.oauth.AuthorizationURL(state),
		"state": state,
	})
}

type exchangeRequest struct {
	AthleteID int64  `json:"athlete_id"`
	Code      string `json:"code"`
}

// ExchangeCode trades an authorization code for tokens and stores the
// resulting credential, replacing any prior one for the athlete.
// @Summary Exchange authorization code
// @Tags auth
// @Accept json
// @Produce json
// @Param request body exchangeRequest true "Exchange request"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]interface{}
// @Failure 502 {object} map[string]interface{}
// @Router /api/v1/auth/exchange [post]
func (h *Handler) ExchangeCode(w http.ResponseWriter, r *http.Request) {
	var req exchangeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Code == "" || req.AthleteID < 1 {
		respond.Error(w, http.StatusBadRequest, "athlete_id and code are required")
		return
	}

	pair, err := h.oauth.Exchange(r.Context(), req.Code)
	if err != nil {
		respond.Error(w, http.StatusBadGateway, "code exchange failed")
		return
	}

	cred := pair.Credential(req.AthleteID, time.Now())
	if err := h.creds.Replace(r.Context(), cred); err != nil {
		respond.Error(w, http.StatusInternalServerError, "failed to store credential")
		return
	}
	respond.WriteJSONObject(w, http.StatusOK, map[string]interface{}{
		"athlete_id": req.AthleteID,
		"expires_at": cred.ExpiresAt.UTC().Format(time.RFC3339),
		"scope":      cred.Scope,
	})
}
