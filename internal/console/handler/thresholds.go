package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/tjsasakifln/PNCP-poc-sub007/internal/console/service"
	"github.com/tjsasakifln/PNCP-poc-sub007/internal/domain"
	"github.com/tjsasakifln/PNCP-poc-sub007/internal/infra/auth"
)

type ThresholdHandler struct {
	service *service.ThresholdService
}

func NewThresholdHandler(s *service.ThresholdService) *ThresholdHandler {
	return &ThresholdHandler{service: s}
}

// Get GET /v1/thresholds
func (h *ThresholdHandler) Get(w http.ResponseWriter, r *http.Request) {
	t, err := h.service.Get(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load thresholds")
		return
	}
	writeJSON(w, http.StatusOK, t)
}

// Update PUT /v1/thresholds
func (h *ThresholdHandler) Update(w http.ResponseWriter, r *http.Request) {
	var t domain.ThresholdSettings
	if err := json.NewDecoder(r.Body).Decode(&t); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if claims, ok := auth.ClaimsFromContext(r.Context()); ok {
		t.UpdatedBy = claims.UserID
	}

	if err := h.service.Update(r.Context(), t); err != nil {
		if errors.Is(err, domain.ErrInvalidThresholds) {
			writeError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
