package handler

import (
	"encoding/json"
	"net/http"

	"github.com/tjsasakifln/PNCP-poc-sub007/internal/console/service"
	"github.com/tjsasakifln/PNCP-poc-sub007/internal/domain"
)

type JournalHandler struct {
	service *service.JournalService
}

func NewJournalHandler(s *service.JournalService) *JournalHandler {
	return &JournalHandler{service: s}
}

// GetEntries последние резолюции
// GET /v1/journal?search_id=...&tier=...
func (h *JournalHandler) GetEntries(w http.ResponseWriter, r *http.Request) {
	f := domain.JournalFilter{
		SearchID: r.URL.Query().Get("search_id"),
		Tier:     r.URL.Query().Get("tier"),
	}

	entries, err := h.service.Fetch(r.Context(), f)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to fetch journal")
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

// GetTierStats GET /v1/dashboard/tiers
func (h *JournalHandler) GetTierStats(w http.ResponseWriter, r *http.Request) {
	st, err := h.service.TierStats(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to fetch stats")
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}
