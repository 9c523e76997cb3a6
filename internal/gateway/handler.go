package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/tjsasakifln/PNCP-poc-sub007/internal/domain"
	"github.com/tjsasakifln/PNCP-poc-sub007/internal/engine"
	"go.uber.org/zap"
)

// StateService то, что хендлерам нужно от engine.Core
type StateService interface {
	Resolve(ctx context.Context, meta domain.SearchResponseMetadata, source string) (domain.StateView, error)
	FetchAndResolve(ctx context.Context, searchID string) (domain.StateView, error)
	SummarizeRefresh(searchID string, info domain.RefreshAvailableInfo) domain.DisplaySummary
	PendingRefresh(searchID string) (domain.RefreshNotice, bool)
	AcceptRefresh(ctx context.Context, searchID string) (domain.RefreshNotice, error)
	Forget(ctx context.Context, searchID string) error
}

type StateHandler struct {
	service StateService
	logger  *zap.Logger
}

func NewStateHandler(s StateService, logger *zap.Logger) *StateHandler {
	return &StateHandler{service: s, logger: logger.Named("state-handler")}
}

// Resolve резолвит присланные метаданные
// POST /v1/state/resolve
func (h *StateHandler) Resolve(w http.ResponseWriter, r *http.Request) {
	var meta domain.SearchResponseMetadata
	if err := json.NewDecoder(r.Body).Decode(&meta); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	view, err := h.service.Resolve(r.Context(), meta, engine.SourceHTTP)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// State берет поиск у бэкенда и отдает его состояние
// GET /v1/searches/{id}/state
func (h *StateHandler) State(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	view, err := h.service.FetchAndResolve(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// Summarize форматирует дельту обновления
// POST /v1/refresh/summarize
func (h *StateHandler) Summarize(w http.ResponseWriter, r *http.Request) {
	var req struct {
		SearchID string `json:"search_id"`
		domain.RefreshAvailableInfo
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	writeJSON(w, http.StatusOK, h.service.SummarizeRefresh(req.SearchID, req.RefreshAvailableInfo))
}

// PendingRefresh уведомление планировщика; 204, если обновлений нет
// GET /v1/searches/{id}/refresh
func (h *StateHandler) PendingRefresh(w http.ResponseWriter, r *http.Request) {
	n, ok := h.service.PendingRefresh(chi.URLParam(r, "id"))
	if !ok {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(w, http.StatusOK, n)
}

// AcceptRefresh пользователь применил обновление
// POST /v1/searches/{id}/refresh/accept
func (h *StateHandler) AcceptRefresh(w http.ResponseWriter, r *http.Request) {
	n, err := h.service.AcceptRefresh(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, n)
}

// Forget новый поиск заменил старый
// DELETE /v1/searches/{id}
func (h *StateHandler) Forget(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Forget(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// fail ошибки домена в HTTP-коды
func (h *StateHandler) fail(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, domain.ErrMissingResponseState):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrSearchNotFound), errors.Is(err, domain.ErrNoticeNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		writeError(w, http.StatusGatewayTimeout, "request timed out")
	default:
		h.logger.Error("request failed",
			zap.String("path", r.URL.Path),
			zap.String("trace_id", engine.TraceIDFromContext(r.Context())),
			zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}
