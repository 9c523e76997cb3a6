package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/tjsasakifln/PNCP-poc-sub007/internal/console/handler"
	"github.com/tjsasakifln/PNCP-poc-sub007/internal/domain"
	"github.com/tjsasakifln/PNCP-poc-sub007/internal/engine"
	"github.com/tjsasakifln/PNCP-poc-sub007/internal/infra/auth"
	"go.uber.org/zap"
)

type ConsoleServer struct {
	router *chi.Mux
	logger *zap.Logger

	// Проверка токенов (RS256); токены выпускает внешний сервис
	authValidator auth.TokenValidator

	thresholdHandler *handler.ThresholdHandler // /v1/thresholds
	journalHandler   *handler.JournalHandler   // /v1/journal, /v1/dashboard
}

// NewConsoleServer инициализирует сервер админки со всеми зависимостями
func NewConsoleServer(
	logger *zap.Logger,
	validator auth.TokenValidator,
	thresholdH *handler.ThresholdHandler,
	journalH *handler.JournalHandler,
) *ConsoleServer {
	s := &ConsoleServer{
		router:           chi.NewRouter(),
		logger:           logger.Named("console-api"),
		authValidator:    validator,
		thresholdHandler: thresholdH,
		journalHandler:   journalH,
	}

	s.routes()
	return s
}

func (s *ConsoleServer) routes() {
	r := s.router

	// --- 1. Глобальные инфраструктурные Middleware ---
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(engine.TracingMiddleware)
	r.Use(middleware.Recoverer)

	// --- 2. Публичные роуты ---
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	// --- 3. Защищенный периметр (RS256) ---
	r.Group(func(r chi.Router) {
		r.Use(auth.NewMiddleware(s.authValidator, s.logger))

		// Чтение
		r.Group(func(r chi.Router) {
			r.Use(auth.RequireScope(domain.ScopeStateRead))
			r.Get("/v1/thresholds", s.thresholdHandler.Get)
			r.Get("/v1/journal", s.journalHandler.GetEntries)
			r.Get("/v1/dashboard/tiers", s.journalHandler.GetTierStats)
		})

		// Изменение границ движка
		r.With(auth.RequireScope(domain.ScopeThresholds)).Put("/v1/thresholds", s.thresholdHandler.Update)
	})
}

// ServeHTTP позволяет использовать ConsoleServer как стандартный http.Handler
func (s *ConsoleServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}
