package gateway

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sony/gobreaker"
	"github.com/tjsasakifln/PNCP-poc-sub007/internal/domain"
	"github.com/tjsasakifln/PNCP-poc-sub007/internal/engine"
	"github.com/tjsasakifln/PNCP-poc-sub007/internal/infra/auth"
	"go.uber.org/zap"
)

// BreakerState состояние предохранителя бэкенда для /health
type BreakerState interface {
	State() gobreaker.State
}

type Options struct {
	Validator   auth.TokenValidator
	Breaker     BreakerState        // nil: бэкенд не подключен
	Gatherer    prometheus.Gatherer // nil: /metrics не публикуется
	MetricsPath string
}

// Server HTTP API состояний для фронтенда
type Server struct {
	router  *chi.Mux
	handler *StateHandler
	opts    Options
	logger  *zap.Logger
}

func NewServer(service StateService, opts Options, logger *zap.Logger) *Server {
	if opts.MetricsPath == "" {
		opts.MetricsPath = "/metrics"
	}
	s := &Server{
		router:  chi.NewRouter(),
		handler: NewStateHandler(service, logger),
		opts:    opts,
		logger:  logger.Named("gateway-api"),
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	r := s.router

	// --- 1. Глобальные Middleware ---
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(engine.TracingMiddleware)
	r.Use(accessLog(s.logger))
	r.Use(middleware.Recoverer)

	// --- 2. Публичные роуты ---
	r.Get("/health", s.health)
	if s.opts.Gatherer != nil {
		r.Handle(s.opts.MetricsPath, promhttp.HandlerFor(s.opts.Gatherer, promhttp.HandlerOpts{}))
	}

	// --- 3. Защищенный периметр (RS256) ---
	r.Group(func(r chi.Router) {
		r.Use(auth.NewMiddleware(s.opts.Validator, s.logger))
		r.Use(auth.RequireScope(domain.ScopeStateRead))

		r.Post("/v1/state/resolve", s.handler.Resolve)
		r.Post("/v1/refresh/summarize", s.handler.Summarize)

		r.Route("/v1/searches/{id}", func(r chi.Router) {
			r.Delete("/", s.handler.Forget)
			r.Get("/state", s.handler.State)
			r.Get("/refresh", s.handler.PendingRefresh)
			r.Post("/refresh/accept", s.handler.AcceptRefresh)
		})
	})
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	resp := map[string]string{"status": "ok"}
	if s.opts.Breaker != nil {
		state := s.opts.Breaker.State()
		resp["backend_circuit"] = state.String()
		if state == gobreaker.StateOpen {
			// Шлюз жив и отдает unavailable-баннеры, но бэкенд недоступен
			resp["status"] = "degraded"
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// accessLog структурный лог запросов через zap
func accessLog(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			logger.Debug("http request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("duration", time.Since(start)),
				zap.String("trace_id", engine.TraceIDFromContext(r.Context())),
			)
		})
	}
}
