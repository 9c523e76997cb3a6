package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/avast/retry-go/v5"
	"github.com/sony/gobreaker"
	"github.com/tjsasakifln/PNCP-poc-sub007/internal/connectors"
	"github.com/tjsasakifln/PNCP-poc-sub007/internal/domain"
	"github.com/tjsasakifln/PNCP-poc-sub007/internal/infra"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// SearchFetcher источник конвертов поиска (HTTP-клиент бэкенда или фикстуры)
type SearchFetcher interface {
	FetchSearch(ctx context.Context, searchID string) (*domain.SearchEnvelope, error)
}

type ReliabilitySettings struct {
	Name           string
	MaxRequests    uint32
	Interval       time.Duration
	Timeout        time.Duration // через сколько CB попробует "закрыться"
	Failures       uint32        // подряд, после которых CB открывается
	RateLimit      float64
	RateBurst      int
	MaxAttempts    uint
	AttemptTimeout time.Duration
}

func SettingsFromConfig(cfg infra.BackendConfig) ReliabilitySettings {
	return ReliabilitySettings{
		Name:           "pncp-backend",
		MaxRequests:    cfg.CBMaxRequests,
		Interval:       cfg.CBInterval,
		Timeout:        cfg.CBTimeout,
		Failures:       cfg.CBFailures,
		RateLimit:      cfg.RateLimit,
		RateBurst:      cfg.RateBurst,
		MaxAttempts:    cfg.MaxAttempts,
		AttemptTimeout: cfg.Timeout,
	}
}

// ReliabilityWrapper Rate Limiter -> Circuit Breaker -> Retry (Retry-After aware) -> таймаут попытки
type ReliabilityWrapper struct {
	next     SearchFetcher
	cb       *gobreaker.CircuitBreaker
	limiter  *rate.Limiter
	settings ReliabilitySettings
	metrics  *Metrics
	logger   *zap.Logger
}

func NewReliabilityWrapper(next SearchFetcher, s ReliabilitySettings, metrics *Metrics, logger *zap.Logger) *ReliabilityWrapper {
	if s.MaxAttempts == 0 {
		s.MaxAttempts = 3
	}
	if s.AttemptTimeout <= 0 {
		s.AttemptTimeout = 10 * time.Second
	}
	if s.Failures == 0 {
		s.Failures = 5
	}
	if metrics == nil {
		metrics = NewMetrics(nil)
	}
	logger = logger.With(zap.String("mod", "reliability"))

	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        s.Name,
		MaxRequests: s.MaxRequests,
		Interval:    s.Interval,
		Timeout:     s.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= s.Failures
		},
		// "Поиск не найден" это ответ бэкенда, а не его отказ
		IsSuccessful: func(err error) bool {
			return err == nil || connectors.IsPermanent(err)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			metrics.CircuitBreakerState.WithLabelValues(name).Set(float64(to))
			logger.Warn("circuit breaker state changed",
				zap.String("name", name), zap.Stringer("from", from), zap.Stringer("to", to))
		},
	})
	metrics.CircuitBreakerState.WithLabelValues(s.Name).Set(float64(gobreaker.StateClosed))

	limit := rate.Inf
	if s.RateLimit > 0 {
		limit = rate.Limit(s.RateLimit)
	}
	burst := s.RateBurst
	if burst <= 0 {
		burst = 1
	}

	return &ReliabilityWrapper{
		next:     next,
		cb:       cb,
		limiter:  rate.NewLimiter(limit, burst),
		settings: s,
		metrics:  metrics,
		logger:   logger,
	}
}

func (w *ReliabilityWrapper) FetchSearch(ctx context.Context, searchID string) (*domain.SearchEnvelope, error) {
	// 1. Rate Limiter
	if err := w.limiter.Wait(ctx); err != nil {
		w.metrics.ErrorTotal.WithLabelValues("rate_limit").Inc()
		return nil, fmt.Errorf("reliability: rate limit: %w", err)
	}

	// 2. Circuit Breaker вокруг всей серии повторов
	res, err := w.cb.Execute(func() (interface{}, error) {
		var env *domain.SearchEnvelope

		r := retry.New(
			retry.Context(ctx),
			retry.Attempts(w.settings.MaxAttempts),
			retry.LastErrorOnly(true),
			retry.DelayType(func(n uint, err error, config retry.DelayContext) time.Duration {
				// Бэкенд сам сказал, сколько ждать (Retry-After)
				var tErr *connectors.ThrottleError
				if errors.As(err, &tErr) {
					return tErr.RetryAfter
				}
				// Сетевой лаг, 500-ка: экспоненциальный бэкофф
				return retry.BackOffDelay(n, err, config)
			}),
		)

		retryErr := r.Do(func() error {
			// 3. Таймаут на одну попытку
			tCtx, cancel := context.WithTimeout(ctx, w.settings.AttemptTimeout)
			defer cancel()

			var callErr error
			env, callErr = w.next.FetchSearch(tCtx, searchID)
			if callErr != nil && connectors.IsPermanent(callErr) {
				return retry.Unrecoverable(callErr)
			}
			return callErr
		})
		return env, retryErr
	})
	if err != nil {
		w.metrics.ErrorTotal.WithLabelValues(errorType(err)).Inc()
		return nil, err
	}
	return res.(*domain.SearchEnvelope), nil
}

// State текущее состояние предохранителя (для /health)
func (w *ReliabilityWrapper) State() gobreaker.State {
	return w.cb.State()
}

func errorType(err error) string {
	var tErr *connectors.ThrottleError
	switch {
	case errors.Is(err, domain.ErrSearchNotFound):
		return "not_found"
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		return "circuit_open"
	case errors.As(err, &tErr):
		return "throttled"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	default:
		return "upstream"
	}
}
