package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sony/gobreaker"
	"github.com/tjsasakifln/PNCP-poc-sub007/internal/connectors"
	"github.com/tjsasakifln/PNCP-poc-sub007/internal/domain"
	"github.com/tjsasakifln/PNCP-poc-sub007/internal/journal"
	"github.com/tjsasakifln/PNCP-poc-sub007/internal/quality"
	"github.com/tjsasakifln/PNCP-poc-sub007/internal/resilience"
	"go.uber.org/zap"
)

// RulesProvider правила на текущих (возможно, обновленных в рантайме) границах
type RulesProvider interface {
	Rules() resilience.Rules
}

// SearchTracker подписка поиска на проверку обновлений
type SearchTracker interface {
	Track(ctx context.Context, searchID string) error
	Untrack(ctx context.Context, searchID string) error
}

// NoticeStore уведомления об обновлениях
type NoticeStore interface {
	Get(searchID string) (domain.RefreshNotice, bool)
	Accept(ctx context.Context, searchID string) (domain.RefreshNotice, error)
	Drop(ctx context.Context, searchID string) error
}

// Источник резолюции для журнала и метрик
const (
	SourceHTTP   = "http"
	SourceGRPC   = "grpc"
	SourceFetch  = "fetch"
	SourcePoller = "poller"
)

type Core struct {
	rules    RulesProvider
	analyzer *quality.Analyzer
	journal  journal.Logger
	fetcher  SearchFetcher
	tracker  SearchTracker
	notices  NoticeStore
	clock    resilience.Clock
	metrics  *Metrics
	logger   *zap.Logger
}

type CoreDeps struct {
	Rules    RulesProvider
	Analyzer *quality.Analyzer
	Journal  journal.Logger
	Fetcher  SearchFetcher // nil: только резолюция присланных метаданных
	Tracker  SearchTracker
	Notices  NoticeStore
	Clock    resilience.Clock
	Metrics  *Metrics
}

func NewCore(d CoreDeps, logger *zap.Logger) *Core {
	if d.Clock == nil {
		d.Clock = resilience.SystemClock{}
	}
	if d.Metrics == nil {
		d.Metrics = NewMetrics(nil)
	}
	if d.Analyzer == nil {
		d.Analyzer = quality.NewAnalyzer(d.Metrics.QualityIssues, logger)
	}
	return &Core{
		rules:    d.Rules,
		analyzer: d.Analyzer,
		journal:  d.Journal,
		fetcher:  d.Fetcher,
		tracker:  d.Tracker,
		notices:  d.Notices,
		clock:    d.Clock,
		metrics:  d.Metrics,
		logger:   logger.Named("core"),
	}
}

// Resolve превращает метаданные ответа в полное представление состояния
func (c *Core) Resolve(ctx context.Context, meta domain.SearchResponseMetadata, source string) (domain.StateView, error) {
	start := time.Now()

	// 1. Единственное обязательное поле
	if err := meta.Validate(); err != nil {
		return domain.StateView{}, fmt.Errorf("core: %w", err)
	}

	// 2. Расхождения в данных не блокируют показ, только логируются
	issues := c.analyzer.Inspect(meta, nil)

	// 3. Чистые правила на одном "сейчас" для всего представления
	rules := c.rules.Rules()
	view := rules.View(meta, c.clock.Now())
	view.QualityIssues = quality.Kinds(issues)

	if view.State.CoverageClamped {
		c.logger.Warn("coverage_pct out of range, clamped",
			zap.String("search_id", meta.SearchID),
			zap.Float64p("coverage_pct", meta.CoveragePct),
		)
	}

	// 4. Метрики и журнал
	tier := string(view.State.Tier)
	c.metrics.Resolutions.WithLabelValues(tier, string(view.State.BannerVariant)).Inc()
	c.metrics.RequestDuration.WithLabelValues(source, tier).Observe(time.Since(start).Seconds())

	if c.journal != nil {
		c.journal.Log(journal.Entry{
			ID:            uuid.New().String(),
			TraceID:       TraceIDFromContext(ctx),
			SearchID:      meta.SearchID,
			Source:        source,
			ResponseState: string(meta.ResponseState),
			Tier:          tier,
			Banner:        string(view.State.BannerVariant),
			CoveragePct:   view.State.CoveragePct,
			CacheStatus:   string(view.State.CacheStatus),
			Issues:        view.QualityIssues,
			ResolvedAt:    view.ResolvedAt,
		})
	}
	return view, nil
}

// FetchAndResolve берет поиск у бэкенда и резолвит его. Отказ бэкенда не ошибка:
// пользователь видит баннер "indisponível" с подсказкой. Ошибкой остается только "не найден".
func (c *Core) FetchAndResolve(ctx context.Context, searchID string) (domain.StateView, error) {
	if c.fetcher == nil {
		return domain.StateView{}, fmt.Errorf("core: backend fetcher is not configured")
	}

	// 1. Поход в бэкенд через обертку надежности
	env, err := c.fetcher.FetchSearch(ctx, searchID)
	if err != nil {
		if errors.Is(err, domain.ErrSearchNotFound) {
			return domain.StateView{}, err
		}
		if ctx.Err() != nil {
			return domain.StateView{}, ctx.Err()
		}
		reason := failureReason(err)
		c.logger.Warn("backend fetch failed, rendering empty_failure",
			zap.String("search_id", searchID),
			zap.String("reason", string(reason)),
			zap.Error(err),
		)
		rules := c.rules.Rules()
		meta := domain.SearchResponseMetadata{
			SearchID:            searchID,
			ResponseState:       domain.ResponseEmptyFailure,
			DegradationGuidance: rules.Locale().FailureGuidance(reason),
		}
		return c.Resolve(ctx, meta, SourceFetch)
	}

	// 2. Резолюция
	view, err := c.Resolve(ctx, env.SearchResponseMetadata, SourceFetch)
	if err != nil {
		return domain.StateView{}, err
	}

	// 3. Сводка обновления: из ответа или из доски уведомлений
	if env.RefreshAvailable != nil {
		summary := c.SummarizeRefresh(searchID, *env.RefreshAvailable)
		view.Refresh = &summary
	} else if c.notices != nil {
		if n, ok := c.notices.Get(searchID); ok {
			view.Refresh = &n.Summary
		}
	}

	// 4. Поиск показан пользователю: планировщик следит за обновлениями
	if c.tracker != nil {
		if err := c.tracker.Track(ctx, searchID); err != nil {
			c.logger.Warn("track failed", zap.String("search_id", searchID), zap.Error(err))
		}
	}
	return view, nil
}

// SummarizeRefresh сводка для баннера "novos resultados disponíveis"
func (c *Core) SummarizeRefresh(searchID string, info domain.RefreshAvailableInfo) domain.DisplaySummary {
	c.analyzer.Inspect(domain.SearchResponseMetadata{SearchID: searchID}, &info)
	return c.rules.Rules().SummarizeRefresh(info)
}

// PendingRefresh уведомление, найденное планировщиком
func (c *Core) PendingRefresh(searchID string) (domain.RefreshNotice, bool) {
	if c.notices == nil {
		return domain.RefreshNotice{}, false
	}
	return c.notices.Get(searchID)
}

// AcceptRefresh пользователь применил обновление
func (c *Core) AcceptRefresh(ctx context.Context, searchID string) (domain.RefreshNotice, error) {
	if c.notices == nil {
		return domain.RefreshNotice{}, domain.ErrNoticeNotFound
	}
	return c.notices.Accept(ctx, searchID)
}

// Forget новый полный поиск заменил старый: уведомление и опрос больше не нужны
func (c *Core) Forget(ctx context.Context, searchID string) error {
	if c.notices != nil {
		if err := c.notices.Drop(ctx, searchID); err != nil {
			return err
		}
	}
	if c.tracker != nil {
		return c.tracker.Untrack(ctx, searchID)
	}
	return nil
}

func failureReason(err error) resilience.FailureReason {
	var tErr *connectors.ThrottleError
	switch {
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		return resilience.FailureCircuitOpen
	case errors.As(err, &tErr):
		return resilience.FailureThrottled
	case errors.Is(err, context.DeadlineExceeded):
		return resilience.FailureTimeout
	default:
		return resilience.FailureUpstream
	}
}
