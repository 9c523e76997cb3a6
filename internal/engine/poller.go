package engine

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/tjsasakifln/PNCP-poc-sub007/internal/domain"
	"github.com/tjsasakifln/PNCP-poc-sub007/internal/infra"
	"github.com/tjsasakifln/PNCP-poc-sub007/internal/resilience"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// TrackedSource что опрашивать
type TrackedSource interface {
	Snapshot() []string
	Untrack(ctx context.Context, searchID string) error
}

// NoticeSink куда складывать найденные обновления
type NoticeSink interface {
	Get(searchID string) (domain.RefreshNotice, bool)
	Put(ctx context.Context, n domain.RefreshNotice) error
}

type PollerConfig struct {
	// Interval как часто проверять отслеживаемые поиски. Default: 5 минут.
	Interval time.Duration
	// Concurrency сколько поисков опрашивается одновременно. Default: 4.
	Concurrency int
}

func (c *PollerConfig) defaults() {
	if c.Interval <= 0 {
		c.Interval = 5 * time.Minute
	}
	if c.Concurrency <= 0 {
		c.Concurrency = 4
	}
}

// RefreshPoller периодически перечитывает отслеживаемые поиски у бэкенда и,
// если бэкенд сообщил refresh_available, публикует уведомление с готовой сводкой.
// Дельту считает бэкенд; здесь только планирование и форматирование.
type RefreshPoller struct {
	tracked TrackedSource
	fetcher SearchFetcher
	notices NoticeSink
	rules   RulesProvider
	clock   resilience.Clock
	rdb     *redis.Client // nil: без распределенной блокировки тика
	config  PollerConfig
	metrics *Metrics
	logger  *zap.Logger
}

func NewRefreshPoller(
	tracked TrackedSource,
	fetcher SearchFetcher,
	notices NoticeSink,
	rules RulesProvider,
	clock resilience.Clock,
	rdb *redis.Client,
	cfg PollerConfig,
	metrics *Metrics,
	logger *zap.Logger,
) *RefreshPoller {
	cfg.defaults()
	if metrics == nil {
		metrics = NewMetrics(nil)
	}
	if clock == nil {
		clock = resilience.SystemClock{}
	}
	return &RefreshPoller{
		tracked: tracked,
		fetcher: fetcher,
		notices: notices,
		rules:   rules,
		clock:   clock,
		rdb:     rdb,
		config:  cfg,
		metrics: metrics,
		logger:  logger.With(zap.String("mod", "poller")),
	}
}

// Run опрашивает по тикеру до отмены контекста. Первый проход сразу при старте.
func (p *RefreshPoller) Run(ctx context.Context) {
	ticker := time.NewTicker(p.config.Interval)
	defer ticker.Stop()

	p.tick(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.tick(ctx)
		}
	}
}

func (p *RefreshPoller) tick(ctx context.Context) {
	// Несколько инстансов планировщика: тик выполняет только один
	if p.rdb != nil {
		ok, err := p.rdb.SetNX(ctx, infra.RedisKeyLockPollerTick, "polling", p.config.Interval/2).Result()
		if err != nil {
			p.logger.Warn("tick lock failed, polling anyway", zap.Error(err))
		} else if !ok {
			p.logger.Debug("tick owned by another instance")
			return
		}
	}

	found, err := p.PollOnce(ctx)
	if err != nil {
		p.logger.Error("poll failed", zap.Error(err))
		return
	}
	p.logger.Info("poll finished", zap.Int("notices", found))
}

// PollOnce один проход по всем отслеживаемым поискам; возвращает число новых уведомлений
func (p *RefreshPoller) PollOnce(ctx context.Context) (int, error) {
	ids := p.tracked.Snapshot()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.config.Concurrency)

	results := make([]bool, len(ids))
	for i, id := range ids {
		g.Go(func() error {
			results[i] = p.pollSearch(gctx, id)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return 0, err
	}
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	found := 0
	for _, ok := range results {
		if ok {
			found++
		}
	}
	return found, nil
}

// pollSearch true, если появилось новое уведомление
func (p *RefreshPoller) pollSearch(ctx context.Context, searchID string) bool {
	log := p.logger.With(zap.String("search_id", searchID))

	env, err := p.fetcher.FetchSearch(ctx, searchID)
	if err != nil {
		if errors.Is(err, domain.ErrSearchNotFound) {
			// Бэкенд забыл поиск: дальше опрашивать нечего
			log.Info("search expired, untracking")
			if err := p.tracked.Untrack(ctx, searchID); err != nil {
				log.Warn("untrack failed", zap.Error(err))
			}
			return false
		}
		log.Warn("fetch failed", zap.Error(err))
		return false
	}
	if env.RefreshAvailable == nil {
		return false
	}

	info := resilience.ClampRefresh(*env.RefreshAvailable)
	if prev, ok := p.notices.Get(searchID); ok && prev.Info == info {
		return false // то же самое уже показано
	}

	notice := domain.RefreshNotice{
		SearchID:   searchID,
		Info:       info,
		Summary:    p.rules.Rules().SummarizeRefresh(info),
		DetectedAt: p.clock.Now(),
	}
	if err := p.notices.Put(ctx, notice); err != nil {
		log.Error("store notice failed", zap.Error(err))
		return false
	}
	p.metrics.NoticesFound.Inc()
	log.Info("refresh available", zap.String("summary", notice.Summary.Text))
	return true
}
