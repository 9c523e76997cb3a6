package engine

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/tjsasakifln/PNCP-poc-sub007/internal/infra"
	"go.uber.org/zap"
)

// SearchRepository источник истины об отслеживаемых поисках
type SearchRepository interface {
	// RecentSearches поиски, которые открывали за последние window
	RecentSearches(ctx context.Context, window time.Duration) ([]string, error)
	TouchSearch(ctx context.Context, searchID string) error
	ForgetSearch(ctx context.Context, searchID string) error
}

// Tracker L1-множество поисков, по которым планировщик проверяет обновления.
// Шлюз добавляет поиск при каждом показе и убирает, когда пользователь запускает новый.
type Tracker struct {
	repo    SearchRepository // nil: только Redis
	rdb     *redis.Client
	window  time.Duration
	metrics *Metrics
	logger  *zap.Logger

	mu       sync.RWMutex
	searches map[string]struct{}
}

func NewTracker(rdb *redis.Client, repo SearchRepository, window time.Duration, metrics *Metrics, logger *zap.Logger) *Tracker {
	if window <= 0 {
		window = 24 * time.Hour
	}
	if metrics == nil {
		metrics = NewMetrics(nil)
	}
	return &Tracker{
		searches: make(map[string]struct{}),
		repo:     repo,
		rdb:      rdb,
		window:   window,
		metrics:  metrics,
		logger:   logger.With(zap.String("mod", "tracker")),
	}
}

// Init загружает отслеживаемые поиски из БД и Redis
func (t *Tracker) Init(ctx context.Context) error {
	var ids []string
	if t.repo != nil {
		fromDB, err := t.repo.RecentSearches(ctx, t.window)
		if err != nil {
			return fmt.Errorf("tracker: fetch recent searches from DB: %w", err)
		}
		ids = fromDB
	}

	// Другие инстансы могли добавить поиски, которых еще нет в БД
	fromRedis, err := t.rdb.SMembers(ctx, infra.RedisKeyTrackedSearches).Result()
	if err != nil {
		t.logger.Warn("could not read tracked set", zap.Error(err))
	}
	ids = append(ids, fromRedis...)

	t.mu.Lock()
	for _, id := range ids {
		t.searches[id] = struct{}{}
	}
	size := len(t.searches)
	t.mu.Unlock()
	t.metrics.TrackedSearches.Set(float64(size))

	return warmRedis(ctx, t.rdb, t.logger, infra.GetWarmupLockKey("tracked"), trackedSet(ids))
}

// StartListener следит за сигналами других инстансов в реальном времени
func (t *Tracker) StartListener(ctx context.Context) {
	ListenStateResilient(ctx, t.rdb, t.logger, infra.RedisChanTrackSignal,
		func() error { return t.Init(ctx) },
		t.apply,
	)
}

// Track начинает отслеживать поиск на всех инстансах
func (t *Tracker) Track(ctx context.Context, searchID string) error {
	t.apply(searchID, true)

	if t.repo != nil {
		if err := t.repo.TouchSearch(ctx, searchID); err != nil {
			return fmt.Errorf("tracker: touch %s: %w", searchID, err)
		}
	}
	pipe := t.rdb.TxPipeline()
	pipe.SAdd(ctx, infra.RedisKeyTrackedSearches, searchID)
	pipe.Publish(ctx, infra.RedisChanTrackSignal, Signal(searchID, true))
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("tracker: publish %s: %w", searchID, err)
	}
	return nil
}

// Untrack новый полный поиск заменил старый: опрашивать больше не нужно
func (t *Tracker) Untrack(ctx context.Context, searchID string) error {
	t.apply(searchID, false)

	if t.repo != nil {
		if err := t.repo.ForgetSearch(ctx, searchID); err != nil {
			return fmt.Errorf("tracker: forget %s: %w", searchID, err)
		}
	}
	pipe := t.rdb.TxPipeline()
	pipe.SRem(ctx, infra.RedisKeyTrackedSearches, searchID)
	pipe.Publish(ctx, infra.RedisChanTrackSignal, Signal(searchID, false))
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("tracker: publish %s: %w", searchID, err)
	}
	return nil
}

func (t *Tracker) apply(id string, on bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if on {
		t.searches[id] = struct{}{}
	} else {
		delete(t.searches, id)
	}
	t.metrics.TrackedSearches.Set(float64(len(t.searches)))
}

// IsTracked быстрый метод для Hot Path
func (t *Tracker) IsTracked(id string) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	_, ok := t.searches[id]
	return ok
}

// Snapshot отсортированная копия для планировщика
func (t *Tracker) Snapshot() []string {
	t.mu.RLock()
	out := make([]string, 0, len(t.searches))
	for id := range t.searches {
		out = append(out, id)
	}
	t.mu.RUnlock()
	sort.Strings(out)
	return out
}
