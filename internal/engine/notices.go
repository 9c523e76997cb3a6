package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"
	"github.com/tjsasakifln/PNCP-poc-sub007/internal/domain"
	"github.com/tjsasakifln/PNCP-poc-sub007/internal/infra"
	"go.uber.org/zap"
)

type noticeOp string

const (
	noticePut  noticeOp = "put"
	noticeDrop noticeOp = "drop"
)

// noticeEvent сообщение в канале pncp:refresh:available
type noticeEvent struct {
	Op       noticeOp              `json:"op"`
	SearchID string                `json:"search_id"`
	Notice   *domain.RefreshNotice `json:"notice,omitempty"`
}

// NoticeBoard L1 уведомлений "есть обновленные результаты" поверх Redis-хеша.
// Пишет планировщик (Put), читает и гасит шлюз (Get, Accept, Drop).
type NoticeBoard struct {
	rdb     *redis.Client
	metrics *Metrics
	logger  *zap.Logger

	mu      sync.RWMutex
	notices map[string]domain.RefreshNotice
}

func NewNoticeBoard(rdb *redis.Client, metrics *Metrics, logger *zap.Logger) *NoticeBoard {
	if metrics == nil {
		metrics = NewMetrics(nil)
	}
	return &NoticeBoard{
		rdb:     rdb,
		metrics: metrics,
		logger:  logger.With(zap.String("mod", "notices")),
		notices: make(map[string]domain.RefreshNotice),
	}
}

// Init полная перезагрузка L1 из хеша. Если Redis потерял данные (рестарт без
// персистентности), хеш сначала восстанавливается из памяти этого инстанса.
func (b *NoticeBoard) Init(ctx context.Context) error {
	b.mu.RLock()
	prev := make(pendingNotices, len(b.notices))
	for id, n := range b.notices {
		prev[id] = n
	}
	b.mu.RUnlock()

	if err := warmRedis(ctx, b.rdb, b.logger, infra.GetWarmupLockKey("notices"), prev); err != nil {
		b.logger.Warn("could not restore notices", zap.Error(err))
	}

	raw, err := b.rdb.HGetAll(ctx, infra.RedisKeyRefreshNotices).Result()
	if err != nil {
		return fmt.Errorf("notices: load: %w", err)
	}

	next := make(map[string]domain.RefreshNotice, len(raw))
	for id, data := range raw {
		var n domain.RefreshNotice
		if err := json.Unmarshal([]byte(data), &n); err != nil {
			b.logger.Warn("skipping corrupt notice", zap.String("search_id", id), zap.Error(err))
			continue
		}
		next[id] = n
	}

	b.mu.Lock()
	b.notices = next
	b.mu.Unlock()
	b.metrics.PendingNotices.Set(float64(len(next)))
	return nil
}

// StartListener держит L1 в актуальном состоянии между инстансами
func (b *NoticeBoard) StartListener(ctx context.Context) {
	infra.ListenResilient(ctx, b.rdb, b.logger, infra.RedisChanRefreshAvailable,
		func() error { return b.Init(ctx) },
		b.handle,
	)
}

func (b *NoticeBoard) handle(payload string) {
	var ev noticeEvent
	if err := json.Unmarshal([]byte(payload), &ev); err != nil || ev.SearchID == "" {
		b.logger.Error("invalid notice event", zap.String("payload", payload))
		return
	}
	switch ev.Op {
	case noticePut:
		if ev.Notice != nil {
			b.setL1(*ev.Notice)
		}
	case noticeDrop:
		b.deleteL1(ev.SearchID)
	}
}

// Put сохраняет уведомление и рассылает его всем шлюзам
func (b *NoticeBoard) Put(ctx context.Context, n domain.RefreshNotice) error {
	data, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("notices: encode: %w", err)
	}
	event, err := json.Marshal(noticeEvent{Op: noticePut, SearchID: n.SearchID, Notice: &n})
	if err != nil {
		return fmt.Errorf("notices: encode event: %w", err)
	}

	pipe := b.rdb.TxPipeline()
	pipe.HSet(ctx, infra.RedisKeyRefreshNotices, n.SearchID, data)
	pipe.Publish(ctx, infra.RedisChanRefreshAvailable, event)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("notices: put %s: %w", n.SearchID, err)
	}
	b.setL1(n)
	return nil
}

// Get уведомление для поиска (Hot Path, только RAM)
func (b *NoticeBoard) Get(searchID string) (domain.RefreshNotice, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	n, ok := b.notices[searchID]
	return n, ok
}

// Accept пользователь нажал "atualizar": уведомление больше не нужно
func (b *NoticeBoard) Accept(ctx context.Context, searchID string) (domain.RefreshNotice, error) {
	n, ok := b.Get(searchID)
	if !ok {
		return domain.RefreshNotice{}, domain.ErrNoticeNotFound
	}
	if err := b.Drop(ctx, searchID); err != nil {
		return domain.RefreshNotice{}, err
	}
	return n, nil
}

// Drop удаляет уведомление (новый поиск заменил старый)
func (b *NoticeBoard) Drop(ctx context.Context, searchID string) error {
	event, _ := json.Marshal(noticeEvent{Op: noticeDrop, SearchID: searchID})

	pipe := b.rdb.TxPipeline()
	pipe.HDel(ctx, infra.RedisKeyRefreshNotices, searchID)
	pipe.Publish(ctx, infra.RedisChanRefreshAvailable, event)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("notices: drop %s: %w", searchID, err)
	}
	b.deleteL1(searchID)
	return nil
}

func (b *NoticeBoard) setL1(n domain.RefreshNotice) {
	b.mu.Lock()
	b.notices[n.SearchID] = n
	size := len(b.notices)
	b.mu.Unlock()
	b.metrics.PendingNotices.Set(float64(size))
}

func (b *NoticeBoard) deleteL1(searchID string) {
	b.mu.Lock()
	delete(b.notices, searchID)
	size := len(b.notices)
	b.mu.Unlock()
	b.metrics.PendingNotices.Set(float64(size))
}
