package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/tjsasakifln/PNCP-poc-sub007/internal/domain"
	"github.com/tjsasakifln/PNCP-poc-sub007/internal/infra"
	"go.uber.org/zap"
)

// warmTarget L2-структура в Redis, которую после потери данных заливает один инстанс
type warmTarget interface {
	name() string
	// warm true, если в Redis уже есть данные и заливать нечего
	warm(ctx context.Context, rdb *redis.Client) (bool, error)
	fill(ctx context.Context, pipe redis.Pipeliner)
}

// trackedSet отслеживаемые поиски из БД: Redis пуст -> SADD всех
type trackedSet []string

func (s trackedSet) name() string { return infra.RedisKeyTrackedSearches }

func (s trackedSet) warm(ctx context.Context, rdb *redis.Client) (bool, error) {
	n, err := rdb.SCard(ctx, infra.RedisKeyTrackedSearches).Result()
	return n > 0, err
}

func (s trackedSet) fill(ctx context.Context, pipe redis.Pipeliner) {
	if len(s) == 0 {
		return
	}
	members := make([]interface{}, 0, len(s))
	for _, id := range s {
		members = append(members, id)
	}
	pipe.SAdd(ctx, infra.RedisKeyTrackedSearches, members...)
}

// pendingNotices копия уведомлений из памяти шлюза. Пустой хеш сам по себе ничего
// не значит (все уведомления могли принять), поэтому потерю данных определяем по
// маркеру: он живет без TTL и пропадает только вместе с данными Redis.
type pendingNotices map[string]domain.RefreshNotice

func (p pendingNotices) name() string { return infra.RedisKeyRefreshNotices }

func (p pendingNotices) warm(ctx context.Context, rdb *redis.Client) (bool, error) {
	n, err := rdb.Exists(ctx, infra.RedisKeyNoticesSeeded).Result()
	return n > 0, err
}

func (p pendingNotices) fill(ctx context.Context, pipe redis.Pipeliner) {
	for id, n := range p {
		data, err := json.Marshal(n)
		if err != nil {
			continue
		}
		// Планировщик мог успеть записать более свежее уведомление
		pipe.HSetNX(ctx, infra.RedisKeyRefreshNotices, id, data)
	}
	pipe.Set(ctx, infra.RedisKeyNoticesSeeded, time.Now().UTC().Format(time.RFC3339), 0)
}

// warmRedis заливает target в Redis, если там пусто. Заливает только владелец SetNX-блокировки,
// остальные инстансы молча пропускают шаг.
func warmRedis(ctx context.Context, rdb *redis.Client, logger *zap.Logger, lockKey string, target warmTarget) error {
	ok, err := rdb.SetNX(ctx, lockKey, "processing", 30*time.Second).Result()
	if err != nil || !ok {
		return nil
	}

	warm, err := target.warm(ctx, rdb)
	if err != nil {
		logger.Warn("could not check Redis state, proceeding with warm-up",
			zap.String("key", target.name()), zap.Error(err))
	}
	if warm {
		return nil
	}

	pipe := rdb.TxPipeline()
	target.fill(ctx, pipe)
	if pipe.Len() == 0 {
		return nil
	}
	logger.Info("Redis has no data, restoring", zap.String("key", target.name()))
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("warmup %s: %w", target.name(), err)
	}
	return nil
}
