package infra

import "fmt"

const (
	// RedisNamespace Базовый префикс для изоляции данных проекта в Redis
	RedisNamespace = "pncp"
)

// Ключи (состояние)
const (
	RedisKeyTrackedSearches = RedisNamespace + ":searches:tracked_set"
	RedisKeyRefreshNotices  = RedisNamespace + ":refresh:notices" // HASH search_id -> RefreshNotice JSON
	RedisKeyNoticesSeeded   = RedisNamespace + ":refresh:seeded"  // маркер без TTL: хеш уже заливали
	RedisKeyLockPollerTick  = RedisNamespace + ":lock:poller:tick"
)

// Каналы Pub/Sub (события)
const (
	// RedisChanTrackSignal "search_id:on|off"
	RedisChanTrackSignal      = RedisNamespace + ":searches:track-signal"
	RedisChanRefreshAvailable = RedisNamespace + ":refresh:available"
	RedisChanThresholdsUpdate = RedisNamespace + ":thresholds:update"
)

// GetWarmupLockKey Генератор ключей для блокировок ("tracked" -> pncp:lock:warmup:tracked)
func GetWarmupLockKey(resource string) string {
	return fmt.Sprintf("%s:lock:warmup:%s", RedisNamespace, resource)
}
