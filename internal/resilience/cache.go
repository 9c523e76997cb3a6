package resilience

import (
	"time"

	"github.com/tjsasakifln/PNCP-poc-sub007/internal/domain"
)

// ClassifyCache явный статус бэкенда возвращается как есть, без пересмотра по возрасту.
// Отсутствие статуса означает "stale": исторически весь кэш показывался как устаревший.
// cachedAt в решение не входит, он нужен только для подписи возраста.
func ClassifyCache(cachedAt *time.Time, explicit domain.CacheStatus) domain.CacheStatus {
	if explicit != "" {
		return explicit
	}
	return domain.CacheStale
}

// RefreshActionVisible кнопку обновления скрываем только для "fresh" и "live"
func RefreshActionVisible(status domain.CacheStatus) bool {
	switch status {
	case domain.CacheFresh, domain.CacheLive:
		return false
	}
	return true
}
