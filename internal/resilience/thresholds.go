// Package resilience содержит чистые правила, которые превращают метаданные ответа поиска
// в дискретные состояния интерфейса: баннеры, полосу покрытия, подписи свежести и
// доступность обновления. Пакет не делает I/O и не хранит состояния между вызовами.
package resilience

import "time"

// Продуктовые границы. Меняются только здесь (или в рантайме через thresholds.Store).
const (
	// PartialCoverageMinPct нижняя граница "amber" покрытия; ниже - "red"
	PartialCoverageMinPct = 70

	// CacheStaleAfter возраст, после которого кэш без явного статуса считается устаревшим
	CacheStaleAfter = 6 * time.Hour

	// MaxRecordsLimit лимит записей на поиск, после которого результат усекается
	MaxRecordsLimit = 250000

	// ClockTick период пересчета относительного времени
	ClockTick = time.Minute
)

// Thresholds набор границ, с которыми работают классификаторы
type Thresholds struct {
	PartialCoverageMinPct int           `json:"partial_coverage_min_pct"`
	CacheStaleAfter       time.Duration `json:"cache_stale_after"`
	MaxRecordsLimit       int           `json:"max_records_limit"`
}

// DefaultThresholds значения по умолчанию
func DefaultThresholds() Thresholds {
	return Thresholds{
		PartialCoverageMinPct: PartialCoverageMinPct,
		CacheStaleAfter:       CacheStaleAfter,
		MaxRecordsLimit:       MaxRecordsLimit,
	}
}

// Normalize подставляет дефолты вместо нулевых и невалидных значений
func (t Thresholds) Normalize() Thresholds {
	if t.PartialCoverageMinPct <= 0 || t.PartialCoverageMinPct > 100 {
		t.PartialCoverageMinPct = PartialCoverageMinPct
	}
	if t.CacheStaleAfter <= 0 {
		t.CacheStaleAfter = CacheStaleAfter
	}
	if t.MaxRecordsLimit <= 0 {
		t.MaxRecordsLimit = MaxRecordsLimit
	}
	return t
}
