package domain

import "time"

// TierStats распределение резолюций за окно (для дашборда консоли)
type TierStats struct {
	WindowMinutes int              `json:"window_minutes"`
	Total         int64            `json:"total"`
	Tiers         map[string]int64 `json:"tiers"`
	Banners       map[string]int64 `json:"banners"`
	WithIssues    int64            `json:"with_issues"` // резолюции с расхождениями в метаданных
	AvgCoverage   float64          `json:"avg_coverage_pct"`
	GeneratedAt   time.Time        `json:"generated_at"`
}

// JournalFilter фильтры выборки журнала; пустое поле не фильтрует
type JournalFilter struct {
	SearchID string
	Tier     string
	Limit    int
}
