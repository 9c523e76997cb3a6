package journal

import "time"

// Entry одна резолюция состояния, как ее увидел пользователь
type Entry struct {
	ID            string    `json:"id"`       // UUID записи
	TraceID       string    `json:"trace_id"` // Сквозной ID запроса
	SearchID      string    `json:"search_id"`
	Source        string    `json:"source"` // "http", "grpc", "fetch", "poller"
	ResponseState string    `json:"response_state"`
	Tier          string    `json:"tier"`
	Banner        string    `json:"banner"`
	CoveragePct   int       `json:"coverage_pct"`
	CacheStatus   string    `json:"cache_status"`
	Issues        []string  `json:"issues"` // виды расхождений из quality.Analyzer
	ResolvedAt    time.Time `json:"resolved_at"`
}
