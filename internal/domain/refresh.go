package domain

import "time"

// RefreshAvailableInfo дельта между показанным и новым набором результатов.
// total_live и total_cached независимые снимки: бэкенд считает дельту по идентичности
// записей, а не вычитанием, поэтому арифметически они не обязаны сходиться.
type RefreshAvailableInfo struct {
	TotalLive    int `json:"total_live"`
	TotalCached  int `json:"total_cached"`
	NewCount     int `json:"new_count"`
	UpdatedCount int `json:"updated_count"`
	RemovedCount int `json:"removed_count"`
}

// HasDelta есть ли хоть одна ненулевая дельта
func (i RefreshAvailableInfo) HasDelta() bool {
	return i.NewCount > 0 || i.UpdatedCount > 0 || i.RemovedCount > 0
}

type ClauseKind string

const (
	ClauseNew     ClauseKind = "new"
	ClauseUpdated ClauseKind = "updated"
	ClauseRemoved ClauseKind = "removed"
)

type SummaryClause struct {
	Kind  ClauseKind `json:"kind"`
	Count int        `json:"count"`
	Text  string     `json:"text"`
}

// DisplaySummary готовая к показу сводка по обновлению
type DisplaySummary struct {
	Fallback bool            `json:"fallback"` // true: показываем только общее количество
	Clauses  []SummaryClause `json:"clauses"`
	Text     string          `json:"text"`
}

// RefreshNotice уведомление о новых данных для конкретного поиска.
// Живет до принятия пользователем или до нового полного поиска.
type RefreshNotice struct {
	SearchID   string               `json:"search_id"`
	Info       RefreshAvailableInfo `json:"info"`
	Summary    DisplaySummary       `json:"summary"`
	DetectedAt time.Time            `json:"detected_at"`
}
