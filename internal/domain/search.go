package domain

import (
	"errors"
	"time"
)

// ResponseState итоговый исход поиска, который бэкенд кладет в ответ
type ResponseState string

const (
	ResponseLive         ResponseState = "live"
	ResponseCached       ResponseState = "cached"
	ResponseDegraded     ResponseState = "degraded"
	ResponseEmptyFailure ResponseState = "empty_failure"
)

// Known сообщает, входит ли состояние в закрытый список бэкенда
func (s ResponseState) Known() bool {
	switch s {
	case ResponseLive, ResponseCached, ResponseDegraded, ResponseEmptyFailure:
		return true
	}
	return false
}

// UFStatus статус обработки одного региона (UF)
type UFStatus string

const (
	UFStatusOK      UFStatus = "ok"
	UFStatusError   UFStatus = "error"
	UFStatusTimeout UFStatus = "timeout"
)

// CacheStatus происхождение набора результатов.
// Бэкенд может прислать и другие значения, они проходят без изменений.
type CacheStatus string

const (
	CacheFresh CacheStatus = "fresh"
	CacheStale CacheStatus = "stale"
	CacheLive  CacheStatus = "live"
	// CacheCachedFresh недавний кэш: баннер "свежий", но кнопка обновления остается
	CacheCachedFresh CacheStatus = "cached_fresh"
)

var (
	ErrMissingResponseState = errors.New("response_state is required")
	ErrSearchNotFound       = errors.New("search not found")
	ErrNoticeNotFound       = errors.New("refresh notice not found")
)

// UFStatusDetail детализация по региону, порядок элементов значим для отрисовки
type UFStatusDetail struct {
	UF          string   `json:"uf"`
	Status      UFStatus `json:"status"`
	ResultCount int      `json:"result_count"`
}

// SearchResponseMetadata метаданные ответа поиска (только чтение).
// Все поля кроме response_state опциональны; значения по умолчанию для старых ответов:
//   - cache_status отсутствует -> "stale" (всегда предлагаем обновление)
//   - coverage_pct отсутствует -> считается по множествам UF
//   - ufs_requested пуст -> покрытие 100%, сегментов нет
//   - truncation_details / truncated_ufs отсутствуют -> сигналов усечения нет
type SearchResponseMetadata struct {
	SearchID      string        `json:"search_id,omitempty"`
	ResponseState ResponseState `json:"response_state"`

	UFsRequested   []string         `json:"ufs_requested,omitempty"`
	UFsProcessed   []string         `json:"ufs_processed,omitempty"`
	UFsFailed      []string         `json:"ufs_failed,omitempty"`
	CoveragePct    *float64         `json:"coverage_pct,omitempty"`
	UFStatusDetail []UFStatusDetail `json:"ufs_status_detail,omitempty"`

	DataTimestamp *time.Time  `json:"data_timestamp,omitempty"`
	CachedAt      *time.Time  `json:"cached_at,omitempty"`
	CacheStatus   CacheStatus `json:"cache_status,omitempty"`

	IsTruncated       bool            `json:"is_truncated,omitempty"`
	TruncationDetails map[string]bool `json:"truncation_details,omitempty"`
	TruncatedUFs      []string        `json:"truncated_ufs,omitempty"`

	DegradationGuidance string `json:"degradation_guidance,omitempty"`
}

// Validate проверяет единственное обязательное поле
func (m *SearchResponseMetadata) Validate() error {
	if m.ResponseState == "" {
		return ErrMissingResponseState
	}
	return nil
}

// Truncated есть ли хоть один сигнал усечения
func (m *SearchResponseMetadata) Truncated() bool {
	if m.IsTruncated || len(m.TruncatedUFs) > 0 {
		return true
	}
	for _, v := range m.TruncationDetails {
		if v {
			return true
		}
	}
	return false
}

// SearchEnvelope то, что отдает бэкенд на GET /v1/buscar/{id}.
// refresh_available появляется только на последующих опросах.
type SearchEnvelope struct {
	SearchResponseMetadata
	RefreshAvailable *RefreshAvailableInfo `json:"refresh_available,omitempty"`
}
