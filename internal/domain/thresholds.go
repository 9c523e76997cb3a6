package domain

import (
	"errors"
	"time"
)

var ErrInvalidThresholds = errors.New("thresholds: invalid values")

// ThresholdSettings строка таблицы engine_thresholds (одна активная запись)
type ThresholdSettings struct {
	PartialCoverageMinPct  int       `json:"partial_coverage_min_pct"`
	CacheStaleAfterSeconds int       `json:"cache_stale_after_seconds"`
	MaxRecordsLimit        int       `json:"max_records_limit"`
	UpdatedBy              string    `json:"updated_by,omitempty"`
	UpdatedAt              time.Time `json:"updated_at"`
}

// Validate граница покрытия в (0,100], остальное строго положительное
func (s ThresholdSettings) Validate() error {
	if s.PartialCoverageMinPct <= 0 || s.PartialCoverageMinPct > 100 {
		return ErrInvalidThresholds
	}
	if s.CacheStaleAfterSeconds <= 0 || s.MaxRecordsLimit <= 0 {
		return ErrInvalidThresholds
	}
	return nil
}
