package domain

import "time"

// Tier итоговый уровень операционного состояния
type Tier string

const (
	TierOperational Tier = "operational"
	TierPartial     Tier = "partial"
	TierDegraded    Tier = "degraded"
	TierUnavailable Tier = "unavailable"
)

// CoverageTier уровень покрытия регионов
type CoverageTier string

const (
	CoverageFull     CoverageTier = "full"
	CoveragePartial  CoverageTier = "partial"  // amber
	CoverageDegraded CoverageTier = "degraded" // red
)

// Color цветовой уровень баннера
type Color string

const (
	ColorGreen  Color = "green"
	ColorAmber  Color = "amber"
	ColorOrange Color = "orange" // данные из кэша
	ColorRed    Color = "red"
)

// BannerVariant закрытый набор баннеров (response_state x tier)
type BannerVariant string

const (
	BannerOperational      BannerVariant = "operational"
	BannerPartialCoverage  BannerVariant = "partial_coverage"
	BannerCriticalCoverage BannerVariant = "critical_coverage"
	BannerCachedFresh      BannerVariant = "cached_fresh"
	BannerCachedStale      BannerVariant = "cached_stale"
	BannerDegraded         BannerVariant = "degraded"
	BannerUnavailable      BannerVariant = "unavailable"
)

// FreshnessTier грубая оценка свежести данных
type FreshnessTier string

const (
	FreshnessLive        FreshnessTier = "live"
	FreshnessCachedFresh FreshnessTier = "cached_fresh"
	FreshnessCachedStale FreshnessTier = "cached_stale"
)

type VisualStatus string

const (
	VisualOK     VisualStatus = "ok"
	VisualFailed VisualStatus = "failed"
)

// CoverageSegment один регион на полосе покрытия
type CoverageSegment struct {
	UF           string       `json:"uf"`
	VisualStatus VisualStatus `json:"visual_status"`
	Tooltip      string       `json:"tooltip"`
}

// ResolvedOperationalState неизменяемый результат разбора одного ответа
type ResolvedOperationalState struct {
	Tier                Tier          `json:"tier"`
	CoveragePct         int           `json:"coverage_pct"`
	CoverageTier        CoverageTier  `json:"coverage_tier"`
	ProcessedCount      int           `json:"processed_count"`
	TotalCount          int           `json:"total_count"`
	CacheStatus         CacheStatus   `json:"cache_status"`
	BannerVariant       BannerVariant `json:"banner_variant"`
	Color               Color         `json:"color"`
	RefreshAction       bool          `json:"refresh_action"`
	CoverageClamped     bool          `json:"coverage_clamped"`
	DegradationGuidance string        `json:"degradation_guidance,omitempty"`
}

type TruncationKind string

const (
	TruncationPerSource TruncationKind = "per_source"
	TruncationRegion    TruncationKind = "region"
	TruncationGeneric   TruncationKind = "generic"
)

// Truncation выбранное сообщение об усечении
type Truncation struct {
	Kind    TruncationKind `json:"kind"`
	Sources []string       `json:"sources,omitempty"`
	Regions []string       `json:"regions,omitempty"`
	Message string         `json:"message"`
}

// Freshness подпись возраста данных на момент тика часов
type Freshness struct {
	Timestamp   *time.Time    `json:"timestamp,omitempty"`
	RelativeAge string        `json:"relative_age,omitempty"`
	Tier        FreshnessTier `json:"tier"`
}

// Banner текст баннера
type Banner struct {
	Variant BannerVariant `json:"variant"`
	Title   string        `json:"title"`
	Message string        `json:"message,omitempty"`
}

// StateView все, что нужно презентационному слою для одного ответа
type StateView struct {
	SearchID      string                   `json:"search_id,omitempty"`
	State         ResolvedOperationalState `json:"state"`
	Banner        Banner                   `json:"banner"`
	CoverageLabel string                   `json:"coverage_label"`
	Segments      []CoverageSegment        `json:"segments"`
	Truncation    *Truncation              `json:"truncation,omitempty"`
	Freshness     Freshness                `json:"freshness"`
	Refresh       *DisplaySummary          `json:"refresh,omitempty"`
	QualityIssues []string                 `json:"quality_issues,omitempty"`
	ResolvedAt    time.Time                `json:"resolved_at"`
}
