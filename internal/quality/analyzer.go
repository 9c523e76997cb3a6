package quality

import (
	"math"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/tjsasakifln/PNCP-poc-sub007/internal/domain"
	"github.com/tjsasakifln/PNCP-poc-sub007/internal/resilience"
	"go.uber.org/zap"
)

// Kind тип расхождения в метаданных бэкенда
type Kind string

const (
	KindCoverageOutOfRange Kind = "coverage_out_of_range"
	KindProcessedNotInReq  Kind = "processed_not_requested"
	KindProcessedAndFailed Kind = "processed_and_failed"
	KindDetailMismatch     Kind = "detail_mismatch"
	KindCoverageDrift      Kind = "coverage_drift"
	KindNegativeRefresh    Kind = "negative_refresh_count"
)

// maxCoverageDrift допустимая разница между присланным и вычисленным процентом
const maxCoverageDrift = 1.0

type Issue struct {
	Kind   Kind   `json:"kind"`
	Detail string `json:"detail"`
}

// Analyzer ничего не исправляет: движок все равно отрисует ответ,
// расхождения только логируются и считаются.
type Analyzer struct {
	issues *prometheus.CounterVec
	logger *zap.Logger
}

// NewAnalyzer issues может быть nil (без метрик)
func NewAnalyzer(issues *prometheus.CounterVec, logger *zap.Logger) *Analyzer {
	return &Analyzer{issues: issues, logger: logger.Named("quality")}
}

// Inspect проверяет согласованность метаданных и конверта обновления
func (a *Analyzer) Inspect(meta domain.SearchResponseMetadata, refresh *domain.RefreshAvailableInfo) []Issue {
	var out []Issue
	add := func(k Kind, detail string) {
		out = append(out, Issue{Kind: k, Detail: detail})
	}

	requested := toSet(meta.UFsRequested)
	processed := toSet(meta.UFsProcessed)
	failed := toSet(meta.UFsFailed)

	// 1. Процент вне диапазона и дрейф относительно множеств
	if meta.CoveragePct != nil {
		pct := *meta.CoveragePct
		if _, clamped := resilience.ClampPct(pct); clamped {
			add(KindCoverageOutOfRange, formatFloat(pct))
		} else if len(requested) > 0 {
			derived := 100 * float64(countIn(processed, requested)) / float64(len(requested))
			if math.Abs(derived-pct) > maxCoverageDrift {
				add(KindCoverageDrift, formatFloat(pct)+" vs "+formatFloat(derived))
			}
		}
	}

	// 2. Множества
	for _, uf := range sorted(processed) {
		if len(requested) > 0 {
			if _, ok := requested[uf]; !ok {
				add(KindProcessedNotInReq, uf)
			}
		}
		if _, ok := failed[uf]; ok {
			add(KindProcessedAndFailed, uf)
		}
	}

	// 3. Детализация против множеств
	for _, d := range meta.UFStatusDetail {
		_, inProcessed := processed[d.UF]
		if (d.Status == domain.UFStatusOK) != inProcessed && len(processed) > 0 {
			add(KindDetailMismatch, d.UF+":"+string(d.Status))
		}
	}

	// 4. Отрицательные счетчики обновления
	if refresh != nil {
		if refresh.NewCount < 0 || refresh.UpdatedCount < 0 || refresh.RemovedCount < 0 ||
			refresh.TotalLive < 0 || refresh.TotalCached < 0 {
			add(KindNegativeRefresh, "")
		}
	}

	for _, is := range out {
		if a.issues != nil {
			a.issues.WithLabelValues(string(is.Kind)).Inc()
		}
		a.logger.Warn("data quality issue",
			zap.String("search_id", meta.SearchID),
			zap.String("kind", string(is.Kind)),
			zap.String("detail", is.Detail),
		)
	}
	return out
}

// Kinds для записи в журнал
func Kinds(issues []Issue) []string {
	out := make([]string, 0, len(issues))
	for _, is := range issues {
		out = append(out, string(is.Kind))
	}
	return out
}
