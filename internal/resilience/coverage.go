package resilience

import (
	"math"
	"sort"

	"github.com/tjsasakifln/PNCP-poc-sub007/internal/domain"
)

// CoverageResult результат классификации покрытия
type CoverageResult struct {
	Pct            int                      `json:"pct"`
	Tier           domain.CoverageTier      `json:"tier"`
	Segments       []domain.CoverageSegment `json:"segments"`
	ProcessedCount int                      `json:"processed_count"`
	TotalCount     int                      `json:"total_count"`
	Label          string                   `json:"label"`
	// Clamped coverage_pct пришел вне [0,100]; вызывающий обязан залогировать
	Clamped bool `json:"clamped"`
}

// ClassifyCoverage процент, уровень и сегменты по регионам
func (r Rules) ClassifyCoverage(meta domain.SearchResponseMetadata) CoverageResult {
	requested := uniq(meta.UFsRequested)
	processed := uniq(meta.UFsProcessed)
	// Без множеств регионов считаем по детализации, иначе полоса с ошибками
	// соседствовала бы с "Cobertura completa"
	if len(requested) == 0 && len(meta.UFStatusDetail) > 0 {
		requested, processed = detailSets(meta.UFStatusDetail)
	}

	res := CoverageResult{
		ProcessedCount: len(processed),
		TotalCount:     len(requested),
	}

	// 1. Процент: присланный бэкендом главнее вычисленного
	switch {
	case meta.CoveragePct != nil:
		pct, clamped := ClampPct(*meta.CoveragePct)
		res.Pct = RoundHalfUp(pct)
		res.Clamped = clamped
	case len(requested) == 0:
		// Пустой запрос считается полностью покрытым
		res.Pct = 100
	default:
		res.Pct = DerivePct(len(processed), len(requested))
	}

	res.Tier = r.CoverageTier(res.Pct)
	res.Label = r.loc.CoverageLabel(res.ProcessedCount, res.TotalCount)

	// 2. Сегменты
	if len(meta.UFStatusDetail) > 0 {
		res.Segments = r.detailSegments(meta.UFStatusDetail)
	} else {
		res.Segments = r.setSegments(processed, uniq(meta.UFsFailed))
	}
	return res
}

// CoverageTier 100 -> full, [граница,100) -> partial, ниже -> degraded
func (r Rules) CoverageTier(pct int) domain.CoverageTier {
	switch {
	case pct >= 100:
		return domain.CoverageFull
	case pct >= r.th.PartialCoverageMinPct:
		return domain.CoveragePartial
	default:
		return domain.CoverageDegraded
	}
}

// detailSegments порядок бэкенда сохраняется, timeout и error одинаково "failed"
func (r Rules) detailSegments(details []domain.UFStatusDetail) []domain.CoverageSegment {
	out := make([]domain.CoverageSegment, 0, len(details))
	for _, d := range details {
		status := domain.VisualFailed
		if d.Status == domain.UFStatusOK {
			status = domain.VisualOK
		}
		out = append(out, domain.CoverageSegment{
			UF:           d.UF,
			VisualStatus: status,
			Tooltip:      r.loc.DetailTooltip(d),
		})
	}
	return out
}

// setSegments запасной путь без детализации: объединение processed и failed по алфавиту.
// Регионы только из requested (еще не опрошенные) в полосу не попадают.
func (r Rules) setSegments(processed, failed []string) []domain.CoverageSegment {
	status := make(map[string]domain.VisualStatus, len(processed)+len(failed))
	for _, uf := range failed {
		status[uf] = domain.VisualFailed
	}
	// Успех после повтора важнее более ранней ошибки
	for _, uf := range processed {
		status[uf] = domain.VisualOK
	}

	ufs := make([]string, 0, len(status))
	for uf := range status {
		ufs = append(ufs, uf)
	}
	sort.Strings(ufs)

	out := make([]domain.CoverageSegment, 0, len(ufs))
	for _, uf := range ufs {
		out = append(out, domain.CoverageSegment{
			UF:           uf,
			VisualStatus: status[uf],
			Tooltip:      r.loc.SetTooltip(uf, status[uf]),
		})
	}
	return out
}

// ClampPct ограничивает процент диапазоном [0,100]
func ClampPct(pct float64) (float64, bool) {
	switch {
	case math.IsNaN(pct):
		return 0, true
	case pct < 0:
		return 0, true
	case pct > 100:
		return 100, true
	}
	return pct, false
}

// RoundHalfUp 77.5 -> 78, 77.4 -> 77
func RoundHalfUp(v float64) int {
	return int(math.Floor(v + 0.5))
}

// DerivePct round(100*processed/requested); 0 запрошенных дает 100.
// 100 только при полном покрытии: 199 из 200 это 99, а не 100.
func DerivePct(processed, requested int) int {
	if requested <= 0 {
		return 100
	}
	pct, _ := ClampPct(100 * float64(processed) / float64(requested))
	rounded := RoundHalfUp(pct)
	if processed < requested && rounded >= 100 {
		return 99
	}
	return rounded
}

// detailSets requested и processed из детализации; ok хотя бы в одной записи считается обработанным
func detailSets(details []domain.UFStatusDetail) (requested, processed []string) {
	ok := make(map[string]struct{}, len(details))
	for _, d := range details {
		if d.UF == "" {
			continue
		}
		requested = append(requested, d.UF)
		if d.Status == domain.UFStatusOK {
			ok[d.UF] = struct{}{}
		}
	}
	requested = uniq(requested)
	for _, uf := range requested {
		if _, done := ok[uf]; done {
			processed = append(processed, uf)
		}
	}
	return requested, processed
}

// uniq убирает дубликаты и пустые коды, сохраняя порядок
func uniq(in []string) []string {
	if len(in) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s == "" {
			continue
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
