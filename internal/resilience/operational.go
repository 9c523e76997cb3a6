package resilience

import "github.com/tjsasakifln/PNCP-poc-sub007/internal/domain"

// ResolveOperationalState выбирает ровно один баннер и цвет на ответ.
// История между ответами не хранится: каждый вызов независим.
func (r Rules) ResolveOperationalState(meta domain.SearchResponseMetadata) domain.ResolvedOperationalState {
	// 1. empty_failure сильнее всего остального: покрытие и кэш не смотрим.
	// Данных нет, поэтому статус stale: кнопка обновления всегда видна.
	if meta.ResponseState == domain.ResponseEmptyFailure {
		return domain.ResolvedOperationalState{
			Tier:                domain.TierUnavailable,
			CoverageTier:        domain.CoverageDegraded,
			CacheStatus:         domain.CacheStale,
			BannerVariant:       domain.BannerUnavailable,
			Color:               domain.ColorRed,
			RefreshAction:       RefreshActionVisible(domain.CacheStale),
			DegradationGuidance: meta.DegradationGuidance,
		}
	}

	cov := r.ClassifyCoverage(meta)
	st := domain.ResolvedOperationalState{
		CoveragePct:         cov.Pct,
		CoverageTier:        cov.Tier,
		ProcessedCount:      cov.ProcessedCount,
		TotalCount:          cov.TotalCount,
		CacheStatus:         domain.CacheLive,
		CoverageClamped:     cov.Clamped,
		DegradationGuidance: meta.DegradationGuidance,
	}

	switch meta.ResponseState {
	case domain.ResponseCached:
		// 2. Кэш: отдельная (оранжевая) подача, покрытие на уровень не влияет
		st.Tier = domain.TierDegraded
		st.Color = domain.ColorOrange
		st.CacheStatus = ClassifyCache(meta.CachedAt, meta.CacheStatus)
		st.BannerVariant = domain.BannerCachedStale
		if st.CacheStatus == domain.CacheFresh || st.CacheStatus == domain.CacheCachedFresh {
			st.BannerVariant = domain.BannerCachedFresh
		}

	case domain.ResponseLive:
		// 3. Live: 100% -> operational, иначе partial с amber/red по покрытию
		if cov.Pct >= 100 {
			st.Tier = domain.TierOperational
			st.Color = domain.ColorGreen
			st.BannerVariant = domain.BannerOperational
			break
		}
		st.Tier = domain.TierPartial
		st.Color, st.BannerVariant = coverageColor(cov.Tier)

	default:
		// 4. degraded и неизвестные состояния: источники падали, цвет по покрытию
		st.Tier = domain.TierDegraded
		st.BannerVariant = domain.BannerDegraded
		st.Color, _ = coverageColor(cov.Tier)
	}

	st.RefreshAction = RefreshActionVisible(st.CacheStatus)
	return st
}

// Banner текст баннера; guidance бэкенда идет в сообщение без изменений
func (r Rules) Banner(st domain.ResolvedOperationalState) domain.Banner {
	label := r.loc.CoverageLabel(st.ProcessedCount, st.TotalCount)
	title, msg := r.loc.Banner(st.BannerVariant, label)
	if st.DegradationGuidance != "" &&
		(st.Tier == domain.TierUnavailable || st.Tier == domain.TierDegraded) {
		msg = st.DegradationGuidance
	}
	return domain.Banner{Variant: st.BannerVariant, Title: title, Message: msg}
}

func coverageColor(tier domain.CoverageTier) (domain.Color, domain.BannerVariant) {
	if tier == domain.CoverageDegraded {
		return domain.ColorRed, domain.BannerCriticalCoverage
	}
	return domain.ColorAmber, domain.BannerPartialCoverage
}
