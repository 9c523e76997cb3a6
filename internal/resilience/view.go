package resilience

import (
	"time"

	"github.com/tjsasakifln/PNCP-poc-sub007/internal/domain"
)

// View собирает полное представление ответа на момент now
func (r Rules) View(meta domain.SearchResponseMetadata, now time.Time) domain.StateView {
	st := r.ResolveOperationalState(meta)

	view := domain.StateView{
		SearchID:   meta.SearchID,
		State:      st,
		Banner:     r.Banner(st),
		Segments:   []domain.CoverageSegment{},
		Freshness:  r.Freshness(meta, now),
		ResolvedAt: now,
	}

	if st.Tier != domain.TierUnavailable {
		cov := r.ClassifyCoverage(meta)
		view.CoverageLabel = cov.Label
		view.Segments = cov.Segments
	}

	if meta.Truncated() {
		t := r.ResolveTruncation(meta.TruncatedUFs, meta.TruncationDetails)
		view.Truncation = &t
	}
	return view
}

// Freshness для кэша возраст считается от cached_at, для остальных от data_timestamp
func (r Rules) Freshness(meta domain.SearchResponseMetadata, now time.Time) domain.Freshness {
	if meta.ResponseState != domain.ResponseCached {
		f := domain.Freshness{Tier: domain.FreshnessLive, Timestamp: meta.DataTimestamp}
		if meta.DataTimestamp != nil && meta.ResponseState != domain.ResponseEmptyFailure {
			f.RelativeAge = r.RelativeAge(*meta.DataTimestamp, now)
		} else {
			f.Timestamp = nil
		}
		return f
	}

	ts := meta.CachedAt
	if ts == nil {
		ts = meta.DataTimestamp
	}
	if ts == nil {
		// Без метки времени возраст неизвестен: решаем только по подсказке
		tier := r.FreshnessTier(time.Time{}, meta.CacheStatus, now)
		return domain.Freshness{Tier: tier}
	}
	return domain.Freshness{
		Timestamp:   ts,
		RelativeAge: r.RelativeAge(*ts, now),
		Tier:        r.FreshnessTier(*ts, meta.CacheStatus, now),
	}
}
