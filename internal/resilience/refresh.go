package resilience

import "github.com/tjsasakifln/PNCP-poc-sub007/internal/domain"

// SummarizeRefresh форматирует уже посчитанную бэкендом дельту.
// Никогда не показываем "0 novas, 0 atualizadas": при нулевой дельте выводим total_live.
// Когда опрашивать и как считать дельту, решает внешний планировщик.
func (r Rules) SummarizeRefresh(info domain.RefreshAvailableInfo) domain.DisplaySummary {
	info = ClampRefresh(info)

	if !info.HasDelta() {
		return domain.DisplaySummary{
			Fallback: true,
			Clauses:  []domain.SummaryClause{},
			Text:     r.loc.RefreshTotal(info.TotalLive),
		}
	}

	parts := []struct {
		kind  domain.ClauseKind
		count int
	}{
		{domain.ClauseNew, info.NewCount},
		{domain.ClauseUpdated, info.UpdatedCount},
		{domain.ClauseRemoved, info.RemovedCount},
	}

	clauses := make([]domain.SummaryClause, 0, len(parts))
	texts := make([]string, 0, len(parts))
	for _, p := range parts {
		if p.count <= 0 {
			continue
		}
		text := r.loc.RefreshClause(p.kind, p.count)
		clauses = append(clauses, domain.SummaryClause{Kind: p.kind, Count: p.count, Text: text})
		texts = append(texts, text)
	}

	return domain.DisplaySummary{
		Clauses: clauses,
		Text:    r.loc.JoinList(texts),
	}
}

// ClampRefresh отрицательные счетчики (ошибка апстрима) приводим к нулю
func ClampRefresh(info domain.RefreshAvailableInfo) domain.RefreshAvailableInfo {
	clamp := func(n *int) {
		if *n < 0 {
			*n = 0
		}
	}
	clamp(&info.TotalLive)
	clamp(&info.TotalCached)
	clamp(&info.NewCount)
	clamp(&info.UpdatedCount)
	clamp(&info.RemovedCount)
	return info
}
