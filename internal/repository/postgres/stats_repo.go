package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/tjsasakifln/PNCP-poc-sub007/internal/domain"
)

// TierDistribution сводка журнала за последние window
func (s *Store) TierDistribution(ctx context.Context, window time.Duration) (*domain.TierStats, error) {
	since := time.Now().Add(-window)
	st := &domain.TierStats{
		WindowMinutes: int(window / time.Minute),
		Tiers:         map[string]int64{},
		Banners:       map[string]int64{},
		GeneratedAt:   time.Now().UTC(),
	}

	// 1. Итоги
	err := s.db.QueryRowContext(ctx, `
		SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE jsonb_array_length(issues) > 0),
			COALESCE(AVG(coverage_pct), 0)
		FROM state_journal
		WHERE resolved_at > $1`, since).Scan(&st.Total, &st.WithIssues, &st.AvgCoverage)
	if err != nil {
		return nil, fmt.Errorf("postgres: journal totals: %w", err)
	}

	// 2. Разбивка по уровню и баннеру
	rows, err := s.db.QueryContext(ctx, `
		SELECT tier, banner, COUNT(*)
		FROM state_journal
		WHERE resolved_at > $1
		GROUP BY tier, banner`, since)
	if err != nil {
		return nil, fmt.Errorf("postgres: tier distribution: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			tier, banner string
			n            int64
		)
		if err := rows.Scan(&tier, &banner, &n); err != nil {
			return nil, err
		}
		st.Tiers[tier] += n
		st.Banners[banner] += n
	}
	return st, rows.Err()
}
