package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/tjsasakifln/PNCP-poc-sub007/internal/domain"
	"github.com/tjsasakifln/PNCP-poc-sub007/internal/journal"
)

// Количество колонок в таблице state_journal
const journalFields = 11

const defaultJournalLimit = 100

// WriteBatch пакетная вставка одним INSERT (вызывается воркером журнала)
func (s *Store) WriteBatch(ctx context.Context, entries []journal.Entry) error {
	if len(entries) == 0 {
		return nil
	}

	vals := make([]interface{}, 0, len(entries)*journalFields)
	for _, e := range entries {
		issues, _ := json.Marshal(nonNil(e.Issues))
		vals = append(vals,
			e.ID, e.TraceID, e.SearchID, e.Source, e.ResponseState,
			e.Tier, e.Banner, e.CoveragePct, e.CacheStatus, issues, e.ResolvedAt,
		)
	}

	if _, err := s.db.ExecContext(ctx, batchInsertQuery(len(entries)), vals...); err != nil {
		return fmt.Errorf("postgres: write journal batch: %w", err)
	}
	return nil
}

// batchInsertQuery строит INSERT с n группами плейсхолдеров
func batchInsertQuery(n int) string {
	var b strings.Builder
	b.WriteString("INSERT INTO state_journal (id, trace_id, search_id, source, response_state, tier, banner, coverage_pct, cache_status, issues, resolved_at) VALUES ")
	for i := 0; i < n; i++ {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString("(")
		for j := 1; j <= journalFields; j++ {
			if j > 1 {
				b.WriteString(", ")
			}
			fmt.Fprintf(&b, "$%d", i*journalFields+j)
		}
		b.WriteString(")")
	}
	return b.String()
}

// FetchJournal последние резолюции с необязательными фильтрами
func (s *Store) FetchJournal(ctx context.Context, f domain.JournalFilter) ([]journal.Entry, error) {
	limit := f.Limit
	if limit <= 0 || limit > defaultJournalLimit {
		limit = defaultJournalLimit
	}

	query := `
		SELECT id, trace_id, search_id, source, response_state, tier, banner,
		       coverage_pct, cache_status, issues, resolved_at
		FROM state_journal
		WHERE ($1 = '' OR search_id = $1) AND ($2 = '' OR tier = $2)
		ORDER BY resolved_at DESC
		LIMIT $3`

	rows, err := s.db.QueryContext(ctx, query, f.SearchID, f.Tier, limit)
	if err != nil {
		return nil, fmt.Errorf("postgres: fetch journal: %w", err)
	}
	defer rows.Close()

	out := make([]journal.Entry, 0, limit)
	for rows.Next() {
		var (
			e      journal.Entry
			issues []byte
		)
		if err := rows.Scan(&e.ID, &e.TraceID, &e.SearchID, &e.Source, &e.ResponseState, &e.Tier,
			&e.Banner, &e.CoveragePct, &e.CacheStatus, &issues, &e.ResolvedAt); err != nil {
			return nil, fmt.Errorf("postgres: scan journal: %w", err)
		}
		if len(issues) > 0 {
			_ = json.Unmarshal(issues, &e.Issues)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
