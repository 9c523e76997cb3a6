package postgres

import (
	"context"
	"fmt"
	"time"
)

// RecentSearches поиски, которые открывали за последние window (для прогрева трекера)
func (s *Store) RecentSearches(ctx context.Context, window time.Duration) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT search_id FROM searches WHERE last_seen_at > $1 ORDER BY search_id`,
		time.Now().Add(-window))
	if err != nil {
		return nil, fmt.Errorf("postgres: recent searches: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (s *Store) TouchSearch(ctx context.Context, searchID string) error {
	query := `
		INSERT INTO searches (search_id, last_seen_at) VALUES ($1, NOW())
		ON CONFLICT (search_id) DO UPDATE SET last_seen_at = NOW()`

	if _, err := s.db.ExecContext(ctx, query, searchID); err != nil {
		return fmt.Errorf("postgres: touch search: %w", err)
	}
	return nil
}

func (s *Store) ForgetSearch(ctx context.Context, searchID string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM searches WHERE search_id = $1`, searchID); err != nil {
		return fmt.Errorf("postgres: forget search: %w", err)
	}
	return nil
}
