package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/tjsasakifln/PNCP-poc-sub007/internal/domain"
)

// GetThresholds единственная строка engine_thresholds; nil, если ее еще не создали
func (s *Store) GetThresholds(ctx context.Context) (*domain.ThresholdSettings, error) {
	query := `
		SELECT partial_coverage_min_pct, cache_stale_after_seconds, max_records_limit, updated_by, updated_at
		FROM engine_thresholds
		WHERE id = 1`

	var t domain.ThresholdSettings
	err := s.db.QueryRowContext(ctx, query).Scan(
		&t.PartialCoverageMinPct,
		&t.CacheStaleAfterSeconds,
		&t.MaxRecordsLimit,
		&t.UpdatedBy,
		&t.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // Работаем на значениях конфига
		}
		return nil, fmt.Errorf("postgres: get thresholds: %w", err)
	}
	return &t, nil
}

// UpsertThresholds создает или перезаписывает строку
func (s *Store) UpsertThresholds(ctx context.Context, t domain.ThresholdSettings) error {
	query := `
		INSERT INTO engine_thresholds (id, partial_coverage_min_pct, cache_stale_after_seconds, max_records_limit, updated_by, updated_at)
		VALUES (1, $1, $2, $3, $4, NOW())
		ON CONFLICT (id) DO UPDATE SET
			partial_coverage_min_pct  = EXCLUDED.partial_coverage_min_pct,
			cache_stale_after_seconds = EXCLUDED.cache_stale_after_seconds,
			max_records_limit         = EXCLUDED.max_records_limit,
			updated_by                = EXCLUDED.updated_by,
			updated_at                = NOW()`

	_, err := s.db.ExecContext(ctx, query,
		t.PartialCoverageMinPct, t.CacheStaleAfterSeconds, t.MaxRecordsLimit, t.UpdatedBy)
	if err != nil {
		return fmt.Errorf("postgres: upsert thresholds: %w", err)
	}
	return nil
}
