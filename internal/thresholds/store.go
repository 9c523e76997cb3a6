package thresholds

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/tjsasakifln/PNCP-poc-sub007/internal/domain"
	"github.com/tjsasakifln/PNCP-poc-sub007/internal/infra"
	"github.com/tjsasakifln/PNCP-poc-sub007/internal/resilience"
	"go.uber.org/zap"
)

type Repository interface {
	// GetThresholds nil без ошибки, если строки еще нет
	GetThresholds(ctx context.Context) (*domain.ThresholdSettings, error)
}

// Store in-memory копия границ движка. Синхронизируется с БД при старте и по сигналу
// из Redis, а в горячем пути читается только память.
type Store struct {
	mu       sync.RWMutex
	current  resilience.Thresholds
	defaults resilience.Thresholds
	loc      resilience.Locale

	repo   Repository // nil: работаем только на конфиге
	rdb    *redis.Client
	logger *zap.Logger
}

func NewStore(defaults resilience.Thresholds, loc resilience.Locale, repo Repository, rdb *redis.Client, logger *zap.Logger) *Store {
	defaults = defaults.Normalize()
	return &Store{
		current:  defaults,
		defaults: defaults,
		loc:      loc,
		repo:     repo,
		rdb:      rdb,
		logger:   logger.Named("thresholds"),
	}
}

// Current текущие границы (Hot Path)
func (s *Store) Current() resilience.Thresholds {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Rules набор правил на текущих границах
func (s *Store) Rules() resilience.Rules {
	return resilience.NewRules(s.loc, s.Current())
}

// Refresh холодная загрузка из PostgreSQL. Если строки нет, остаются значения конфига.
func (s *Store) Refresh(ctx context.Context) error {
	if s.repo == nil {
		return nil
	}
	row, err := s.repo.GetThresholds(ctx)
	if err != nil {
		return fmt.Errorf("thresholds: load: %w", err)
	}

	next := s.defaults
	if row != nil {
		next = FromSettings(*row, s.defaults)
	}

	s.mu.Lock()
	s.current = next
	s.mu.Unlock()

	s.logger.Info("thresholds refreshed",
		zap.Int("partial_coverage_min_pct", next.PartialCoverageMinPct),
		zap.Duration("cache_stale_after", next.CacheStaleAfter),
		zap.Int("max_records_limit", next.MaxRecordsLimit),
	)
	return nil
}

// StartListener перечитывает таблицу на каждый сигнал консоли
func (s *Store) StartListener(ctx context.Context) {
	refresh := func() error { return s.Refresh(ctx) }
	infra.ListenResilient(ctx, s.rdb, s.logger, infra.RedisChanThresholdsUpdate, refresh, func(string) {
		if err := refresh(); err != nil {
			s.logger.Error("refresh on signal failed", zap.Error(err))
		}
	})
}

// FromSettings невалидные поля строки заменяются дефолтами
func FromSettings(row domain.ThresholdSettings, defaults resilience.Thresholds) resilience.Thresholds {
	th := resilience.Thresholds{
		PartialCoverageMinPct: row.PartialCoverageMinPct,
		CacheStaleAfter:       time.Duration(row.CacheStaleAfterSeconds) * time.Second,
		MaxRecordsLimit:       row.MaxRecordsLimit,
	}
	if th.PartialCoverageMinPct <= 0 || th.PartialCoverageMinPct > 100 {
		th.PartialCoverageMinPct = defaults.PartialCoverageMinPct
	}
	if th.CacheStaleAfter <= 0 {
		th.CacheStaleAfter = defaults.CacheStaleAfter
	}
	if th.MaxRecordsLimit <= 0 {
		th.MaxRecordsLimit = defaults.MaxRecordsLimit
	}
	return th
}

// ToSettings обратное преобразование для консоли
func ToSettings(th resilience.Thresholds) domain.ThresholdSettings {
	return domain.ThresholdSettings{
		PartialCoverageMinPct:  th.PartialCoverageMinPct,
		CacheStaleAfterSeconds: int(th.CacheStaleAfter / time.Second),
		MaxRecordsLimit:        th.MaxRecordsLimit,
	}
}
