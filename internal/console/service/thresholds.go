package service

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/tjsasakifln/PNCP-poc-sub007/internal/domain"
	"github.com/tjsasakifln/PNCP-poc-sub007/internal/infra"
	"github.com/tjsasakifln/PNCP-poc-sub007/internal/resilience"
	"github.com/tjsasakifln/PNCP-poc-sub007/internal/thresholds"
)

// ThresholdRepository требования сервиса к хранилищу границ
type ThresholdRepository interface {
	GetThresholds(ctx context.Context) (*domain.ThresholdSettings, error)
	UpsertThresholds(ctx context.Context, t domain.ThresholdSettings) error
}

type ThresholdService struct {
	repo     ThresholdRepository
	rdb      *redis.Client
	defaults resilience.Thresholds
}

func NewThresholdService(repo ThresholdRepository, rdb *redis.Client, defaults resilience.Thresholds) *ThresholdService {
	return &ThresholdService{
		repo:     repo,
		rdb:      rdb,
		defaults: defaults.Normalize(),
	}
}

// Get действующие границы; без строки в БД это значения конфига
func (s *ThresholdService) Get(ctx context.Context) (domain.ThresholdSettings, error) {
	row, err := s.repo.GetThresholds(ctx)
	if err != nil {
		return domain.ThresholdSettings{}, fmt.Errorf("threshold_service: get: %w", err)
	}
	if row == nil {
		return thresholds.ToSettings(s.defaults), nil
	}
	return *row, nil
}

// Update проверяет, сохраняет и рассылает сигнал шлюзам
func (s *ThresholdService) Update(ctx context.Context, t domain.ThresholdSettings) error {
	if err := t.Validate(); err != nil {
		return err
	}
	if err := s.repo.UpsertThresholds(ctx, t); err != nil {
		return fmt.Errorf("threshold_service: save: %w", err)
	}
	return s.notifyUpdate(ctx)
}

// notifyUpdate все thresholds.Store перечитают таблицу целиком
func (s *ThresholdService) notifyUpdate(ctx context.Context) error {
	return s.rdb.Publish(ctx, infra.RedisChanThresholdsUpdate, "refresh").Err()
}
