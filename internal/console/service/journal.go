package service

import (
	"context"
	"fmt"
	"time"

	"github.com/tjsasakifln/PNCP-poc-sub007/internal/domain"
	"github.com/tjsasakifln/PNCP-poc-sub007/internal/journal"
)

// JournalReader чтение журнала резолюций
type JournalReader interface {
	FetchJournal(ctx context.Context, f domain.JournalFilter) ([]journal.Entry, error)
	TierDistribution(ctx context.Context, window time.Duration) (*domain.TierStats, error)
}

// DashboardWindow окно сводки по уровням
const DashboardWindow = 60 * time.Minute

type JournalService struct {
	repo JournalReader
}

func NewJournalService(repo JournalReader) *JournalService {
	return &JournalService{repo: repo}
}

// Fetch последние резолюции с фильтрами
func (s *JournalService) Fetch(ctx context.Context, f domain.JournalFilter) ([]journal.Entry, error) {
	entries, err := s.repo.FetchJournal(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("journal_service: fetch: %w", err)
	}
	return entries, nil
}

func (s *JournalService) TierStats(ctx context.Context) (*domain.TierStats, error) {
	st, err := s.repo.TierDistribution(ctx, DashboardWindow)
	if err != nil {
		return nil, fmt.Errorf("journal_service: tier stats: %w", err)
	}
	return st, nil
}
