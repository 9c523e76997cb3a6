package connectors

import (
	"context"

	"github.com/tjsasakifln/PNCP-poc-sub007/internal/domain"
	"github.com/tjsasakifln/PNCP-poc-sub007/internal/infra"
)

// Fetcher общий контракт HTTP-клиента и фикстур
type Fetcher interface {
	FetchSearch(ctx context.Context, searchID string) (*domain.SearchEnvelope, error)
}

// FromConfig фикстуры, если задан путь к ним, иначе HTTP-клиент бэкенда
func FromConfig(cfg infra.BackendConfig) (Fetcher, error) {
	if cfg.Fixtures != "" {
		return LoadFixtureFile(cfg.Fixtures)
	}
	return NewBackendClient(cfg.BaseURL, cfg.Timeout), nil
}
