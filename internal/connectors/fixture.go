package connectors

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand/v2"
	"os"
	"sync"
	"time"

	"github.com/tjsasakifln/PNCP-poc-sub007/internal/domain"
)

// FixtureBackend отдает заранее заготовленные конверты вместо бэкенда (локальная разработка, демо)
type FixtureBackend struct {
	mu        sync.RWMutex
	envelopes map[string]domain.SearchEnvelope
	// MaxLatency имитирует задержку сети; 0 отключает
	MaxLatency time.Duration
}

func NewFixtureBackend(envelopes map[string]domain.SearchEnvelope) *FixtureBackend {
	if envelopes == nil {
		envelopes = make(map[string]domain.SearchEnvelope)
	}
	return &FixtureBackend{envelopes: envelopes}
}

// LoadFixtureFile JSON-объект {"search_id": {...конверт...}}
func LoadFixtureFile(path string) (*FixtureBackend, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("fixtures: read %s: %w", path, err)
	}
	envelopes := make(map[string]domain.SearchEnvelope)
	if err := json.Unmarshal(data, &envelopes); err != nil {
		return nil, fmt.Errorf("fixtures: decode %s: %w", path, err)
	}
	for id, env := range envelopes {
		env.SearchID = id
		envelopes[id] = env
	}
	return NewFixtureBackend(envelopes), nil
}

// Put заменяет конверт (тесты и демо "обновление появилось")
func (f *FixtureBackend) Put(env domain.SearchEnvelope) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.envelopes[env.SearchID] = env
}

func (f *FixtureBackend) FetchSearch(ctx context.Context, searchID string) (*domain.SearchEnvelope, error) {
	if f.MaxLatency > 0 {
		latency := time.Duration(rand.Int64N(int64(f.MaxLatency)))
		select {
		case <-time.After(latency):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	f.mu.RLock()
	env, ok := f.envelopes[searchID]
	f.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("fixtures: %s: %w", searchID, domain.ErrSearchNotFound)
	}
	return &env, nil
}
