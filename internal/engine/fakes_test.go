package engine

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/tjsasakifln/PNCP-poc-sub007/internal/domain"
	"github.com/tjsasakifln/PNCP-poc-sub007/internal/journal"
	"github.com/tjsasakifln/PNCP-poc-sub007/internal/resilience"
	"go.uber.org/zap"
)

var testNow = time.Date(2026, 3, 10, 15, 0, 0, 0, time.UTC)

func ptr[T any](v T) *T { return &v }

type staticRules struct{ th resilience.Thresholds }

func (s staticRules) Rules() resilience.Rules {
	return resilience.NewRules(resilience.NewPtBR(), s.th)
}

// fakeFetcher отдает ошибки из errs по очереди, затем конверт из envs
type fakeFetcher struct {
	mu    sync.Mutex
	envs  map[string]domain.SearchEnvelope
	errs  []error
	calls int
}

func (f *fakeFetcher) FetchSearch(_ context.Context, id string) (*domain.SearchEnvelope, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if len(f.errs) > 0 {
		err := f.errs[0]
		f.errs = f.errs[1:]
		return nil, err
	}
	env, ok := f.envs[id]
	if !ok {
		return nil, domain.ErrSearchNotFound
	}
	return &env, nil
}

func (f *fakeFetcher) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type memJournal struct {
	mu      sync.Mutex
	entries []journal.Entry
}

func (m *memJournal) Log(e journal.Entry) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, e)
}

type fakeTracker struct {
	mu      sync.Mutex
	tracked map[string]bool
}

func newFakeTracker(ids ...string) *fakeTracker {
	t := &fakeTracker{tracked: map[string]bool{}}
	for _, id := range ids {
		t.tracked[id] = true
	}
	return t
}

func (t *fakeTracker) Track(_ context.Context, id string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.tracked[id] = true
	return nil
}

func (t *fakeTracker) Untrack(_ context.Context, id string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.tracked, id)
	return nil
}

func (t *fakeTracker) Snapshot() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]string, 0, len(t.tracked))
	for id := range t.tracked {
		out = append(out, id)
	}
	return out
}

func (t *fakeTracker) has(id string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.tracked[id]
}

func newRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	return mr, rdb
}

func envelope(id string, state domain.ResponseState) domain.SearchEnvelope {
	return domain.SearchEnvelope{SearchResponseMetadata: domain.SearchResponseMetadata{
		SearchID:      id,
		ResponseState: state,
		UFsRequested:  []string{"SP", "RJ"},
		UFsProcessed:  []string{"SP", "RJ"},
		DataTimestamp: ptr(testNow.Add(-5 * time.Minute)),
	}}
}

func newTestCore(f SearchFetcher, j journal.Logger, tr SearchTracker, n NoticeStore) *Core {
	return NewCore(CoreDeps{
		Rules:   staticRules{resilience.DefaultThresholds()},
		Journal: j,
		Fetcher: f,
		Tracker: tr,
		Notices: n,
		Clock:   resilience.FixedClock(testNow),
	}, zap.NewNop())
}
