package engine

import (
	"context"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/tjsasakifln/PNCP-poc-sub007/internal/domain"
	"github.com/tjsasakifln/PNCP-poc-sub007/internal/resilience"
	"go.uber.org/zap"
)

type memNotices struct {
	mu      sync.Mutex
	notices map[string]domain.RefreshNotice
	puts    int
}

func (m *memNotices) Get(id string) (domain.RefreshNotice, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n, ok := m.notices[id]
	return n, ok
}

func (m *memNotices) Put(_ context.Context, n domain.RefreshNotice) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.notices[n.SearchID] = n
	m.puts++
	return nil
}

func newTestPoller(tr TrackedSource, f SearchFetcher, n NoticeSink, m *Metrics) *RefreshPoller {
	return NewRefreshPoller(tr, f, n,
		staticRules{resilience.DefaultThresholds()},
		resilience.FixedClock(testNow),
		nil,
		PollerConfig{Concurrency: 2},
		m, zap.NewNop())
}

func TestPollOnceStoresNotices(t *testing.T) {
	withDelta := envelope("s-1", domain.ResponseLive)
	withDelta.RefreshAvailable = &domain.RefreshAvailableInfo{TotalLive: 50, NewCount: 3, UpdatedCount: 1, RemovedCount: 2}
	unchanged := envelope("s-2", domain.ResponseLive)

	f := &fakeFetcher{envs: map[string]domain.SearchEnvelope{"s-1": withDelta, "s-2": unchanged}}
	n := &memNotices{notices: map[string]domain.RefreshNotice{}}
	m := NewMetrics(nil)
	p := newTestPoller(newFakeTracker("s-1", "s-2"), f, n, m)

	found, err := p.PollOnce(context.Background())
	if err != nil {
		t.Fatalf("PollOnce: %v", err)
	}
	if found != 1 {
		t.Fatalf("found = %d, want 1", found)
	}
	got := n.notices["s-1"]
	if got.Summary.Text != "3 novas, 1 atualizada e 2 removidas" {
		t.Fatalf("Summary.Text = %q", got.Summary.Text)
	}
	if !got.DetectedAt.Equal(testNow) {
		t.Fatalf("DetectedAt = %v", got.DetectedAt)
	}
	if got := testutil.ToFloat64(m.NoticesFound); got != 1 {
		t.Fatalf("NoticesFound = %v, want 1", got)
	}

	// Та же дельта второй раз не публикуется
	found, err = p.PollOnce(context.Background())
	if err != nil || found != 0 || n.puts != 1 {
		t.Fatalf("second poll: found=%d puts=%d err=%v", found, n.puts, err)
	}
}

func TestPollOnceClampsNegativeCounts(t *testing.T) {
	env := envelope("s-1", domain.ResponseLive)
	env.RefreshAvailable = &domain.RefreshAvailableInfo{TotalLive: 7, NewCount: -1}

	n := &memNotices{notices: map[string]domain.RefreshNotice{}}
	p := newTestPoller(newFakeTracker("s-1"),
		&fakeFetcher{envs: map[string]domain.SearchEnvelope{"s-1": env}}, n, nil)

	if _, err := p.PollOnce(context.Background()); err != nil {
		t.Fatalf("PollOnce: %v", err)
	}
	got := n.notices["s-1"]
	if got.Info.NewCount != 0 || got.Summary.Text != "7 oportunidades" {
		t.Fatalf("notice = %+v", got)
	}
}

func TestPollOnceUntracksExpiredSearch(t *testing.T) {
	tr := newFakeTracker("gone")
	n := &memNotices{notices: map[string]domain.RefreshNotice{}}
	p := newTestPoller(tr, &fakeFetcher{}, n, nil)

	if _, err := p.PollOnce(context.Background()); err != nil {
		t.Fatalf("PollOnce: %v", err)
	}
	if tr.has("gone") {
		t.Fatalf("expired search still tracked")
	}
	if n.puts != 0 {
		t.Fatalf("puts = %d, want 0", n.puts)
	}
}

func TestPollOnceCancelled(t *testing.T) {
	p := newTestPoller(newFakeTracker("s-1"), &fakeFetcher{}, &memNotices{notices: map[string]domain.RefreshNotice{}}, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := p.PollOnce(ctx); err == nil {
		t.Fatalf("expected context error")
	}
}

func TestPollerTickLock(t *testing.T) {
	_, rdb := newRedis(t)
	env := envelope("s-1", domain.ResponseLive)
	env.RefreshAvailable = &domain.RefreshAvailableInfo{TotalLive: 1, NewCount: 1}

	f := &fakeFetcher{envs: map[string]domain.SearchEnvelope{"s-1": env}}
	n := &memNotices{notices: map[string]domain.RefreshNotice{}}
	p := NewRefreshPoller(newFakeTracker("s-1"), f, n,
		staticRules{resilience.DefaultThresholds()}, resilience.FixedClock(testNow),
		rdb, PollerConfig{}, nil, zap.NewNop())

	p.tick(context.Background())
	p.tick(context.Background()) // блокировка тика еще жива

	if got := f.callCount(); got != 1 {
		t.Fatalf("fetch calls = %d, want 1", got)
	}
}
