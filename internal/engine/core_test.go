package engine

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/sony/gobreaker"
	"github.com/tjsasakifln/PNCP-poc-sub007/internal/connectors"
	"github.com/tjsasakifln/PNCP-poc-sub007/internal/domain"
	"github.com/tjsasakifln/PNCP-poc-sub007/internal/resilience"
)

func TestCoreResolveJournalsAndFlagsIssues(t *testing.T) {
	j := &memJournal{}
	c := newTestCore(nil, j, nil, nil)

	meta := domain.SearchResponseMetadata{
		SearchID:      "s-1",
		ResponseState: domain.ResponseLive,
		UFsRequested:  []string{"SP", "RJ", "MG", "PR", "SC", "RS", "BA", "PE", "CE"},
		UFsProcessed:  []string{"SP", "RJ", "MG", "PR", "SC", "RS", "BA"},
		UFsFailed:     []string{"PE", "CE"},
		CoveragePct:   ptr(77.8),
	}
	ctx := WithTraceID(context.Background(), "trace-1")
	view, err := c.Resolve(ctx, meta, SourceHTTP)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if view.State.Tier != domain.TierPartial || view.State.CoveragePct != 78 {
		t.Fatalf("state = %+v", view.State)
	}
	if !strings.Contains(view.CoverageLabel, "7 de 9") {
		t.Fatalf("CoverageLabel = %q", view.CoverageLabel)
	}
	if len(view.QualityIssues) != 0 {
		t.Fatalf("QualityIssues = %v", view.QualityIssues)
	}

	if len(j.entries) != 1 {
		t.Fatalf("journal entries = %d, want 1", len(j.entries))
	}
	e := j.entries[0]
	if e.TraceID != "trace-1" || e.SearchID != "s-1" || e.Tier != "partial" || e.Source != SourceHTTP {
		t.Fatalf("entry = %+v", e)
	}
}

func TestCoreResolveRejectsMissingState(t *testing.T) {
	c := newTestCore(nil, nil, nil, nil)
	_, err := c.Resolve(context.Background(), domain.SearchResponseMetadata{}, SourceHTTP)
	if !errors.Is(err, domain.ErrMissingResponseState) {
		t.Fatalf("err = %v", err)
	}
}

func TestCoreResolveRecordsQualityIssues(t *testing.T) {
	c := newTestCore(nil, nil, nil, nil)
	view, err := c.Resolve(context.Background(), domain.SearchResponseMetadata{
		ResponseState: domain.ResponseLive,
		CoveragePct:   ptr(-5.0),
	}, SourceHTTP)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if !view.State.CoverageClamped || len(view.QualityIssues) != 1 {
		t.Fatalf("clamped=%v issues=%v", view.State.CoverageClamped, view.QualityIssues)
	}
}

func TestCoreFetchAndResolveTracksAndSummarizes(t *testing.T) {
	env := envelope("s-1", domain.ResponseCached)
	env.CachedAt = ptr(testNow.Add(-30 * time.Minute))
	env.CacheStatus = "cached_fresh"
	env.RefreshAvailable = &domain.RefreshAvailableInfo{TotalLive: 8}

	tr := newFakeTracker()
	c := newTestCore(&fakeFetcher{envs: map[string]domain.SearchEnvelope{"s-1": env}}, nil, tr, nil)

	view, err := c.FetchAndResolve(context.Background(), "s-1")
	if err != nil {
		t.Fatalf("FetchAndResolve: %v", err)
	}
	if view.Freshness.RelativeAge != "há 30 minutos" || !view.State.RefreshAction {
		t.Fatalf("freshness=%+v refresh=%v", view.Freshness, view.State.RefreshAction)
	}
	if view.Refresh == nil || view.Refresh.Text != "8 oportunidades" {
		t.Fatalf("Refresh = %+v", view.Refresh)
	}
	if !tr.has("s-1") {
		t.Fatalf("search not tracked")
	}
}

func TestCoreFetchAndResolveRendersFailure(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		reason resilience.FailureReason
	}{
		{"upstream", &connectors.StatusError{Code: 502}, resilience.FailureUpstream},
		{"throttled", &connectors.ThrottleError{RetryAfter: time.Second}, resilience.FailureThrottled},
		{"circuit open", gobreaker.ErrOpenState, resilience.FailureCircuitOpen},
		{"timeout", context.DeadlineExceeded, resilience.FailureTimeout},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := newFakeTracker()
			c := newTestCore(&fakeFetcher{errs: []error{tt.err}}, nil, tr, nil)

			view, err := c.FetchAndResolve(context.Background(), "s-1")
			if err != nil {
				t.Fatalf("FetchAndResolve: %v", err)
			}
			if view.State.Tier != domain.TierUnavailable || view.State.Color != domain.ColorRed {
				t.Fatalf("state = %+v", view.State)
			}
			want := resilience.NewPtBR().FailureGuidance(tt.reason)
			if view.Banner.Message != want {
				t.Fatalf("Banner.Message = %q, want %q", view.Banner.Message, want)
			}
			if tr.has("s-1") {
				t.Fatalf("failed search tracked")
			}
		})
	}
}

func TestCoreFetchAndResolveNotFound(t *testing.T) {
	c := newTestCore(&fakeFetcher{}, nil, nil, nil)
	if _, err := c.FetchAndResolve(context.Background(), "nope"); !errors.Is(err, domain.ErrSearchNotFound) {
		t.Fatalf("err = %v", err)
	}
}

func TestCoreForget(t *testing.T) {
	tr := newFakeTracker("s-1")
	c := newTestCore(nil, nil, tr, nil)
	if err := c.Forget(context.Background(), "s-1"); err != nil {
		t.Fatalf("Forget: %v", err)
	}
	if tr.has("s-1") {
		t.Fatalf("still tracked")
	}
	if _, err := c.AcceptRefresh(context.Background(), "s-1"); !errors.Is(err, domain.ErrNoticeNotFound) {
		t.Fatalf("AcceptRefresh err = %v", err)
	}
}
