package resilience

import (
	"time"

	"github.com/tjsasakifln/PNCP-poc-sub007/internal/domain"
)

var testNow = time.Date(2026, 3, 10, 15, 0, 0, 0, time.UTC)

func testRules() Rules {
	return NewRules(NewPtBR(), DefaultThresholds())
}

func ptr[T any](v T) *T { return &v }

func ago(d time.Duration) *time.Time {
	t := testNow.Add(-d)
	return &t
}

func nineUFsMeta() domain.SearchResponseMetadata {
	return domain.SearchResponseMetadata{
		ResponseState: domain.ResponseLive,
		UFsRequested:  []string{"SP", "RJ", "MG", "PR", "SC", "RS", "BA", "PE", "CE"},
		UFsProcessed:  []string{"SP", "RJ", "MG", "PR", "SC", "RS", "BA"},
		UFsFailed:     []string{"PE", "CE"},
		CoveragePct:   ptr(77.8),
	}
}
