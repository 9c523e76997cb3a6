package resilience

import (
	"testing"
	"time"

	"github.com/tjsasakifln/PNCP-poc-sub007/internal/domain"
)

func TestClassifyCache(t *testing.T) {
	tests := []struct {
		name     string
		explicit domain.CacheStatus
		want     domain.CacheStatus
	}{
		{"absent defaults to stale", "", domain.CacheStale},
		{"fresh passes through", domain.CacheFresh, domain.CacheFresh},
		{"stale passes through", domain.CacheStale, domain.CacheStale},
		{"unknown value passes through", "cached_fresh", "cached_fresh"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// возраст не влияет на явный статус
			if got := ClassifyCache(ago(400*24*time.Hour), tt.explicit); got != tt.want {
				t.Fatalf("ClassifyCache = %q, want %q", got, tt.want)
			}
			if got := ClassifyCache(nil, tt.explicit); got != tt.want {
				t.Fatalf("ClassifyCache(nil) = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRefreshActionVisible(t *testing.T) {
	tests := map[domain.CacheStatus]bool{
		domain.CacheFresh: false,
		domain.CacheLive:  false,
		domain.CacheStale: true,
		"cached_fresh":    true,
		"":                true,
	}
	for status, want := range tests {
		if got := RefreshActionVisible(status); got != want {
			t.Errorf("RefreshActionVisible(%q) = %v, want %v", status, got, want)
		}
	}
}
