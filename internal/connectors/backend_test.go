package connectors

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/tjsasakifln/PNCP-poc-sub007/internal/domain"
)

func TestFetchSearchDecodesEnvelope(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/buscar/abc" {
			t.Errorf("path = %q", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"response_state": "cached",
			"ufs_requested": ["SP","RJ"],
			"ufs_processed": ["SP"],
			"cached_at": "2026-03-10T14:30:00Z",
			"cache_status": "stale",
			"refresh_available": {"total_live": 8, "new_count": 2}
		}`))
	}))
	defer srv.Close()

	env, err := NewBackendClient(srv.URL+"/", time.Second).FetchSearch(context.Background(), "abc")
	if err != nil {
		t.Fatalf("FetchSearch: %v", err)
	}
	if env.SearchID != "abc" || env.ResponseState != domain.ResponseCached {
		t.Fatalf("env = %+v", env)
	}
	if env.CachedAt == nil || env.CacheStatus != domain.CacheStale {
		t.Fatalf("cache fields = %v %q", env.CachedAt, env.CacheStatus)
	}
	if env.RefreshAvailable == nil || env.RefreshAvailable.NewCount != 2 {
		t.Fatalf("RefreshAvailable = %+v", env.RefreshAvailable)
	}
}

func TestFetchSearchErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		header string
		body   string
		check  func(t *testing.T, err error)
	}{
		{"not found", http.StatusNotFound, "", "", func(t *testing.T, err error) {
			if !errors.Is(err, domain.ErrSearchNotFound) || !IsPermanent(err) {
				t.Fatalf("err = %v", err)
			}
		}},
		{"throttled", http.StatusTooManyRequests, "7", "", func(t *testing.T, err error) {
			var te *ThrottleError
			if !errors.As(err, &te) || te.RetryAfter != 7*time.Second {
				t.Fatalf("err = %v", err)
			}
			if IsPermanent(err) {
				t.Fatalf("throttle treated as permanent")
			}
		}},
		{"unavailable", http.StatusServiceUnavailable, "", "", func(t *testing.T, err error) {
			var te *ThrottleError
			if !errors.As(err, &te) || te.RetryAfter != defaultRetryAfter {
				t.Fatalf("err = %v", err)
			}
		}},
		{"server error", http.StatusInternalServerError, "", "boom", func(t *testing.T, err error) {
			var se *StatusError
			if !errors.As(err, &se) || se.Body != "boom" || IsPermanent(err) {
				t.Fatalf("err = %v", err)
			}
		}},
		{"missing response_state", http.StatusOK, "", `{"ufs_requested":["SP"]}`, func(t *testing.T, err error) {
			if !errors.Is(err, domain.ErrMissingResponseState) {
				t.Fatalf("err = %v", err)
			}
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if tt.header != "" {
					w.Header().Set("Retry-After", tt.header)
				}
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			_, err := NewBackendClient(srv.URL, time.Second).FetchSearch(context.Background(), "x")
			if err == nil {
				t.Fatalf("expected error")
			}
			tt.check(t, err)
		})
	}
}

func TestParseRetryAfter(t *testing.T) {
	now := time.Date(2026, 3, 10, 15, 0, 0, 0, time.UTC)
	tests := []struct {
		in   string
		want time.Duration
	}{
		{"", defaultRetryAfter},
		{"0", 0},
		{"30", 30 * time.Second},
		{"Tue, 10 Mar 2026 15:00:10 GMT", 10 * time.Second},
		{"Tue, 10 Mar 2026 14:00:00 GMT", 0},
		{"soon", defaultRetryAfter},
	}
	for _, tt := range tests {
		if got := parseRetryAfter(tt.in, now); got != tt.want {
			t.Errorf("parseRetryAfter(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestFixtureBackend(t *testing.T) {
	f := NewFixtureBackend(nil)
	if _, err := f.FetchSearch(context.Background(), "nope"); !errors.Is(err, domain.ErrSearchNotFound) {
		t.Fatalf("err = %v", err)
	}

	f.Put(domain.SearchEnvelope{SearchResponseMetadata: domain.SearchResponseMetadata{
		SearchID: "s1", ResponseState: domain.ResponseLive,
	}})
	env, err := f.FetchSearch(context.Background(), "s1")
	if err != nil || env.ResponseState != domain.ResponseLive {
		t.Fatalf("env=%+v err=%v", env, err)
	}
}
