package connectors

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/tjsasakifln/PNCP-poc-sub007/internal/domain"
)

// defaultRetryAfter если бэкенд не прислал Retry-After
const defaultRetryAfter = 2 * time.Second

// BackendClient читает результат поиска у бэкенда: GET {base}/v1/buscar/{id}
type BackendClient struct {
	baseURL string
	http    *http.Client
}

func NewBackendClient(baseURL string, timeout time.Duration) *BackendClient {
	return &BackendClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

func (c *BackendClient) FetchSearch(ctx context.Context, searchID string) (*domain.SearchEnvelope, error) {
	endpoint := c.baseURL + "/v1/buscar/" + url.PathEscape(searchID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("backend: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("backend: fetch %s: %w", searchID, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("backend: %s: %w", searchID, domain.ErrSearchNotFound)
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode == http.StatusServiceUnavailable:
		return nil, &ThrottleError{
			RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After"), time.Now()),
			Cause:      &StatusError{Code: resp.StatusCode},
		}
	case resp.StatusCode != http.StatusOK:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, &StatusError{Code: resp.StatusCode, Body: string(body)}
	}

	var env domain.SearchEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return nil, fmt.Errorf("backend: decode %s: %w", searchID, err)
	}
	if env.SearchID == "" {
		env.SearchID = searchID
	}
	if err := env.Validate(); err != nil {
		return nil, fmt.Errorf("backend: %s: %w", searchID, err)
	}
	return &env, nil
}

// parseRetryAfter секунды или HTTP-дата
func parseRetryAfter(v string, now time.Time) time.Duration {
	v = strings.TrimSpace(v)
	if v == "" {
		return defaultRetryAfter
	}
	if secs, err := strconv.Atoi(v); err == nil && secs >= 0 {
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(v); err == nil {
		if d := t.Sub(now); d > 0 {
			return d
		}
		return 0
	}
	return defaultRetryAfter
}

// IsPermanent ошибки, которые не имеет смысла повторять
func IsPermanent(err error) bool {
	var te *ThrottleError
	if errors.As(err, &te) {
		return false
	}
	if errors.Is(err, domain.ErrSearchNotFound) || errors.Is(err, domain.ErrMissingResponseState) {
		return true
	}
	var se *StatusError
	if errors.As(err, &se) {
		return se.Code >= 400 && se.Code < 500
	}
	return false
}
