// Package polygon implements the upstream fetch pipeline: a rate-limited HTTP session, the
// query planner that renders per-day URLs, the bounded-concurrency fetcher, and the retry
// controller that re-submits transient failures with exponential backoff.
package polygon

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/yussieik/polyextract/internal/apperrors"
	"github.com/yussieik/polyextract/internal/ratelimit"
)

const defaultTimeout = 60 * time.Second

// HttpSession is the single shared entry point for issuing requests to the upstream API. The
// client is constructed once and reused across calls for its connection pool, matching the
// reference client's style. The session never retries; that is the RetryController's job.
type HttpSession struct {
	apiKey     string
	httpClient *http.Client
	limiter    *ratelimit.Bucket
}

// NewHttpSession constructs a session sharing the given rate limiter (typically a process-wide
// singleton shared across every ticker's fetch pipeline).
func NewHttpSession(apiKey string, limiter *ratelimit.Bucket) *HttpSession {
	return &HttpSession{
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: defaultTimeout},
		limiter:    limiter,
	}
}

// Send appends the API key as a query parameter, acquires one rate-limiter token, and issues a
// GET. Transport failures and non-2xx responses surface as a *apperrors.TransportError.
func (s *HttpSession) Send(ctx context.Context, rawURL string) ([]byte, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, &apperrors.TransportError{URL: rawURL, Err: err}
	}
	q := u.Query()
	q.Set("apiKey", s.apiKey)
	u.RawQuery = q.Encode()

	s.limiter.Acquire()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, &apperrors.TransportError{URL: rawURL, Err: err}
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, &apperrors.TransportError{URL: rawURL, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &apperrors.TransportError{URL: rawURL, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &apperrors.TransportError{URL: rawURL, Err: fmt.Errorf("unexpected status %d: %s", resp.StatusCode, truncate(body))}
	}

	return body, nil
}

func truncate(body []byte) string {
	const n = 200
	if len(body) <= n {
		return string(body)
	}
	return string(body[:n]) + "..."
}
