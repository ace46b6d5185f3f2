package polygon

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/yussieik/polyextract/internal/apperrors"
	"github.com/yussieik/polyextract/internal/ratelimit"
)

func withFakeSleep(t *testing.T) *[]time.Duration {
	t.Helper()
	var slept []time.Duration
	original := sleepFunc
	sleepFunc = func(d time.Duration) { slept = append(slept, d) }
	t.Cleanup(func() { sleepFunc = original })
	return &slept
}

func TestRetryControllerSucceedsAfterTransientFailures(t *testing.T) {
	slept := withFakeSleep(t)

	var attempts int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&attempts, 1) <= 2 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte(`{"resultsCount":0,"results":[]}`))
	}))
	defer server.Close()

	session := NewHttpSession("test-key", ratelimit.New(1000, 1000))
	fetcher := NewFetcher(session)
	controller := NewRetryController(fetcher, "AAPL", "minute")

	queries := []PlannedQuery{{Day: "2023-11-13", URL: server.URL}}
	outcomes, err := controller.Run(context.Background(), queries)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(outcomes) != 1 {
		t.Fatalf("expected 1 successful outcome, got %d", len(outcomes))
	}
	if len(*slept) != 2 {
		t.Fatalf("expected 2 backoff sleeps before success, got %d", len(*slept))
	}
	if (*slept)[0] != 2*time.Second || (*slept)[1] != 4*time.Second {
		t.Errorf("unexpected backoff sequence: %v", *slept)
	}
}

func TestRetryControllerExhaustsBudget(t *testing.T) {
	withFakeSleep(t)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	session := NewHttpSession("test-key", ratelimit.New(1000, 1000))
	fetcher := NewFetcher(session)
	controller := NewRetryController(fetcher, "AAPL", "minute")

	queries := []PlannedQuery{{Day: "2023-11-13", URL: server.URL}}
	_, err := controller.Run(context.Background(), queries)
	if err == nil {
		t.Fatal("expected aggregate retry exhausted error")
	}
	var exhausted *apperrors.AggregateRetryExhausted
	if ex, ok := err.(*apperrors.AggregateRetryExhausted); ok {
		exhausted = ex
	} else {
		t.Fatalf("expected *apperrors.AggregateRetryExhausted, got %T", err)
	}
	if len(exhausted.Failed) != 1 || exhausted.Failed[0].Day != "2023-11-13" {
		t.Errorf("unexpected failed days: %+v", exhausted.Failed)
	}
}
