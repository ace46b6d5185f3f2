package polygon

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/yussieik/polyextract/internal/ratelimit"
)

func TestFetchAllReturnsOneOutcomePerQuery(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"resultsCount":1,"results":[{"v":1,"vw":1,"o":1,"c":1,"h":1,"l":1,"t":1,"n":1}]}`))
	}))
	defer server.Close()

	session := NewHttpSession("test-key", ratelimit.New(1000, 1000))
	fetcher := NewFetcher(session)

	queries := []PlannedQuery{
		{Day: "2023-11-13", URL: server.URL + "/a"},
		{Day: "2023-11-14", URL: server.URL + "/b"},
	}

	outcomes := fetcher.FetchAll(context.Background(), queries)
	if len(outcomes) != 2 {
		t.Fatalf("expected 2 outcomes, got %d", len(outcomes))
	}
	for _, o := range outcomes {
		if o.Err != nil {
			t.Errorf("unexpected error for day %s: %v", o.Day, o.Err)
		}
		if len(o.Body) == 0 {
			t.Errorf("expected non-empty body for day %s", o.Day)
		}
	}
}

func TestFetchAllReportsFailuresWithoutAbortingSiblings(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/fail" {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte(`{"resultsCount":0,"results":[]}`))
	}))
	defer server.Close()

	session := NewHttpSession("test-key", ratelimit.New(1000, 1000))
	fetcher := NewFetcher(session)

	queries := []PlannedQuery{
		{Day: "2023-11-13", URL: server.URL + "/ok"},
		{Day: "2023-11-14", URL: server.URL + "/fail"},
	}

	outcomes := fetcher.FetchAll(context.Background(), queries)
	var okCount, failCount int
	for _, o := range outcomes {
		if o.Err == nil {
			okCount++
		} else {
			failCount++
		}
	}
	if okCount != 1 || failCount != 1 {
		t.Errorf("expected 1 success and 1 failure, got ok=%d fail=%d", okCount, failCount)
	}
}

func TestDayFromURLExtractsDaySegment(t *testing.T) {
	url := "https://api.polygon.io/v2/aggs/ticker/AAPL/range/1/minute/2023-11-13/2023-11-13?adjusted=true"
	if got := dayFromURL(url); got != "2023-11-13" {
		t.Errorf("got %q want 2023-11-13", got)
	}
}
