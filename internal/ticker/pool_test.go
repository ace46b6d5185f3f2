package ticker

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/yussieik/polyextract/internal/bars"
)

// fakeSender is a hand-written fake implementing polygon.Sender, returning a canned response
// regardless of URL so pipeline tests never touch the real network.
type fakeSender struct {
	body string
	err  error
}

func (f *fakeSender) Send(ctx context.Context, rawURL string) ([]byte, error) {
	if f.err != nil {
		return nil, f.err
	}
	return []byte(f.body), nil
}

func TestPipelineProcessEndToEnd(t *testing.T) {
	loc, _ := time.LoadLocation("America/New_York")
	inSession := time.Date(2023, 11, 13, 10, 0, 0, 0, loc).UnixMilli()

	body := fmt.Sprintf(`{"resultsCount":1,"results":[{"v":1000,"vw":150.1,"o":150.0,"c":150.2,"h":150.3,"l":149.9,"t":%d,"n":10}]}`, inSession)
	sender := &fakeSender{body: body}
	pipeline := NewPipeline(sender, bars.Eastern, 4)

	start := time.Date(2023, 11, 13, 0, 0, 0, 0, time.UTC)
	job, err := bars.NewJob("AAPL", start, start, bars.Minute, 1)
	if err != nil {
		t.Fatalf("unexpected error building job: %v", err)
	}

	cleaned, p1, p2, err := pipeline.Process(context.Background(), job)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(cleaned.Rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(cleaned.Rows))
	}
	if cleaned.Rows[0].Ticker != "AAPL" {
		t.Errorf("expected ticker stamped on row, got %q", cleaned.Rows[0].Ticker)
	}
	if p1 != 0 || p2 != 0 {
		t.Errorf("expected no outliers for a single row, got p1=%d p2=%d", p1, p2)
	}
}

func TestPipelineProcessDropsDaysOutsideSession(t *testing.T) {
	loc, _ := time.LoadLocation("America/New_York")
	beforeOpen := time.Date(2023, 11, 13, 4, 0, 0, 0, loc).UnixMilli()

	body := fmt.Sprintf(`{"resultsCount":1,"results":[{"v":1000,"vw":150.1,"o":150.0,"c":150.2,"h":150.3,"l":149.9,"t":%d,"n":10}]}`, beforeOpen)
	sender := &fakeSender{body: body}
	pipeline := NewPipeline(sender, bars.Eastern, 4)

	start := time.Date(2023, 11, 13, 0, 0, 0, 0, time.UTC)
	job, _ := bars.NewJob("AAPL", start, start, bars.Minute, 1)

	cleaned, _, _, err := pipeline.Process(context.Background(), job)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(cleaned.Rows) != 0 {
		t.Fatalf("expected pre-market row dropped, got %d rows", len(cleaned.Rows))
	}
}

func TestProcessAllCollectsPerTickerResultsWithoutAbortingSiblings(t *testing.T) {
	sender := &fakeSender{body: `{"resultsCount":0,"results":[]}`}
	pipeline := NewPipeline(sender, bars.Eastern, 4)

	start := time.Date(2023, 11, 13, 0, 0, 0, 0, time.UTC)
	jobA, _ := bars.NewJob("AAPL", start, start, bars.Minute, 1)
	jobB, _ := bars.NewJob("MSFT", start, start, bars.Minute, 1)

	results := pipeline.ProcessAll(context.Background(), []bars.Job{jobA, jobB})
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	tickers := map[string]bool{}
	for _, r := range results {
		if r.Err != nil {
			t.Errorf("unexpected error for %s: %v", r.Ticker, r.Err)
		}
		tickers[r.Ticker] = true
	}
	if !tickers["AAPL"] || !tickers["MSFT"] {
		t.Errorf("expected both tickers represented, got %+v", results)
	}
}
