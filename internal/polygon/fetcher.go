package polygon

import (
	"context"
	"strings"

	"golang.org/x/sync/errgroup"
)

const maxInFlight = 100

// FetchOutcome is the per-URL result of one Fetcher pass.
type FetchOutcome struct {
	Day  string
	Body []byte
	Err  error
}

// Sender is the one method a Fetcher needs from an HTTP session. *HttpSession implements it;
// tests substitute a hand-written fake to avoid real network calls.
type Sender interface {
	Send(ctx context.Context, rawURL string) ([]byte, error)
}

// Fetcher issues a planned query sequence with bounded in-flight concurrency and reports every
// outcome, success or failure, back to the caller. Completion order is undefined.
type Fetcher struct {
	session Sender
}

// NewFetcher constructs a Fetcher over a shared Sender (normally an *HttpSession).
func NewFetcher(session Sender) *Fetcher {
	return &Fetcher{session: session}
}

// FetchAll issues every query in queries with at most 100 in flight at once, via an
// errgroup.Group with SetLimit. Each outcome (success or transport error) is returned; the
// caller separates the two by checking Err.
func (f *Fetcher) FetchAll(ctx context.Context, queries []PlannedQuery) []FetchOutcome {
	outcomes := make([]FetchOutcome, len(queries))

	// Every goroutine below always returns nil: failures are reported as FetchOutcome.Err,
	// not as the errgroup error, so one failing request never cancels its siblings via
	// errgroup's fail-fast context. Only the caller's own ctx cancellation propagates.
	g, groupCtx := errgroup.WithContext(ctx)
	g.SetLimit(maxInFlight)

	for i, q := range queries {
		i, q := i, q
		g.Go(func() error {
			body, err := f.session.Send(groupCtx, q.URL)
			day := q.Day
			if day == "" {
				day = dayFromURL(q.URL)
			}
			outcomes[i] = FetchOutcome{Day: day, Body: body, Err: err}
			return nil
		})
	}
	_ = g.Wait()

	return outcomes
}

// dayFromURL recovers the trading day from a rendered query URL by splitting on "/" and taking
// the 11th segment (0-indexed 10), stripping any "?..." suffix. Used as a fallback when the
// caller does not already know the day (e.g. when re-deriving outcomes from a raw failure URL
// during a retry round). If extraction fails the raw URL is returned as the key, a non-fatal
// anomaly.
func dayFromURL(rawURL string) string {
	segments := strings.Split(rawURL, "/")
	const dayIndex = 10
	if len(segments) <= dayIndex {
		return rawURL
	}
	day := segments[dayIndex]
	if idx := strings.IndexByte(day, '?'); idx >= 0 {
		day = day[:idx]
	}
	return day
}
