package polygon

import (
	"context"
	"time"

	"github.com/yussieik/polyextract/internal/apperrors"
)

const maxRetryRounds = 5

// retryKey is the structured (ticker, date, resolution) identity the retry table is keyed by,
// rather than the raw URL string, so a single fragile string-split recovers the day only at
// the outcome-extraction boundary and never propagates further.
type retryKey struct {
	ticker     string
	day        string
	resolution string
}

// sleepFunc is overridable for deterministic tests; production uses time.Sleep.
var sleepFunc = time.Sleep

// RetryController re-submits failing queries for up to maxRetryRounds, sleeping 2^(k+1) seconds
// between round k and k+1 when work remains. It returns the combined successful outcomes and,
// if residual failures remain after the budget, an *apperrors.AggregateRetryExhausted error.
type RetryController struct {
	fetcher    *Fetcher
	ticker     string
	resolution string
}

// NewRetryController constructs a controller for one ticker/resolution's fetch pipeline.
func NewRetryController(fetcher *Fetcher, ticker string, resolution string) *RetryController {
	return &RetryController{fetcher: fetcher, ticker: ticker, resolution: resolution}
}

// Run issues the initial query set, then retries failures up to maxRetryRounds times with
// exponential backoff (2, 4, 8, 16, 32 seconds between rounds). It returns every successful
// outcome across all rounds.
func (r *RetryController) Run(ctx context.Context, queries []PlannedQuery) ([]FetchOutcome, error) {
	pending := queries
	var succeeded []FetchOutcome
	lastErr := make(map[retryKey]string)

	for round := 0; ; round++ {
		outcomes := r.fetcher.FetchAll(ctx, pending)

		var retry []PlannedQuery
		for _, o := range outcomes {
			key := retryKey{ticker: r.ticker, day: o.Day, resolution: r.resolution}
			if o.Err == nil {
				succeeded = append(succeeded, o)
				delete(lastErr, key)
				continue
			}
			lastErr[key] = o.Err.Error()
			retry = append(retry, findQuery(pending, o.Day))
		}

		if len(retry) == 0 {
			return succeeded, nil
		}
		if round >= maxRetryRounds {
			return succeeded, aggregateError(r.ticker, lastErr)
		}

		select {
		case <-ctx.Done():
			return succeeded, ctx.Err()
		default:
		}

		sleepFunc(backoffFor(round))
		pending = retry
	}
}

func backoffFor(round int) time.Duration {
	return time.Duration(1<<uint(round+1)) * time.Second
}

func findQuery(queries []PlannedQuery, day string) PlannedQuery {
	for _, q := range queries {
		if q.Day == day {
			return q
		}
	}
	return PlannedQuery{Day: day}
}

func aggregateError(ticker string, lastErr map[retryKey]string) error {
	failed := make([]apperrors.FailedDay, 0, len(lastErr))
	for key, errMsg := range lastErr {
		failed = append(failed, apperrors.FailedDay{Day: key.day, Err: errMsg})
	}
	return &apperrors.AggregateRetryExhausted{Ticker: ticker, Failed: failed}
}
