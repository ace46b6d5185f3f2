// Package ticker implements the top-level per-ticker pipeline and the multi-ticker pool that
// fans work out across the shared rate-limited fetch pipeline.
package ticker

import (
	"context"
	"log"

	"github.com/yussieik/polyextract/internal/apperrors"
	"github.com/yussieik/polyextract/internal/bars"
	"github.com/yussieik/polyextract/internal/polygon"
	"golang.org/x/sync/errgroup"
)

// Pipeline wires together the query planner, fetcher, retry controller, frame assembler, and
// per-day cleaning pipeline for one ticker's job.
type Pipeline struct {
	Session polygon.Sender
	Market  bars.MarketTimezone
	Workers int
}

// NewPipeline constructs a Pipeline sharing the given sender (normally an *polygon.HttpSession,
// and transitively its rate limiter) across every ticker processed through it.
func NewPipeline(session polygon.Sender, market bars.MarketTimezone, workers int) *Pipeline {
	return &Pipeline{Session: session, Market: market, Workers: workers}
}

// Process runs one ticker's job end to end: plan queries, fetch with retry, assemble the
// canonical frame, then run the per-day session-filter/outlier-clean pipeline. It returns the
// cleaned frame and the summed (p1, p2) outlier counts.
func (p *Pipeline) Process(ctx context.Context, job bars.Job) (bars.Frame, int, int, error) {
	queries, err := polygon.Plan(job)
	if err != nil {
		return bars.Frame{}, 0, 0, err
	}

	fetcher := polygon.NewFetcher(p.Session)
	controller := polygon.NewRetryController(fetcher, job.Ticker, string(job.Resolution))

	outcomes, err := controller.Run(ctx, queries)
	if err != nil {
		return bars.Frame{}, 0, 0, err
	}

	var frame bars.Frame
	for _, o := range outcomes {
		rows, err := bars.AssembleDay(o.Body, o.Day)
		if err != nil {
			if anomaly, ok := err.(*apperrors.ParseAnomaly); ok {
				log.Printf("ticker %s: %v, dropping day %s", job.Ticker, anomaly, anomaly.Day)
				continue
			}
			return bars.Frame{}, 0, 0, err
		}
		frame.Append(rows)
	}
	frame.Finalize(job.Ticker)

	cleaned, p1, p2, err := bars.PerDayPipeline(ctx, &frame, p.Market, p.Workers)
	if err != nil {
		return bars.Frame{}, 0, 0, err
	}
	return cleaned, p1, p2, nil
}

// Result is one ticker's pipeline outcome within a pool run.
type Result struct {
	Ticker     string
	Frame      bars.Frame
	P1Outliers int
	P2Outliers int
	Err        error
}

// ProcessAll runs Process for every job concurrently, bounded by workers, and collects every
// result (success or per-ticker failure) without aborting the rest of the pool. A failing
// ticker never blocks its siblings; the caller inspects each Result's Err.
func (p *Pipeline) ProcessAll(ctx context.Context, jobs []bars.Job) []Result {
	results := make([]Result, len(jobs))

	g, groupCtx := errgroup.WithContext(ctx)
	if p.Workers > 0 {
		g.SetLimit(p.Workers)
	}

	for i, job := range jobs {
		i, job := i, job
		g.Go(func() error {
			frame, p1, p2, err := p.Process(groupCtx, job)
			results[i] = Result{Ticker: job.Ticker, Frame: frame, P1Outliers: p1, P2Outliers: p2, Err: err}
			return nil
		})
	}
	_ = g.Wait()

	return results
}
