package bars

import (
	"context"
	"sort"

	"golang.org/x/sync/errgroup"
)

// DayResult is the outcome of running the per-day pipeline over a single mkt_date group.
type DayResult struct {
	Day         string
	Rows        []Row
	P1Outliers  int
	P2Outliers  int
}

// PerDayPipeline runs SessionFilter then WickOutlierCleaner over each mkt_date group of a
// finalized frame, independently, and re-concatenates the cleaned groups in mkt_date
// order. Days that reduce to zero rows after session filtering are dropped silently and
// contribute zero to the outlier counts. Groups are processed on a bounded pool of
// workers since cleaning one day never depends on another.
func PerDayPipeline(ctx context.Context, frame *Frame, market MarketTimezone, workers int) (Frame, int, int, error) {
	groups := frame.GroupByDay()
	results := make([]DayResult, len(groups))

	g, ctx := errgroup.WithContext(ctx)
	if workers > 0 {
		g.SetLimit(workers)
	}

	for i, group := range groups {
		i, group := i, group
		g.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}

			filtered, err := FilterSession(group.Rows, market, group.Day)
			if err != nil {
				return err
			}
			if len(filtered) == 0 {
				results[i] = DayResult{Day: group.Day}
				return nil
			}

			p1, p2 := CleanWicks(filtered)
			results[i] = DayResult{Day: group.Day, Rows: filtered, P1Outliers: p1, P2Outliers: p2}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return Frame{}, 0, 0, err
	}

	sort.SliceStable(results, func(i, j int) bool { return results[i].Day < results[j].Day })

	var cleaned Frame
	var totalP1, totalP2 int
	for _, r := range results {
		cleaned.Append(r.Rows)
		totalP1 += r.P1Outliers
		totalP2 += r.P2Outliers
	}

	return cleaned, totalP1, totalP2, nil
}
