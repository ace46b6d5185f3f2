package polygon

import (
	"fmt"

	"github.com/yussieik/polyextract/internal/bars"
)

const aggsBaseURL = "https://api.polygon.io/v2/aggs/ticker"

// PlannedQuery pairs a day with the URL that fetches it.
type PlannedQuery struct {
	Day string
	URL string
}

// Plan renders one URL per day in the job's date range, substituting {ticker}, {start_date},
// {end_date}, and {limit} into the resolution's registered template, one day per URL
// (start_date == end_date). Ordering of the returned slice is not significant.
func Plan(job bars.Job) ([]PlannedQuery, error) {
	spec, err := bars.SpecFor(job.Resolution)
	if err != nil {
		return nil, err
	}

	days := job.Days()
	queries := make([]PlannedQuery, 0, len(days))
	for _, day := range days {
		queries = append(queries, PlannedQuery{
			Day: day,
			URL: renderURL(job.Ticker, spec.PathSegment, day, day, spec.DefaultLimit),
		})
	}
	return queries, nil
}

func renderURL(ticker, pathSegment, startDate, endDate string, limit int) string {
	return fmt.Sprintf(
		"%s/%s/range/%s/%s/%s?adjusted=true&sort=asc&limit=%d",
		aggsBaseURL, ticker, pathSegment, startDate, endDate, limit,
	)
}
