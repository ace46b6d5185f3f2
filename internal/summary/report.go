// Package summary produces the added daily summary report: per-day row counts, a
// VWAP-weighted average price, total volume, and that day's outlier counts. Purely
// observational — it reads a cleaned frame and never feeds back into it.
package summary

import (
	"sort"

	"github.com/shopspring/decimal"
	"gonum.org/v1/gonum/stat"

	"github.com/yussieik/polyextract/internal/bars"
)

// DayReport is one trading day's summary.
type DayReport struct {
	Day          string
	Ticker       string
	RowCount     int
	WeightedVWAP decimal.Decimal
	TotalVolume  int64
	HighLowRange float64 // mean(high-low) across the day, an observational volatility metric
	P1Outliers   int
	P2Outliers   int
}

// Build computes one DayReport per mkt_date in the cleaned frame, using the per-day outlier
// counts already computed by bars.PerDayPipeline. Days absent from outlierCounts (e.g. an
// empty frame) default to zero outliers.
func Build(frame *bars.Frame, outlierCounts map[string][2]int) []DayReport {
	groups := frame.GroupByDay()
	reports := make([]DayReport, 0, len(groups))

	for _, group := range groups {
		reports = append(reports, buildDay(group, outlierCounts[group.Day]))
	}

	sort.SliceStable(reports, func(i, j int) bool { return reports[i].Day < reports[j].Day })
	return reports
}

func buildDay(group bars.DayGroup, counts [2]int) DayReport {
	weightedNotional := decimal.Zero
	totalVolume := decimal.Zero
	ranges := make([]float64, len(group.Rows))

	for i, row := range group.Rows {
		vwap := decimal.NewFromFloat(row.VWAP)
		volume := decimal.NewFromInt(row.Volume)
		weightedNotional = weightedNotional.Add(vwap.Mul(volume))
		totalVolume = totalVolume.Add(volume)
		ranges[i] = row.High - row.Low
	}

	weightedVWAP := decimal.Zero
	if !totalVolume.IsZero() {
		weightedVWAP = weightedNotional.Div(totalVolume)
	}

	var ticker string
	if len(group.Rows) > 0 {
		ticker = group.Rows[0].Ticker
	}

	return DayReport{
		Day:          group.Day,
		Ticker:       ticker,
		RowCount:     len(group.Rows),
		WeightedVWAP: weightedVWAP,
		TotalVolume:  totalVolume.IntPart(),
		HighLowRange: stat.Mean(ranges, nil),
		P1Outliers:   counts[0],
		P2Outliers:   counts[1],
	}
}
