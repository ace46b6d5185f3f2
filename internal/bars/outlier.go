package bars

import "sort"

// madThreshold is the component-level constant from §4.8: aggressive (~10σ under the
// 1.4826 normal-distribution scaling), targeting obvious bad ticks while preserving
// realistic volatility spikes.
const madThreshold = 15.0

// CleanWicks runs the median-absolute-deviation outlier detector over one day's rows in
// place, clamping any row flagged p1/p2-outlier to the OHLC body bound. It returns the
// count of p1 and p2 outliers found, for observability only.
func CleanWicks(rows []Row) (p1Outliers, p2Outliers int) {
	if len(rows) == 0 {
		return 0, 0
	}

	p1 := make([]float64, len(rows))
	p2 := make([]float64, len(rows))

	for i, r := range rows {
		if r.Close >= r.Open {
			p1[i] = r.High - r.Close
			p2[i] = r.Open - r.Low
		} else {
			p1[i] = r.High - r.Open
			p2[i] = r.Close - r.Low
		}
	}

	p1Mask := detectOutliers(p1)
	p2Mask := detectOutliers(p2)

	for i := range rows {
		if p1Mask[i] {
			rows[i].High = maxOf(rows[i].Open, rows[i].Close)
			p1Outliers++
		}
		if p2Mask[i] {
			rows[i].Low = minOf(rows[i].Open, rows[i].Close)
			p2Outliers++
		}
	}

	return p1Outliers, p2Outliers
}

// detectOutliers returns a boolean mask the same length as x: true where |x_i - median(x)|
// exceeds madThreshold times the median absolute deviation.
func detectOutliers(x []float64) []bool {
	m := median(x)

	deviations := make([]float64, len(x))
	for i, v := range x {
		deviations[i] = abs(v - m)
	}
	mad := median(deviations)

	mask := make([]bool, len(x))
	for i, d := range deviations {
		mask[i] = d > madThreshold*mad
	}
	return mask
}

// median computes the standard sample median over a sorted copy of x: the middle element
// for odd length, the average of the two middle elements for even length.
func median(x []float64) float64 {
	if len(x) == 0 {
		return 0
	}
	sorted := append([]float64(nil), x...)
	sort.Float64s(sorted)
	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

func maxOf(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}

func minOf(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}
