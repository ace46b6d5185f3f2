package bars

import "sort"

// Row is one canonical bar: the renamed, schema-enforced columns of a minute aggregate.
type Row struct {
	Open         float64
	Close        float64
	High         float64
	Low          float64
	VWAP         float64
	Volume       int64
	Transactions int64
	Time         int64 // epoch ms, UTC
	MktDate      string
	Ticker       string
}

// Frame is the per-ticker bar set: single-owner, mutated in place by the per-day
// pipeline, finalized by sorting on MktDate.
type Frame struct {
	Rows []Row
}

// Append vertically concatenates a day's block onto the frame. Order-tolerant; Finalize
// establishes the sort.
func (f *Frame) Append(rows []Row) {
	f.Rows = append(f.Rows, rows...)
}

// Finalize stamps every row with ticker and sorts by MktDate ascending. It is the frame
// assembler's single global ordering guarantee.
func (f *Frame) Finalize(ticker string) {
	for i := range f.Rows {
		f.Rows[i].Ticker = ticker
	}
	sort.SliceStable(f.Rows, func(i, j int) bool {
		return f.Rows[i].MktDate < f.Rows[j].MktDate
	})
}

// GroupByDay partitions rows by MktDate, preserving the first-seen day order. Empty
// groups never occur since a day only appears via at least one appended row.
func (f *Frame) GroupByDay() []DayGroup {
	index := make(map[string]int)
	var groups []DayGroup
	for _, row := range f.Rows {
		if i, ok := index[row.MktDate]; ok {
			groups[i].Rows = append(groups[i].Rows, row)
			continue
		}
		index[row.MktDate] = len(groups)
		groups = append(groups, DayGroup{Day: row.MktDate, Rows: []Row{row}})
	}
	return groups
}

// DayGroup is a partition of the bar frame keyed by trading day.
type DayGroup struct {
	Day  string
	Rows []Row
}
