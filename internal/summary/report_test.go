package summary

import (
	"testing"

	"github.com/yussieik/polyextract/internal/bars"
)

func TestBuildComputesVWAPWeightedAverage(t *testing.T) {
	var frame bars.Frame
	frame.Append(sampleRows())
	frame.Finalize("AAPL")

	reports := Build(&frame, map[string][2]int{"2023-11-13": {1, 0}})
	if len(reports) != 1 {
		t.Fatalf("expected 1 day report, got %d", len(reports))
	}

	r := reports[0]
	if r.RowCount != 2 {
		t.Errorf("expected 2 rows, got %d", r.RowCount)
	}
	if r.TotalVolume != 300 {
		t.Errorf("expected total volume 300, got %d", r.TotalVolume)
	}
	// weighted = (100*100 + 200*200) / 300 = (10000+40000)/300 = 166.666...
	want := 166.67
	got, _ := r.WeightedVWAP.Round(2).Float64()
	if got != want {
		t.Errorf("weighted vwap: got %v want %v", got, want)
	}
	if r.P1Outliers != 1 || r.P2Outliers != 0 {
		t.Errorf("expected outlier counts carried through, got p1=%d p2=%d", r.P1Outliers, r.P2Outliers)
	}
}

func sampleRows() []bars.Row {
	return []bars.Row{
		{MktDate: "2023-11-13", VWAP: 100, Volume: 100, High: 10, Low: 9},
		{MktDate: "2023-11-13", VWAP: 200, Volume: 200, High: 12, Low: 8},
	}
}
