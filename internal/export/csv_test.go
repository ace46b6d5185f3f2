package export

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/yussieik/polyextract/internal/bars"
)

func TestWriteCSVWritesHeaderAndRows(t *testing.T) {
	dir := t.TempDir()

	var frame bars.Frame
	frame.Append([]bars.Row{
		{Open: 1, Close: 2, High: 3, Low: 0.5, VWAP: 1.5, Volume: 100, Transactions: 5, Time: 1700000000000, MktDate: "2023-11-14"},
	})
	frame.Finalize("AAPL")

	if err := WriteCSV(&frame, "AAPL", dir); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "AAPL.csv"))
	if err != nil {
		t.Fatalf("expected file written: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected header + 1 data row, got %d lines", len(lines))
	}
	if !strings.HasPrefix(lines[0], "ticker,mkt_date,time,open") {
		t.Errorf("unexpected header: %s", lines[0])
	}
	if !strings.HasPrefix(lines[1], "AAPL,2023-11-14,1700000000000,1") {
		t.Errorf("unexpected row: %s", lines[1])
	}
}
