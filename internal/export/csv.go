// Package export writes a finalized bar frame to disk as the tidy tabular data set named in
// the purpose & scope section — one CSV file per ticker, canonical column header included.
package export

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/yussieik/polyextract/internal/bars"
)

var header = []string{
	"ticker", "mkt_date", "time", "open", "high", "low", "close", "vwap", "volume", "transactions",
}

// WriteCSV writes frame to dir/<ticker>.csv, one row per bar, header first.
func WriteCSV(frame *bars.Frame, ticker, dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("export: creating output dir %s: %w", dir, err)
	}

	path := filepath.Join(dir, ticker+".csv")
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("export: creating %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)

	if err := w.Write(header); err != nil {
		return fmt.Errorf("export: writing header for %s: %w", ticker, err)
	}

	for _, row := range frame.Rows {
		record := []string{
			row.Ticker,
			row.MktDate,
			strconv.FormatInt(row.Time, 10),
			strconv.FormatFloat(row.Open, 'f', -1, 64),
			strconv.FormatFloat(row.High, 'f', -1, 64),
			strconv.FormatFloat(row.Low, 'f', -1, 64),
			strconv.FormatFloat(row.Close, 'f', -1, 64),
			strconv.FormatFloat(row.VWAP, 'f', -1, 64),
			strconv.FormatInt(row.Volume, 10),
			strconv.FormatInt(row.Transactions, 10),
		}
		if err := w.Write(record); err != nil {
			return fmt.Errorf("export: writing row for %s: %w", ticker, err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("export: flushing %s: %w", ticker, err)
	}
	return nil
}
