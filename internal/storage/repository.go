package storage

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/yussieik/polyextract/internal/bars"
)

// batchSize bounds the number of rows sent in a single pgx.Batch, matching the reference
// repository's batching for resilience: a bad batch fails independently of the rest.
const batchSize = 1000

// Repository upserts cleaned bar frames into the minute_bars table.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a Repository over an existing pool.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// UpsertFrame writes every row in frame to minute_bars, batched, returning the count of rows
// successfully upserted. A batch that errors partway does not abort later batches; the
// repository continues and accumulates the count of what succeeded.
func (r *Repository) UpsertFrame(ctx context.Context, frame *bars.Frame) (int, error) {
	if len(frame.Rows) == 0 {
		return 0, nil
	}

	total := 0
	var lastErr error
	for i := 0; i < len(frame.Rows); i += batchSize {
		end := i + batchSize
		if end > len(frame.Rows) {
			end = len(frame.Rows)
		}
		count, err := r.upsertBatch(ctx, frame.Rows[i:end])
		total += count
		if err != nil {
			lastErr = err
		}
	}

	if lastErr != nil && total == 0 {
		return 0, lastErr
	}
	return total, nil
}

func (r *Repository) upsertBatch(ctx context.Context, rows []bars.Row) (int, error) {
	batch := &pgx.Batch{}
	for _, row := range rows {
		batch.Queue(`
			INSERT INTO minute_bars (
				ticker, time, mkt_date, open, high, low, close, vwap, volume, transactions, updated_at
			) VALUES (
				$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, NOW()
			)
			ON CONFLICT (ticker, time) DO UPDATE SET
				mkt_date     = EXCLUDED.mkt_date,
				open         = EXCLUDED.open,
				high         = EXCLUDED.high,
				low          = EXCLUDED.low,
				close        = EXCLUDED.close,
				vwap         = EXCLUDED.vwap,
				volume       = EXCLUDED.volume,
				transactions = EXCLUDED.transactions,
				updated_at   = NOW()
		`,
			row.Ticker, row.Time, row.MktDate, row.Open, row.High, row.Low, row.Close,
			row.VWAP, row.Volume, row.Transactions,
		)
	}

	br := r.pool.SendBatch(ctx, batch)
	defer br.Close()

	count := 0
	for range rows {
		if _, err := br.Exec(); err != nil {
			return count, fmt.Errorf("storage: upserting minute bar: %w", err)
		}
		count++
	}
	return count, nil
}

// LastBarTime returns the maximum time column already stored for ticker, or zero if none.
func (r *Repository) LastBarTime(ctx context.Context, ticker string) (int64, error) {
	var lastTime int64
	err := r.pool.QueryRow(ctx,
		"SELECT COALESCE(MAX(time), 0) FROM minute_bars WHERE ticker = $1", ticker,
	).Scan(&lastTime)
	if err != nil {
		return 0, fmt.Errorf("storage: querying last bar time for %s: %w", ticker, err)
	}
	return lastTime, nil
}
