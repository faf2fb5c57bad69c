package service

import (
	"context"

	"marketdesk/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/pkg/errors"
)

const upsertCandleSQL = `
INSERT INTO candles (symbol, timeframe, open, high, low, close, volume, ts)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
ON CONFLICT (symbol, timeframe, ts) DO UPDATE SET
    open = EXCLUDED.open,
    high = EXCLUDED.high,
    low = EXCLUDED.low,
    close = EXCLUDED.close,
    volume = EXCLUDED.volume`

// UpsertCandles bulk-writes candles keyed by (symbol, timeframe, ts).
// Re-ingesting a bucket overwrites its OHLCV fields. Returns rows affected.
func (s *Store) UpsertCandles(ctx context.Context, rows []models.Candle) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	batch := &pgx.Batch{}
	for _, r := range rows {
		batch.Queue(upsertCandleSQL,
			r.Symbol, r.Timeframe, r.Open, r.High, r.Low, r.Close, r.Volume, utcNaive(r.TS))
	}

	var affected int64
	err := s.db.RunMaster(ctx, func(ctxTx context.Context, tx pgx.Tx) error {
		br := tx.SendBatch(ctxTx, batch)
		defer br.Close()
		for range rows {
			tag, err := br.Exec()
			if err != nil {
				return err
			}
			affected += tag.RowsAffected()
		}
		return nil
	})
	if err != nil {
		return 0, errors.Wrap(err, "marketstore.UpsertCandles")
	}
	return affected, nil
}

// LatestCandles returns the most recent candles, newest first.
func (s *Store) LatestCandles(ctx context.Context, symbol, timeframe string, limit int) ([]models.Candle, error) {
	rows, err := s.db.Conn().Query(ctx,
		`SELECT symbol, timeframe, open, high, low, close, volume, ts
		   FROM candles
		  WHERE symbol = $1 AND timeframe = $2
		  ORDER BY ts DESC
		  LIMIT $3`,
		symbol, timeframe, limit)
	if err != nil {
		return nil, errors.Wrap(err, "marketstore.LatestCandles")
	}
	defer rows.Close()

	var out []models.Candle
	for rows.Next() {
		var c models.Candle
		if err := rows.Scan(&c.Symbol, &c.Timeframe, &c.Open, &c.High, &c.Low, &c.Close, &c.Volume, &c.TS); err != nil {
			return nil, errors.Wrap(err, "marketstore.LatestCandles: scan")
		}
		out = append(out, c)
	}
	return out, errors.Wrap(rows.Err(), "marketstore.LatestCandles")
}
