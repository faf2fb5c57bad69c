package service

import (
	"context"

	"marketdesk/internal/models"

	"github.com/bytedance/sonic"
	"github.com/pkg/errors"
)

// levelsToJSON stores levels in the wire shape [[price, qty], ...].
func levelsToJSON(levels []models.BookLevel) ([]byte, error) {
	pairs := make([][2]float64, 0, len(levels))
	for _, lv := range levels {
		pairs = append(pairs, [2]float64{lv.Price, lv.Qty})
	}
	return sonic.Marshal(pairs)
}

func levelsFromJSON(raw []byte) ([]models.BookLevel, error) {
	var pairs [][2]float64
	if err := sonic.Unmarshal(raw, &pairs); err != nil {
		return nil, err
	}
	out := make([]models.BookLevel, 0, len(pairs))
	for _, p := range pairs {
		out = append(out, models.BookLevel{Price: p[0], Qty: p[1]})
	}
	return out, nil
}

// InsertOrderBookSnapshot appends one snapshot.
func (s *Store) InsertOrderBookSnapshot(ctx context.Context, ob models.OrderBookSnapshot) error {
	bids, err := levelsToJSON(ob.Bids)
	if err != nil {
		return errors.Wrap(err, "marketstore.InsertOrderBookSnapshot: bids")
	}
	asks, err := levelsToJSON(ob.Asks)
	if err != nil {
		return errors.Wrap(err, "marketstore.InsertOrderBookSnapshot: asks")
	}
	_, err = s.db.Conn().Exec(ctx,
		`INSERT INTO orderbook_snapshots (symbol, bids_json, asks_json, imbalance, spread, ts)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		ob.Symbol, bids, asks, ob.Imbalance, ob.Spread, utcNaive(ob.TS))
	return errors.Wrap(err, "marketstore.InsertOrderBookSnapshot")
}

// LatestOrderBooks returns the most recent snapshots, newest first.
func (s *Store) LatestOrderBooks(ctx context.Context, symbol string, limit int) ([]models.OrderBookSnapshot, error) {
	rows, err := s.db.Conn().Query(ctx,
		`SELECT symbol, bids_json, asks_json, imbalance, spread, ts
		   FROM orderbook_snapshots
		  WHERE symbol = $1
		  ORDER BY ts DESC
		  LIMIT $2`,
		symbol, limit)
	if err != nil {
		return nil, errors.Wrap(err, "marketstore.LatestOrderBooks")
	}
	defer rows.Close()

	var out []models.OrderBookSnapshot
	for rows.Next() {
		var ob models.OrderBookSnapshot
		var bids, asks []byte
		if err := rows.Scan(&ob.Symbol, &bids, &asks, &ob.Imbalance, &ob.Spread, &ob.TS); err != nil {
			return nil, errors.Wrap(err, "marketstore.LatestOrderBooks: scan")
		}
		if ob.Bids, err = levelsFromJSON(bids); err != nil {
			return nil, errors.Wrap(err, "marketstore.LatestOrderBooks: bids")
		}
		if ob.Asks, err = levelsFromJSON(asks); err != nil {
			return nil, errors.Wrap(err, "marketstore.LatestOrderBooks: asks")
		}
		out = append(out, ob)
	}
	return out, errors.Wrap(rows.Err(), "marketstore.LatestOrderBooks")
}
