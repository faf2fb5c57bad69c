package service

import (
	"context"
	"time"

	"marketdesk/internal/models"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pkg/errors"
)

const pgUniqueViolation = "23505"

func isDuplicateKey(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}

// InsertPriceTick appends one tick. A duplicate (symbol, ts) is a benign
// no-op, not an error: concurrent ingestion loops may observe the same
// price at the same instant.
func (s *Store) InsertPriceTick(ctx context.Context, symbol string, price float64, ts time.Time) error {
	_, err := s.db.Conn().Exec(ctx,
		`INSERT INTO price_ticks (symbol, price, ts) VALUES ($1, $2, $3)`,
		symbol, price, utcNaive(ts))
	if err != nil {
		if isDuplicateKey(err) {
			return nil
		}
		return errors.Wrap(err, "marketstore.InsertPriceTick")
	}
	return nil
}

// RecentTicks returns the most recent ticks for a symbol, newest first.
func (s *Store) RecentTicks(ctx context.Context, symbol string, limit int) ([]models.PriceTick, error) {
	rows, err := s.db.Conn().Query(ctx,
		`SELECT symbol, price, ts FROM price_ticks
		  WHERE symbol = $1 ORDER BY ts DESC LIMIT $2`,
		symbol, limit)
	if err != nil {
		return nil, errors.Wrap(err, "marketstore.RecentTicks")
	}
	defer rows.Close()

	var out []models.PriceTick
	for rows.Next() {
		var t models.PriceTick
		if err := rows.Scan(&t.Symbol, &t.Price, &t.TS); err != nil {
			return nil, errors.Wrap(err, "marketstore.RecentTicks: scan")
		}
		out = append(out, t)
	}
	return out, errors.Wrap(rows.Err(), "marketstore.RecentTicks")
}

// LatestPrices returns the latest observed price per instrument.
func (s *Store) LatestPrices(ctx context.Context) (map[string]float64, error) {
	rows, err := s.db.Conn().Query(ctx,
		`SELECT DISTINCT ON (symbol) symbol, price
		   FROM price_ticks
		  ORDER BY symbol, ts DESC`)
	if err != nil {
		return nil, errors.Wrap(err, "marketstore.LatestPrices")
	}
	defer rows.Close()

	out := make(map[string]float64)
	for rows.Next() {
		var sym string
		var price float64
		if err := rows.Scan(&sym, &price); err != nil {
			return nil, errors.Wrap(err, "marketstore.LatestPrices: scan")
		}
		out[sym] = price
	}
	return out, errors.Wrap(rows.Err(), "marketstore.LatestPrices")
}
