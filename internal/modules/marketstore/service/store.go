package service

import (
	"context"
	"strings"
	"time"

	"marketdesk/pkg/db"

	"github.com/jackc/pgx/v5"
	"github.com/pkg/errors"
)

// Store is the only writer of historical market data. All writes are
// idempotent: candles and features upsert, ticks treat duplicates as
// no-ops, order books append.
type Store struct {
	db db.TxManager
}

func NewStore(txm db.TxManager) *Store {
	return &Store{db: txm}
}

// EnsureInstruments inserts missing instruments; existing rows are untouched.
func (s *Store) EnsureInstruments(ctx context.Context, symbols []string) error {
	if len(symbols) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, sym := range symbols {
		batch.Queue(
			`INSERT INTO instruments (name) VALUES ($1) ON CONFLICT (name) DO NOTHING`,
			strings.ToUpper(sym),
		)
	}
	err := s.db.RunMaster(ctx, func(ctxTx context.Context, tx pgx.Tx) error {
		br := tx.SendBatch(ctxTx, batch)
		defer br.Close()
		for range symbols {
			if _, err := br.Exec(); err != nil {
				return err
			}
		}
		return nil
	})
	return errors.Wrap(err, "marketstore.EnsureInstruments")
}

// Instruments lists known instrument names, sorted.
func (s *Store) Instruments(ctx context.Context) ([]string, error) {
	rows, err := s.db.Conn().Query(ctx, `SELECT name FROM instruments ORDER BY name`)
	if err != nil {
		return nil, errors.Wrap(err, "marketstore.Instruments")
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, errors.Wrap(err, "marketstore.Instruments: scan")
		}
		out = append(out, name)
	}
	return out, errors.Wrap(rows.Err(), "marketstore.Instruments")
}

// ResetPriceHistory clears tick history only; instruments remain.
func (s *Store) ResetPriceHistory(ctx context.Context) error {
	_, err := s.db.Conn().Exec(ctx, `DELETE FROM price_ticks`)
	return errors.Wrap(err, "marketstore.ResetPriceHistory")
}

// ResetSession clears orders, positions and tick history to start a fresh
// paper-trading session. Candles and order books are kept.
func (s *Store) ResetSession(ctx context.Context) error {
	err := s.db.RunMaster(ctx, func(ctxTx context.Context, tx pgx.Tx) error {
		for _, q := range []string{
			`DELETE FROM orders`,
			`DELETE FROM positions`,
			`DELETE FROM price_ticks`,
		} {
			if _, err := tx.Exec(ctxTx, q); err != nil {
				return err
			}
		}
		return nil
	})
	return errors.Wrap(err, "marketstore.ResetSession")
}

func utcNaive(t time.Time) time.Time {
	return t.UTC()
}
