package service

import (
	"context"
	"strings"
	"time"

	"marketdesk/internal/models"
	"marketdesk/pkg/db"

	"github.com/jackc/pgx/v5"
	"github.com/opentracing/opentracing-go"
	"github.com/pkg/errors"
)

// ErrInvalidOrder is surfaced synchronously to the caller; invalid orders
// are rejected, never retried.
var ErrInvalidOrder = errors.New("invalid order")

type priceSource interface {
	Price(ctx context.Context, symbol string) (float64, error)
}

// Ledger simulates order execution against a position table with
// average-cost accounting. It does not depend on market-data freshness.
type Ledger struct {
	db     db.TxManager
	prices priceSource
}

func NewLedger(txm db.TxManager, prices priceSource) *Ledger {
	return &Ledger{db: txm, prices: prices}
}

// applyFill folds one fill into a position. BUY recomputes the volume-
// weighted average price; SELL floors quantity at zero (no shorts) and
// resets the average when the position closes.
func applyFill(qty, avgPrice float64, side string, fillQty, fillPrice float64) (float64, float64) {
	switch side {
	case models.SideBuy:
		newQty := qty + fillQty
		if newQty == 0 {
			return 0, 0
		}
		return newQty, (avgPrice*qty + fillPrice*fillQty) / newQty
	case models.SideSell:
		newQty := qty - fillQty
		if newQty <= 0 {
			return 0, 0
		}
		return newQty, avgPrice
	}
	return qty, avgPrice
}

// ExecuteOrder records a filled paper order and updates the matching
// position in the same transaction. The position row is locked so that
// concurrent orders for one instrument serialize against each other while
// different instruments proceed independently.
func (l *Ledger) ExecuteOrder(ctx context.Context, symbol, side string, qty, price float64) (models.Order, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "ledger.ExecuteOrder")
	defer span.Finish()

	side = strings.ToUpper(strings.TrimSpace(side))
	if side != models.SideBuy && side != models.SideSell {
		return models.Order{}, errors.Wrapf(ErrInvalidOrder, "unknown side %q", side)
	}
	if qty <= 0 {
		return models.Order{}, errors.Wrap(ErrInvalidOrder, "quantity must be positive")
	}
	symbol = strings.ToUpper(symbol)

	// price <= 0 means a market order at the current venue price
	if price <= 0 {
		p, err := l.prices.Price(ctx, symbol)
		if err != nil {
			return models.Order{}, errors.Wrapf(ErrInvalidOrder, "no market price for %s: %v", symbol, err)
		}
		price = p
	}

	var order models.Order
	err := l.db.RunMaster(ctx, func(ctxTx context.Context, tx pgx.Tx) error {
		if _, err := tx.Exec(ctxTx,
			`INSERT INTO instruments (name) VALUES ($1) ON CONFLICT (name) DO NOTHING`,
			symbol); err != nil {
			return err
		}

		order = models.Order{Symbol: symbol, Side: side, Qty: qty, Price: price, Status: models.OrderStatusFilled}
		if err := tx.QueryRow(ctxTx,
			`INSERT INTO orders (symbol, side, qty, price, status)
			 VALUES ($1, $2, $3, $4, $5)
			 RETURNING id, ts`,
			symbol, side, qty, price, order.Status).Scan(&order.ID, &order.TS); err != nil {
			return err
		}

		// two first orders for a brand-new symbol race on the zero row:
		// seed it idempotently, then lock whichever row survived
		if _, err := tx.Exec(ctxTx,
			`INSERT INTO positions (symbol, qty, avg_price) VALUES ($1, 0, 0)
			 ON CONFLICT (symbol) DO NOTHING`,
			symbol); err != nil {
			return err
		}

		var curQty, curAvg float64
		if err := tx.QueryRow(ctxTx,
			`SELECT qty, avg_price FROM positions WHERE symbol = $1 FOR UPDATE`,
			symbol).Scan(&curQty, &curAvg); err != nil {
			return err
		}

		newQty, newAvg := applyFill(curQty, curAvg, side, qty, price)
		_, err := tx.Exec(ctxTx,
			`UPDATE positions SET qty = $2, avg_price = $3, updated_at = $4 WHERE symbol = $1`,
			symbol, newQty, newAvg, time.Now().UTC())
		return err
	})
	if err != nil {
		return models.Order{}, errors.Wrap(err, "ledger.ExecuteOrder")
	}
	return order, nil
}

// ListOrders returns recent orders, newest first.
func (l *Ledger) ListOrders(ctx context.Context, limit int) ([]models.Order, error) {
	if limit <= 0 {
		limit = 200
	}
	rows, err := l.db.Conn().Query(ctx,
		`SELECT id, symbol, side, qty, price, status, ts
		   FROM orders ORDER BY id DESC LIMIT $1`, limit)
	if err != nil {
		return nil, errors.Wrap(err, "ledger.ListOrders")
	}
	defer rows.Close()

	var out []models.Order
	for rows.Next() {
		var o models.Order
		if err := rows.Scan(&o.ID, &o.Symbol, &o.Side, &o.Qty, &o.Price, &o.Status, &o.TS); err != nil {
			return nil, errors.Wrap(err, "ledger.ListOrders: scan")
		}
		out = append(out, o)
	}
	return out, errors.Wrap(rows.Err(), "ledger.ListOrders")
}

// ListPositions returns all positions ordered by instrument.
func (l *Ledger) ListPositions(ctx context.Context) ([]models.Position, error) {
	rows, err := l.db.Conn().Query(ctx,
		`SELECT symbol, qty, avg_price, updated_at
		   FROM positions ORDER BY symbol`)
	if err != nil {
		return nil, errors.Wrap(err, "ledger.ListPositions")
	}
	defer rows.Close()

	var out []models.Position
	for rows.Next() {
		var p models.Position
		if err := rows.Scan(&p.Symbol, &p.Qty, &p.AvgPrice, &p.UpdatedAt); err != nil {
			return nil, errors.Wrap(err, "ledger.ListPositions: scan")
		}
		out = append(out, p)
	}
	return out, errors.Wrap(rows.Err(), "ledger.ListPositions")
}
