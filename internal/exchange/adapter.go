package exchange

import (
	"context"

	"github.com/pkg/errors"
)

// ErrUnsupported is returned by adapter operations the venue variant does
// not implement (no authenticated trading).
var ErrUnsupported = errors.New("operation not supported by this adapter")

type OrderResult struct {
	OrderID string
	Status  string
	Price   float64
	Qty     float64
	Side    string // BUY/SELL
}

// Adapter abstracts the capability set the trading layer needs from an
// exchange: price discovery, simulated order management, balance lookup.
type Adapter interface {
	EnsureSymbol(ctx context.Context, symbol string) error
	Price(ctx context.Context, symbol string) (float64, error)
	CreateOrder(ctx context.Context, symbol, side string, qty, price float64) (OrderResult, error)
	CancelOrder(ctx context.Context, orderID string) error
	Balance(ctx context.Context, asset string) (float64, error)
}
