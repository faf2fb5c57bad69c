package exchange

import (
	"context"

	binance "marketdesk/internal/modules/binance/service"

	"github.com/pkg/errors"
)

// Binance is the real-venue adapter variant. It serves price discovery
// through the venue client; order management stays unsupported because
// authenticated trading is out of scope.
type Binance struct {
	client *binance.Client
}

func NewBinance(client *binance.Client) *Binance {
	return &Binance{client: client}
}

func (b *Binance) EnsureSymbol(ctx context.Context, symbol string) error {
	return nil
}

func (b *Binance) Price(ctx context.Context, symbol string) (float64, error) {
	prices := b.client.FetchPrices(ctx, []string{symbol})
	p, ok := prices[symbol]
	if !ok || p <= 0 {
		return 0, errors.Errorf("no price for %s", symbol)
	}
	return p, nil
}

func (b *Binance) CreateOrder(ctx context.Context, symbol, side string, qty, price float64) (OrderResult, error) {
	return OrderResult{}, errors.Wrap(ErrUnsupported, "create order")
}

func (b *Binance) CancelOrder(ctx context.Context, orderID string) error {
	return errors.Wrap(ErrUnsupported, "cancel order")
}

func (b *Binance) Balance(ctx context.Context, asset string) (float64, error) {
	return 0, errors.Wrap(ErrUnsupported, "balance")
}
