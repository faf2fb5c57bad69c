package exchange

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDryRunFillsImmediately(t *testing.T) {
	d := NewDryRun()
	ctx := context.Background()

	require.NoError(t, d.EnsureSymbol(ctx, "BTCUSDT"))
	d.SetPrice("BTCUSDT", 65000)

	res, err := d.CreateOrder(ctx, "BTCUSDT", "buy", 0.5, 0)
	require.NoError(t, err)
	assert.Equal(t, "1", res.OrderID)
	assert.Equal(t, "FILLED", res.Status)
	assert.Equal(t, "BUY", res.Side)
	assert.Equal(t, 65000.0, res.Price) // market order at the set price

	res, err = d.CreateOrder(ctx, "BTCUSDT", "SELL", 0.5, 66000)
	require.NoError(t, err)
	assert.Equal(t, "2", res.OrderID) // ids increment deterministically
	assert.Equal(t, 66000.0, res.Price)
}

func TestDryRunDefaults(t *testing.T) {
	d := NewDryRun()
	ctx := context.Background()

	p, err := d.Price(ctx, "NEVERSEEN")
	require.NoError(t, err)
	assert.Equal(t, 1.0, p)

	bal, err := d.Balance(ctx, "USDT")
	require.NoError(t, err)
	assert.Equal(t, 100_000.0, bal)

	bal, err = d.Balance(ctx, "BTC")
	require.NoError(t, err)
	assert.Equal(t, 0.0, bal)
}

func TestBinanceAdapterUnsupportedOps(t *testing.T) {
	b := NewBinance(nil)
	ctx := context.Background()

	_, err := b.CreateOrder(ctx, "BTCUSDT", "BUY", 1, 100)
	assert.True(t, errors.Is(err, ErrUnsupported))

	assert.True(t, errors.Is(b.CancelOrder(ctx, "1"), ErrUnsupported))

	_, err = b.Balance(ctx, "USDT")
	assert.True(t, errors.Is(err, ErrUnsupported))
}
