package exchange

import (
	"context"
	"strconv"
	"strings"
	"sync"
)

const dryRunSeedBalance = 100_000.0

// DryRun is a deterministic in-memory simulator. It never touches the
// network; every order fills immediately at the requested (or last known)
// price.
type DryRun struct {
	mu       sync.Mutex
	balances map[string]float64
	prices   map[string]float64
	lastID   int64
}

func NewDryRun() *DryRun {
	return &DryRun{
		balances: map[string]float64{"USDT": dryRunSeedBalance},
		prices:   make(map[string]float64),
	}
}

func (d *DryRun) EnsureSymbol(ctx context.Context, symbol string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.prices[symbol]; !ok {
		d.prices[symbol] = 1.0
	}
	return nil
}

// SetPrice lets tests and replay tooling drive the simulated market.
func (d *DryRun) SetPrice(symbol string, price float64) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.prices[symbol] = price
}

func (d *DryRun) Price(ctx context.Context, symbol string) (float64, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if p, ok := d.prices[symbol]; ok {
		return p, nil
	}
	return 1.0, nil
}

func (d *DryRun) CreateOrder(ctx context.Context, symbol, side string, qty, price float64) (OrderResult, error) {
	if price <= 0 {
		p, _ := d.Price(ctx, symbol)
		price = p
	}
	d.mu.Lock()
	d.lastID++
	id := d.lastID
	d.mu.Unlock()
	return OrderResult{
		OrderID: strconv.FormatInt(id, 10),
		Status:  "FILLED",
		Price:   price,
		Qty:     qty,
		Side:    strings.ToUpper(side),
	}, nil
}

func (d *DryRun) CancelOrder(ctx context.Context, orderID string) error {
	return nil
}

func (d *DryRun) Balance(ctx context.Context, asset string) (float64, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.balances[asset], nil
}
