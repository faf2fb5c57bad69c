package models

import "time"

const (
	SideBuy  = "BUY"
	SideSell = "SELL"

	OrderStatusFilled = "FILLED"
)

// Order is an append-only paper-trading ledger entry.
type Order struct {
	ID     int64
	Symbol string
	Side   string // BUY / SELL
	Qty    float64
	Price  float64
	Status string
	TS     time.Time
}

// Position is the running holding per instrument. Qty never goes
// negative; Qty == 0 implies AvgPrice == 0.
type Position struct {
	Symbol    string
	Qty       float64
	AvgPrice  float64
	UpdatedAt time.Time
}
