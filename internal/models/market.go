package models

import "time"

// Candle is one OHLCV bucket. Unique per (Symbol, Timeframe, TS);
// re-ingesting the same bucket overwrites the OHLCV fields.
type Candle struct {
	Symbol    string
	Timeframe string
	Open      float64
	High      float64
	Low       float64
	Close     float64
	Volume    float64
	TS        time.Time // bucket open time, UTC
}

// PriceTick is an append-only last-price observation, unique per (Symbol, TS).
type PriceTick struct {
	Symbol string
	Price  float64
	TS     time.Time
}

type BookLevel struct {
	Price float64
	Qty   float64
}

type OrderBookSnapshot struct {
	Symbol    string
	Bids      []BookLevel // best bid first
	Asks      []BookLevel // best ask first
	Imbalance float64
	Spread    float64
	TS        time.Time
}

// DepthUpdate is a normalized depth payload from REST or the push stream.
type DepthUpdate struct {
	Bids         []BookLevel
	Asks         []BookLevel
	EventTimeMS  int64 // 0 when the venue sent none
	LastUpdateID int64
}

// Kline is a normalized venue candle record.
type Kline struct {
	OpenTime  int64 // ms
	Open      float64
	High      float64
	Low       float64
	Close     float64
	Volume    float64
	CloseTime int64 // ms
}

// Feature holds derived indicator values for one candle bucket,
// unique per (Symbol, Timeframe, TS).
type Feature struct {
	Symbol    string
	Timeframe string
	Values    map[string]float64
	TS        time.Time
}
