package models

import "time"

// Ticker24h is a normalized 24-hour statistics row from the venue.
type Ticker24h struct {
	Symbol             string
	LastPrice          float64
	HighPrice          float64
	LowPrice           float64
	PriceChangePercent float64
	QuoteVolume        float64
}

// Mover is one leader/laggard row as served by the monitor caches.
type Mover struct {
	Symbol             string
	LastPrice          float64
	HighPrice          float64
	LowPrice           float64
	PriceChangePercent float64
}

type StatsFilters struct {
	TopN             int
	PriceFloor       float64
	UniverseCachedAt time.Time
}

// TopStats is the 24h leader/laggard cache payload.
type TopStats struct {
	UpdatedAt    time.Time
	Stale        bool
	Gainers      []Mover
	Losers       []Mover
	UniverseSize int
	Filters      StatsFilters
}

type TrendingMeta struct {
	LossPct     float64
	RecoveryPct float64
	Label       string
}

// TrendingSnapshot is the session-scoped leader/laggard view.
type TrendingSnapshot struct {
	UpdatedAt    time.Time
	Stale        bool
	Gainers      []Mover
	Losers       []Mover
	UniverseSize int
	Meta         TrendingMeta
}
