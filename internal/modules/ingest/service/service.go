package service

import (
	"context"
	"time"

	binance "marketdesk/internal/modules/binance/service"
	health "marketdesk/internal/modules/health/service"
	marketstore "marketdesk/internal/modules/marketstore/service"
	"marketdesk/pkg/logger"
)

type Config struct {
	Symbols    []string
	Timeframes []string

	CandleInterval    time.Duration
	OrderBookInterval time.Duration
	TickInterval      time.Duration

	Lookback int
	Levels   int

	FeatureFastPeriod int
	FeatureSlowPeriod int
}

// Service runs the background ingestion loops. Each loop has its own
// cadence and keeps going on any error; nothing here is fatal.
type Service struct {
	cfg    Config
	client *binance.Client
	store  *marketstore.Store
	health *health.State
}

func NewService(cfg Config, client *binance.Client, store *marketstore.Store, state *health.State) *Service {
	if cfg.CandleInterval <= 0 {
		cfg.CandleInterval = time.Minute
	}
	if cfg.OrderBookInterval <= 0 {
		cfg.OrderBookInterval = 2 * time.Second
	}
	if cfg.TickInterval <= 0 {
		cfg.TickInterval = 5 * time.Second
	}
	if cfg.Lookback <= 0 {
		cfg.Lookback = 200
	}
	if cfg.Levels <= 0 {
		cfg.Levels = 20
	}
	return &Service{cfg: cfg, client: client, store: store, health: state}
}

// Start seeds the instrument table and launches the loops.
func (s *Service) Start(ctx context.Context) {
	if err := s.store.EnsureInstruments(ctx, s.cfg.Symbols); err != nil {
		logger.Error("seed instruments: %v", err)
	}

	go s.candleLoop(ctx)
	go s.orderBookLoop(ctx)
	go s.tickLoop(ctx)
	for _, sym := range s.cfg.Symbols {
		go s.depthStreamLoop(ctx, sym)
	}

	s.health.SetReady(true)
}

// sleepCompensated sleeps the remainder of the cadence after a cycle that
// took elapsed, with a floor so a slow cycle cannot starve the scheduler.
func sleepCompensated(ctx context.Context, interval, elapsed, floor time.Duration) bool {
	d := interval - elapsed
	if d < floor {
		d = floor
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
