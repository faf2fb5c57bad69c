package service

import (
	"context"
	"time"

	"marketdesk/pkg/logger"
)

func (s *Service) tickLoop(ctx context.Context) {
	for {
		start := time.Now()
		prices := s.client.FetchPrices(ctx, s.cfg.Symbols)
		now := time.Now()
		for sym, price := range prices {
			// duplicate (symbol, ts) pairs are swallowed by the store
			if err := s.store.InsertPriceTick(ctx, sym, price, now); err != nil {
				logger.Error("price tick %s: %v", sym, err)
				continue
			}
		}
		if len(prices) > 0 {
			s.health.TouchTick(now)
		}
		if !sleepCompensated(ctx, s.cfg.TickInterval, time.Since(start), 500*time.Millisecond) {
			return
		}
	}
}
