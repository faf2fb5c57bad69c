package service

import (
	"context"
	"math"
	"strings"
	"time"

	"marketdesk/internal/models"
	"marketdesk/pkg/logger"
)

func (s *Service) orderBookLoop(ctx context.Context) {
	for {
		start := time.Now()
		for _, sym := range s.cfg.Symbols {
			upd, ok := s.client.FetchOrderBook(ctx, sym, s.cfg.Levels)
			if !ok {
				continue
			}
			s.writeSnapshot(ctx, sym, upd)
		}
		if !sleepCompensated(ctx, s.cfg.OrderBookInterval, time.Since(start), 200*time.Millisecond) {
			return
		}
	}
}

// depthStreamLoop consumes the push stream; the client reconnects forever,
// so the loop only ends with the context.
func (s *Service) depthStreamLoop(ctx context.Context, symbol string) {
	for upd := range s.client.StreamDepth(ctx, symbol, s.cfg.Levels) {
		s.health.SetWSConnected(true)
		s.writeSnapshot(ctx, symbol, upd)
	}
	s.health.SetWSConnected(false)
}

func (s *Service) writeSnapshot(ctx context.Context, symbol string, upd models.DepthUpdate) {
	ob, ok := buildSnapshot(symbol, upd, s.cfg.Levels, time.Now())
	if !ok {
		return
	}
	if err := s.store.InsertOrderBookSnapshot(ctx, ob); err != nil {
		logger.Error("orderbook snapshot %s: %v", symbol, err)
	}
}

// buildSnapshot normalizes a depth update into a persistable snapshot.
// Empty books are dropped.
func buildSnapshot(symbol string, upd models.DepthUpdate, levels int, now time.Time) (models.OrderBookSnapshot, bool) {
	bids := truncLevels(upd.Bids, levels)
	asks := truncLevels(upd.Asks, levels)
	if len(bids) == 0 && len(asks) == 0 {
		return models.OrderBookSnapshot{}, false
	}

	ts := now
	if upd.EventTimeMS > 0 {
		ts = time.UnixMilli(upd.EventTimeMS)
	}
	return models.OrderBookSnapshot{
		Symbol:    strings.ToUpper(symbol),
		Bids:      bids,
		Asks:      asks,
		Imbalance: computeImbalance(bids, asks),
		Spread:    computeSpread(bids, asks),
		TS:        ts.UTC(),
	}, true
}

func truncLevels(levels []models.BookLevel, max int) []models.BookLevel {
	if len(levels) > max {
		return levels[:max]
	}
	return levels
}

// computeImbalance is (bidVol - askVol) / (bidVol + askVol); 0 when both
// sides are empty.
func computeImbalance(bids, asks []models.BookLevel) float64 {
	var bidVol, askVol float64
	for _, lv := range bids {
		bidVol += lv.Qty
	}
	for _, lv := range asks {
		askVol += lv.Qty
	}
	denom := bidVol + askVol
	if denom <= 0 {
		return 0
	}
	return (bidVol - askVol) / denom
}

// computeSpread is max(0, bestAsk - bestBid); 0 when either side is empty.
func computeSpread(bids, asks []models.BookLevel) float64 {
	if len(bids) == 0 || len(asks) == 0 {
		return 0
	}
	return math.Max(0, asks[0].Price-bids[0].Price)
}
