package service

import (
	"context"
	"strings"
	"time"

	"marketdesk/internal/models"
	"marketdesk/pkg/logger"
)

func (s *Service) candleLoop(ctx context.Context) {
	for {
		start := time.Now()
		for _, sym := range s.cfg.Symbols {
			for _, tf := range s.cfg.Timeframes {
				n := s.ingestCandles(ctx, sym, tf)
				logger.Info("candles %s %s upserted=%d", sym, tf, n)
			}
		}
		if !sleepCompensated(ctx, s.cfg.CandleInterval, time.Since(start), 500*time.Millisecond) {
			return
		}
	}
}

func (s *Service) ingestCandles(ctx context.Context, symbol, timeframe string) int64 {
	klines := s.client.FetchKlines(ctx, symbol, timeframe, s.cfg.Lookback, 0, 0)
	if len(klines) == 0 {
		return 0
	}
	rows := make([]models.Candle, 0, len(klines))
	for _, k := range klines {
		rows = append(rows, klineToCandle(symbol, timeframe, k))
	}
	n, err := s.store.UpsertCandles(ctx, rows)
	if err != nil {
		logger.Error("upsert candles %s %s: %v", symbol, timeframe, err)
		return 0
	}

	s.ingestFeatures(ctx, symbol, timeframe, klines)
	return n
}

// ingestFeatures derives moving-average features for the newest bucket.
func (s *Service) ingestFeatures(ctx context.Context, symbol, timeframe string, klines []models.Kline) {
	closes := make([]float64, 0, len(klines))
	for _, k := range klines {
		closes = append(closes, k.Close)
	}
	values, ok := movingAverageFeatures(closes, s.cfg.FeatureFastPeriod, s.cfg.FeatureSlowPeriod)
	if !ok {
		return
	}
	last := klines[len(klines)-1]
	f := models.Feature{
		Symbol:    strings.ToUpper(symbol),
		Timeframe: timeframe,
		Values:    values,
		TS:        time.UnixMilli(last.OpenTime).UTC(),
	}
	if err := s.store.UpsertFeature(ctx, f); err != nil {
		logger.Error("upsert feature %s %s: %v", symbol, timeframe, err)
	}
}

func klineToCandle(symbol, timeframe string, k models.Kline) models.Candle {
	return models.Candle{
		Symbol:    strings.ToUpper(symbol),
		Timeframe: timeframe,
		Open:      k.Open,
		High:      k.High,
		Low:       k.Low,
		Close:     k.Close,
		Volume:    k.Volume,
		TS:        time.UnixMilli(k.OpenTime).UTC(),
	}
}

// movingAverageFeatures computes simple moving averages over the tail of
// the close series. Needs at least slowPeriod closes.
func movingAverageFeatures(closes []float64, fastPeriod, slowPeriod int) (map[string]float64, bool) {
	if fastPeriod <= 0 || slowPeriod <= 0 || fastPeriod > slowPeriod || len(closes) < slowPeriod {
		return nil, false
	}
	return map[string]float64{
		"close":    closes[len(closes)-1],
		"sma_fast": tailMean(closes, fastPeriod),
		"sma_slow": tailMean(closes, slowPeriod),
	}, true
}

func tailMean(vs []float64, n int) float64 {
	sum := 0.0
	for _, v := range vs[len(vs)-n:] {
		sum += v
	}
	return sum / float64(n)
}
