package main

import (
	"context"
	"log"
	"time"

	"marketdesk/internal/config"
	"marketdesk/internal/models"
	binance "marketdesk/internal/modules/binance/service"
	marketstore "marketdesk/internal/modules/marketstore/service"
	"marketdesk/pkg/db"
	"marketdesk/pkg/logger"
)

// One-shot historical candle loader. Pages forward through the venue
// kline endpoint and upserts everything, so reruns over the same window
// are harmless.
func main() {
	logger.SetServiceName("marketdesk-backfill")
	if err := logger.Init(); err != nil {
		log.Fatal(err)
	}

	cfg, err := config.LoadBackfill()
	if err != nil {
		logger.Fatal("load config: %v", err)
	}

	ctx := context.Background()
	pool, err := db.NewPool(ctx, db.PoolConfig{DSN: cfg.DSN})
	if err != nil {
		logger.Fatal("connect postgres: %v", err)
	}
	txm := db.NewPgTxManager(pool)
	defer txm.Close()

	store := marketstore.NewStore(txm)
	client := binance.NewClient(binance.Config{
		BaseURL: cfg.BaseURL,
		Timeout: cfg.Timeout,
	})

	if err := store.EnsureInstruments(ctx, cfg.Symbols); err != nil {
		logger.Fatal("seed instruments: %v", err)
	}

	var total int64
	for _, sym := range cfg.Symbols {
		for _, tf := range cfg.Timeframes {
			n := backfill(ctx, client, store, sym, tf, cfg)
			logger.Info("backfill %s %s: %d candles", sym, tf, n)
			total += n
		}
	}
	logger.Info("done, %d candles total", total)
}

func backfill(ctx context.Context, client *binance.Client, store *marketstore.Store, symbol, timeframe string, cfg *config.Backfill) int64 {
	startMS := unixMilliOrZero(cfg.Start)
	endMS := unixMilliOrZero(cfg.End)

	var total int64
	for {
		klines := client.FetchKlines(ctx, symbol, timeframe, cfg.Limit, startMS, endMS)
		if len(klines) == 0 {
			return total
		}

		rows := make([]models.Candle, 0, len(klines))
		for _, k := range klines {
			rows = append(rows, models.Candle{
				Symbol:    symbol,
				Timeframe: timeframe,
				Open:      k.Open,
				High:      k.High,
				Low:       k.Low,
				Close:     k.Close,
				Volume:    k.Volume,
				TS:        time.UnixMilli(k.OpenTime).UTC(),
			})
		}
		n, err := store.UpsertCandles(ctx, rows)
		if err != nil {
			logger.Error("upsert %s %s: %v", symbol, timeframe, err)
			return total
		}
		total += n

		// no explicit window: single page of most recent candles
		if startMS == 0 {
			return total
		}
		last := klines[len(klines)-1]
		next := last.CloseTime + 1
		if next <= startMS || (endMS > 0 && next >= endMS) || len(klines) < cfg.Limit {
			return total
		}
		startMS = next
	}
}

func unixMilliOrZero(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixMilli()
}
