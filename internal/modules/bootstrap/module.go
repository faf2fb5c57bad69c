package bootstrap

import (
	"context"
	"time"

	"marketdesk/internal/modules/config"
	health "marketdesk/internal/modules/health/service"
	marketstore "marketdesk/internal/modules/marketstore/service"
	notify "marketdesk/internal/modules/notify/service"
	trending "marketdesk/internal/modules/trending/service"
	universe "marketdesk/internal/modules/universe/service"
	"marketdesk/pkg/logger"

	"go.uber.org/fx"
)

// Module seeds the instrument table, warms the universe cache and keeps
// the trending baselines advancing in the background.
func Module() fx.Option {
	return fx.Module("bootstrap",
		fx.Invoke(func(
			lc fx.Lifecycle,
			ctx context.Context,
			cfg *config.Config,
			store *marketstore.Store,
			uni *universe.Cache,
			tr *trending.Detector,
			state *health.State,
			n notify.Notifier,
		) {
			lc.Append(fx.Hook{
				OnStart: func(startCtx context.Context) error {
					if err := store.EnsureInstruments(startCtx, cfg.Symbols); err != nil {
						return err
					}

					go func() {
						symbols := uni.Get(ctx)
						state.SetUniverseSize(len(symbols))
						state.SetReady(true)
						if err := n.Sendf(ctx, "marketdesk up, universe %d symbols", len(symbols)); err != nil {
							logger.Error("startup notify: %v", err)
						}
					}()

					go trendingLoop(ctx, cfg.TrendingTTL, tr, n)
					return nil
				},
			})
		}),
	)
}

// trendingLoop advances the per-symbol baselines even when nobody asks
// for the snapshot, and announces a change of session leader.
func trendingLoop(ctx context.Context, interval time.Duration, tr *trending.Detector, n notify.Notifier) {
	if interval <= 0 {
		interval = 10 * time.Second
	}
	t := time.NewTicker(interval)
	defer t.Stop()

	var lastLeader string
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if err := tr.Refresh(ctx); err != nil {
				logger.Warn("trending refresh: %v", err)
				continue
			}
			snap := tr.Get(ctx)
			if len(snap.Gainers) == 0 {
				continue
			}
			top := snap.Gainers[0]
			if top.Symbol == lastLeader {
				continue
			}
			lastLeader = top.Symbol
			if err := n.Sendf(ctx, "new session leader %s %+.2f%% @ %.8g",
				top.Symbol, top.PriceChangePercent, top.LastPrice); err != nil {
				logger.Error("leader notify: %v", err)
			}
		}
	}
}
