package ingest

import (
	"context"

	binance "marketdesk/internal/modules/binance/service"
	"marketdesk/internal/modules/config"
	health "marketdesk/internal/modules/health/service"
	"marketdesk/internal/modules/ingest/service"
	marketstore "marketdesk/internal/modules/marketstore/service"

	"go.uber.org/fx"
)

// Module launches the ingestion loops.
func Module() fx.Option {
	return fx.Module("ingest",
		fx.Provide(
			func(cfg *config.Config, client *binance.Client, store *marketstore.Store, state *health.State) *service.Service {
				return service.NewService(service.Config{
					Symbols:           cfg.Symbols,
					Timeframes:        cfg.Timeframes,
					CandleInterval:    cfg.CandlePollInterval,
					OrderBookInterval: cfg.OrderBookPollInterval,
					TickInterval:      cfg.TickPollInterval,
					Lookback:          cfg.CandleLookback,
					Levels:            cfg.OrderBookLevels,
					FeatureFastPeriod: cfg.FeatureFastPeriod,
					FeatureSlowPeriod: cfg.FeatureSlowPeriod,
				}, client, store, state)
			},
		),
		fx.Invoke(func(lc fx.Lifecycle, ctx context.Context, s *service.Service) {
			lc.Append(fx.Hook{
				OnStart: func(context.Context) error {
					go s.Start(ctx)
					return nil
				},
			})
		}),
	)
}
