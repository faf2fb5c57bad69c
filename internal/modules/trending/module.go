package trending

import (
	"marketdesk/internal/modules/config"
	marketstore "marketdesk/internal/modules/marketstore/service"
	"marketdesk/internal/modules/trending/service"

	"go.uber.org/fx"
)

func Module() fx.Option {
	return fx.Module("trending",
		fx.Provide(
			func(store *marketstore.Store, cfg *config.Config) *service.Detector {
				return service.NewDetector(store, service.Config{
					TTL:              cfg.TrendingTTL,
					LossThresholdPct: cfg.LossThresholdPct,
					RecoveryPct:      cfg.RecoveryPct,
				})
			},
		),
	)
}
