package stats

import (
	binance "marketdesk/internal/modules/binance/service"
	"marketdesk/internal/modules/config"
	"marketdesk/internal/modules/stats/service"
	universe "marketdesk/internal/modules/universe/service"

	"go.uber.org/fx"
)

func Module() fx.Option {
	return fx.Module("stats",
		fx.Provide(
			func(client *binance.Client, uni *universe.Cache, cfg *config.Config) *service.Cache {
				return service.NewCache(client, uni, service.Config{
					TTL:        cfg.StatsTTL,
					TopN:       cfg.TopN,
					PriceFloor: cfg.PriceFloor,
				})
			},
		),
	)
}
