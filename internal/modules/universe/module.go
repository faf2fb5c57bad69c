package universe

import (
	binance "marketdesk/internal/modules/binance/service"
	"marketdesk/internal/modules/config"
	"marketdesk/internal/modules/universe/service"

	"go.uber.org/fx"
)

func Module() fx.Option {
	return fx.Module("universe",
		fx.Provide(
			func(client *binance.Client, cfg *config.Config) *service.Cache {
				return service.NewCache(client, service.Config{
					TTL:      cfg.UniverseTTL,
					Fallback: cfg.Symbols,
				})
			},
		),
	)
}
