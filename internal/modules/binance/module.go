package binance

import (
	"marketdesk/internal/modules/binance/service"
	"marketdesk/internal/modules/config"

	"go.uber.org/fx"
)

// Module provides the venue client.
func Module() fx.Option {
	return fx.Module("binance",
		fx.Provide(
			func(cfg *config.Config) *service.Client {
				return service.NewClient(service.Config{
					BaseURL:    cfg.Venue.BaseURL,
					WSURL:      cfg.Venue.WSURL,
					Timeout:    cfg.Venue.HTTPTimeout,
					QuoteAsset: cfg.Venue.QuoteAsset,
				})
			},
		),
	)
}
