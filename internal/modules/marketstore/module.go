package marketstore

import (
	"marketdesk/internal/modules/marketstore/service"

	"go.uber.org/fx"
)

func Module() fx.Option {
	return fx.Module("marketstore",
		fx.Provide(
			service.NewStore,
		),
	)
}
