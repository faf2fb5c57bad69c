package ledger

import (
	"marketdesk/internal/exchange"
	binance "marketdesk/internal/modules/binance/service"
	"marketdesk/internal/modules/ledger/service"
	"marketdesk/pkg/db"

	"go.uber.org/fx"
)

func Module() fx.Option {
	return fx.Module("ledger",
		fx.Provide(
			func(client *binance.Client) exchange.Adapter {
				return exchange.NewBinance(client)
			},
			func(txm db.TxManager, adapter exchange.Adapter) *service.Ledger {
				return service.NewLedger(txm, adapter)
			},
		),
	)
}
