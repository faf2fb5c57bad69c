package main

import (
	"context"
	"log"

	"marketdesk/internal/modules/binance"
	"marketdesk/internal/modules/bootstrap"
	"marketdesk/internal/modules/config"
	"marketdesk/internal/modules/health"
	"marketdesk/internal/modules/ledger"
	"marketdesk/internal/modules/marketstore"
	"marketdesk/internal/modules/notify"
	"marketdesk/internal/modules/postgres"
	"marketdesk/internal/modules/stats"
	"marketdesk/internal/modules/trending"
	"marketdesk/internal/modules/universe"
	"marketdesk/pkg/logger"
	"marketdesk/pkg/tracing"

	"go.uber.org/fx"
)

func main() {
	logger.SetServiceName("marketdesk-server")
	if err := logger.Init(); err != nil {
		log.Fatal(err)
	}

	app := fx.New(
		fx.Provide(
			func() context.Context {
				return context.Background()
			},
		),
		config.Module(),
		postgres.Module(),
		binance.Module(),
		marketstore.Module(),
		universe.Module(),
		stats.Module(),
		trending.Module(),
		ledger.Module(),
		notify.Module(),
		health.Module(),
		bootstrap.Module(),
		fx.Invoke(func(lc fx.Lifecycle, cfg *config.Config) {
			tracing.SetServiceName("marketdesk-server")
			_, closeTracer, err := tracing.InitTracer(tracing.Config{
				Host: cfg.Jaeger.Host,
				Port: cfg.Jaeger.Port,
			})
			if err != nil {
				logger.Warn("jaeger init: %v", err)
				return
			}
			lc.Append(fx.Hook{
				OnStop: func(context.Context) error {
					closeTracer()
					return nil
				},
			})
		}),
	)
	app.Run()
}
