package main

import (
	"context"
	"log"

	"marketdesk/internal/modules/binance"
	"marketdesk/internal/modules/config"
	"marketdesk/internal/modules/health"
	"marketdesk/internal/modules/ingest"
	"marketdesk/internal/modules/marketstore"
	"marketdesk/internal/modules/postgres"
	"marketdesk/pkg/logger"

	"go.uber.org/fx"
)

// The worker owns the write path: candle, order-book and tick ingestion.
// The server reads what it writes, so both can restart independently.
func main() {
	logger.SetServiceName("marketdesk-worker")
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
		health.Module(),
		ingest.Module(),
	)
	app.Run()
}
