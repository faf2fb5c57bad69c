package notify

import (
	"context"

	"marketdesk/internal/modules/config"
	marketstore "marketdesk/internal/modules/marketstore/service"
	"marketdesk/internal/modules/notify/service"
	stats "marketdesk/internal/modules/stats/service"
	trending "marketdesk/internal/modules/trending/service"
	"marketdesk/pkg/logger"

	"go.uber.org/fx"
)

// Module provides a Notifier. Without a bot token it degrades to log
// output so the rest of the app never cares which one it got.
func Module() fx.Option {
	return fx.Module("notify",
		fx.Provide(
			func(cfg *config.Config, st *stats.Cache, tr *trending.Detector, store *marketstore.Store) (service.Notifier, error) {
				if cfg.Telegram.Token == "" {
					return service.NewStdout(), nil
				}
				return service.NewTelegram(cfg.Telegram.Token, cfg.Telegram.ChatID, st, tr, store)
			},
		),
		fx.Invoke(func(lc fx.Lifecycle, ctx context.Context, n service.Notifier) {
			tg, ok := n.(*service.Telegram)
			if !ok {
				logger.Info("notify: telegram token not set, using log notifier")
				return
			}
			lc.Append(fx.Hook{
				OnStart: func(context.Context) error {
					go tg.Start(ctx)
					return nil
				},
				OnStop: func(context.Context) error {
					tg.Stop()
					return nil
				},
			})
		}),
	)
}
