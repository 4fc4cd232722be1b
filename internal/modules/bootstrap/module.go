package bootstrap

import (
	"context"

	"go.uber.org/fx"

	bootstrap "trade_engine/internal/modules/bootstrap/service"
	"trade_engine/internal/modules/config"
	"trade_engine/pkg/logger"
)

func Module() fx.Option {
	return fx.Module("bootstrap",
		fx.Provide(
			bootstrap.NewWarmuper, // *bootstrap.Warmuper
		),
		fx.Invoke(func(lc fx.Lifecycle, cfg *config.Config, wu *bootstrap.Warmuper) {
			var cancel context.CancelFunc
			lc.Append(fx.Hook{
				OnStart: func(context.Context) error {
					var ctx context.Context
					ctx, cancel = context.WithCancel(context.Background())
					go func() {
						if err := wu.Warmup(ctx, cfg.Symbols); err != nil {
							logger.Error("[BOOT] warmup error: %v", err)
							return
						}
						logger.Info("[BOOT] warmup done: %d symbols", len(cfg.Symbols))
					}()
					return nil
				},
				OnStop: func(context.Context) error {
					if cancel != nil {
						cancel()
					}
					return nil
				},
			})
		}),
	)
}
