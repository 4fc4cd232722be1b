package strategy

import (
	"context"

	"go.uber.org/fx"

	"trade_engine/internal/models"
	"trade_engine/internal/modules/config"
	presets "trade_engine/internal/modules/presets/service"
	"trade_engine/internal/modules/strategy/service"
	"trade_engine/pkg/logger"
)

func newTradeEventsChan(cfg *config.Config) chan models.TradeEvent {
	size := cfg.Strategy.EventBuffer
	if size <= 0 {
		size = 4096
	}
	return make(chan models.TradeEvent, size)
}
func asSendOnlyEvents(ch chan models.TradeEvent) chan<- models.TradeEvent { return ch }
func asRecvOnlyEvents(ch chan models.TradeEvent) <-chan models.TradeEvent { return ch }

func newTicksChan() chan models.CandleTick {
	return make(chan models.CandleTick, 100000)
}
func asSendOnlyTicks(ch chan models.CandleTick) chan<- models.CandleTick { return ch }
func asRecvOnlyTicks(ch chan models.CandleTick) <-chan models.CandleTick { return ch }

func asPresetSource(s *presets.Store) service.PresetSource { return s }

func Module() fx.Option {
	return fx.Module("strategy",
		fx.Provide(
			newTradeEventsChan, // chan models.TradeEvent
			asSendOnlyEvents,   // chan<- models.TradeEvent
			asRecvOnlyEvents,   // <-chan models.TradeEvent
			newTicksChan,
			asSendOnlyTicks,
			asRecvOnlyTicks,
			asPresetSource,
			service.NewEngine, // service.Engine
			service.NewHub,    // *service.Hub
		),

		fx.Invoke(func(lc fx.Lifecycle, hub *service.Hub, ticks <-chan models.CandleTick) {
			var cancel context.CancelFunc
			lc.Append(fx.Hook{
				OnStart: func(context.Context) error {
					var ctx context.Context
					ctx, cancel = context.WithCancel(context.Background())
					go func() {
						logger.Info("[STRAT] hub loop started")
						for {
							select {
							case <-ctx.Done():
								logger.Info("[STRAT] hub loop stopped")
								return
							case t, ok := <-ticks:
								if !ok {
									logger.Info("[STRAT] ticks channel closed")
									return
								}
								hub.OnTick(ctx, t)
							}
						}
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
