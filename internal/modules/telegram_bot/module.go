package telegram

import (
	"context"
	"fmt"

	"go.uber.org/fx"

	"trade_engine/internal/modules/config"
	health "trade_engine/internal/modules/health/service"
	presets "trade_engine/internal/modules/presets/service"
	strategy "trade_engine/internal/modules/strategy/service"
	"trade_engine/internal/modules/telegram_bot/service"
	trades "trade_engine/internal/modules/trades/service"
	"trade_engine/internal/notify"
	"trade_engine/pkg/logger"
)

type Params struct {
	fx.In

	Cfg     *config.Config
	Trades  trades.Repository
	Presets *presets.Store
}

type Result struct {
	fx.Out

	Notifier notify.Notifier
	Service  strategy.ServiceNotifier
	Bot      *service.Telegram
}

// newNotifier falls back to the log when no bot token is configured.
func newNotifier(p Params) (Result, error) {
	if p.Cfg.Telegram.Token == "" {
		logger.Info("[TG] no token configured, notifications go to the log")
		n := notify.NewStdout(p.Cfg.Location())
		return Result{Notifier: n, Service: n}, nil
	}
	t, err := service.NewTelegram(p.Cfg, p.Trades, p.Presets)
	if err != nil {
		return Result{}, fmt.Errorf("telegram: %w", err)
	}
	return Result{Notifier: t, Service: t, Bot: t}, nil
}

func statusText(hub *strategy.Hub, state *health.State) func() string {
	return func() string {
		last := "never"
		if t := state.LastCycle(); !t.IsZero() {
			last = t.Format("15:04:05")
		}
		return fmt.Sprintf("engine: %s\nwarmup done: %v\nseeded: %d\ncycles: %d (last %s)",
			hub.Engine().Name(), hub.IsWarmupDone(), state.Seeded(), state.Cycles(), last)
	}
}

func Module() fx.Option {
	return fx.Module("telegram",
		fx.Provide(newNotifier),
		fx.Invoke(func(lc fx.Lifecycle, bot *service.Telegram, hub *strategy.Hub, state *health.State) {
			if bot == nil {
				return
			}
			bot.SetStatus(statusText(hub, state))

			var cancel context.CancelFunc
			lc.Append(fx.Hook{
				OnStart: func(context.Context) error {
					var ctx context.Context
					ctx, cancel = context.WithCancel(context.Background())
					go bot.Start(ctx)
					return nil
				},
				OnStop: func(context.Context) error {
					if cancel != nil {
						cancel()
					}
					bot.Stop()
					return nil
				},
			})
		}),
	)
}
