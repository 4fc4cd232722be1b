package runner

import (
	"context"

	"go.uber.org/fx"

	"trade_engine/internal/models"
	"trade_engine/internal/modules/config"
	"trade_engine/internal/recorder"
	"trade_engine/pkg/logger"
)

func newRecorder(lc fx.Lifecycle, cfg *config.Config) (recorder.Recorder, error) {
	if cfg.Recorder.SQLitePath == "" {
		return recorder.NewNoop(), nil
	}
	r, err := recorder.NewSQLite(cfg.Recorder.SQLitePath)
	if err != nil {
		return nil, err
	}
	lc.Append(fx.Hook{OnStop: func(context.Context) error { return r.Close() }})
	return r, nil
}

func Module() fx.Option {
	return fx.Module("runner",
		fx.Provide(
			newRecorder,   // recorder.Recorder
			NewDispatcher, // *Dispatcher
			NewScheduler,  // *Scheduler
		),
		fx.Invoke(func(
			lc fx.Lifecycle,
			s *Scheduler,
			d *Dispatcher,
			events <-chan models.TradeEvent,
		) {
			var cancel context.CancelFunc
			lc.Append(fx.Hook{
				OnStart: func(context.Context) error {
					var ctx context.Context
					ctx, cancel = context.WithCancel(context.Background())
					go d.Run(ctx, events)
					return s.Start(ctx)
				},
				OnStop: func(context.Context) error {
					s.Stop()
					if cancel != nil {
						cancel()
					}
					logger.Info("[RUN] stopped")
					return nil
				},
			})
		}),
	)
}
