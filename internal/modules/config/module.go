package config

import (
	"context"

	"go.uber.org/fx"

	"trade_engine/pkg/logger"
	"trade_engine/pkg/tracing"
)

// Module provides *Config and brings up logging and tracing before any
// other module is constructed.
func Module() fx.Option {
	return fx.Module("config",
		fx.Provide(
			NewConfig,
		),
		fx.Invoke(initObservability),
	)
}

func initObservability(lc fx.Lifecycle, cfg *Config) error {
	if err := logger.Init(cfg.LogLevel); err != nil {
		return err
	}
	logger.SetServiceName(cfg.Service.Name)
	tracing.SetServiceName(cfg.Service.Name)

	_, closer, err := tracing.InitTracer(tracing.Config{
		Enabled: cfg.Tracing.Enabled,
		Host:    cfg.Tracing.Host,
		Port:    cfg.Tracing.Port,
	})
	if err != nil {
		return err
	}
	lc.Append(fx.Hook{OnStop: func(context.Context) error {
		closer()
		return nil
	}})
	logger.Info("[CFG] %s started, log level %s, tracing %t", cfg.Service.Name, cfg.LogLevel, cfg.Tracing.Enabled)
	return nil
}
