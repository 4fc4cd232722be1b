package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/fx"

	"trade_engine/internal/modules/bootstrap"
	"trade_engine/internal/modules/config"
	"trade_engine/internal/modules/health"
	"trade_engine/internal/modules/marketdata"
	"trade_engine/internal/modules/postgres"
	"trade_engine/internal/modules/presets"
	"trade_engine/internal/modules/strategy"
	"trade_engine/internal/modules/stream"
	telegram "trade_engine/internal/modules/telegram_bot"
	"trade_engine/internal/modules/trades"
	"trade_engine/internal/runner"
	"trade_engine/pkg/logger"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app := fx.New(
		fx.Provide(
			func() context.Context {
				return ctx
			},
		),
		config.Module(),
		postgres.Module(),
		trades.Module(),
		presets.Module(),
		marketdata.Module(),
		stream.Module(),
		strategy.Module(),
		telegram.Module(),
		health.Module(),
		bootstrap.Module(),
		runner.Module(),
	)
	if err := app.Start(ctx); err != nil {
		log.Fatal(err)
	}

	<-ctx.Done()
	if err := app.Stop(context.Background()); err != nil {
		logger.Error("[MAIN] stop: %v", err)
	}
	logger.Sync()
}
