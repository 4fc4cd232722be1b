package stream

import (
	"go.uber.org/fx"

	"trade_engine/internal/modules/stream/service"
)

func Module() fx.Option {
	return fx.Module("stream",
		fx.Provide(
			service.NewServer, // *service.Server, mounted on /ws by health
		),
	)
}
