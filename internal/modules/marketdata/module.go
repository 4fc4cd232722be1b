package marketdata

import (
	"go.uber.org/fx"

	"trade_engine/internal/modules/config"
	"trade_engine/internal/modules/marketdata/service"
)

func newCache(cfg *config.Config, c *service.Client) *service.Cache {
	return service.NewCache(c, cfg.MarketData.Countback, cfg.Location())
}

func Module() fx.Option {
	return fx.Module("marketdata",
		fx.Provide(
			service.NewClient, // *service.Client
			newCache,          // *service.Cache
		),
	)
}
