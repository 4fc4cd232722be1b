package trades

import (
	"context"

	"go.uber.org/fx"

	"trade_engine/internal/modules/trades/service"
	"trade_engine/internal/modules/trades/service/pg"
	"trade_engine/pkg/db"
)

func newRepository(tx *db.PgTxManager) service.Repository {
	if tx == nil {
		return service.NewMemory()
	}
	return pg.NewTrades(tx)
}

func Module() fx.Option {
	return fx.Module("trades",
		fx.Provide(
			newRepository, // service.Repository
		),
		fx.Invoke(func(lc fx.Lifecycle, repo service.Repository) {
			lc.Append(fx.Hook{
				OnStart: func(ctx context.Context) error {
					return repo.Migrate(ctx)
				},
			})
		}),
	)
}
