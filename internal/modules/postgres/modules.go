package postgres

import (
	"context"
	"fmt"

	"go.uber.org/fx"

	"trade_engine/internal/modules/config"
	"trade_engine/pkg/db"
	"trade_engine/pkg/logger"
)

// Module provides *db.PgTxManager. It is nil when no DSN is configured, and
// consumers fall back to in-memory storage.
func Module() fx.Option {
	return fx.Module("postgres",
		fx.Provide(
			func(ctx context.Context, lc fx.Lifecycle, cfg *config.Config) (*db.PgTxManager, error) {
				if cfg.DB == "" {
					logger.Info("[PG] no DSN configured, using memory storage")
					return nil, nil
				}
				pool, err := db.NewPool(ctx, db.PoolConfig{
					DSN:             cfg.DB,
					MaxConns:        cfg.DBPool.MaxConns,
					MaxConnIdleTime: cfg.DBPool.MaxConnIdleTime,
				})
				if err != nil {
					return nil, fmt.Errorf("create pool: %w", err)
				}

				m := db.NewPgTxManager(pool)
				if err = m.Ping(ctx); err != nil {
					m.Close()
					return nil, fmt.Errorf("ping: %w", err)
				}
				logger.Info("[PG] connected, max conns %d", cfg.DBPool.MaxConns)

				lc.Append(fx.Hook{
					OnStop: func(context.Context) error {
						m.Close()
						return nil
					},
				})
				return m, nil
			},
		),
	)
}
