package presets

import (
	"go.uber.org/fx"

	"trade_engine/internal/modules/config"
	"trade_engine/internal/modules/presets/service"
	"trade_engine/pkg/logger"
)

func newStore(cfg *config.Config) (*service.Store, error) {
	s, err := service.Load(cfg.PresetsFile)
	if err != nil {
		return nil, err
	}
	logger.Info("[PRESETS] loaded from %q, %d symbols", cfg.PresetsFile, len(s.Symbols()))
	return s, nil
}

func Module() fx.Option {
	return fx.Module("presets",
		fx.Provide(
			newStore, // *service.Store
		),
	)
}
