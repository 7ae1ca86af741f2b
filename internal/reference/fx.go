package reference

import (
	"github.com/linecontrol/boxline/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("reference",
	fx.Provide(NewStore),
	fx.Invoke(func(store *Store, log *zap.Logger, cfg config.Config) {
		if cfg.ReferenceWorkbook == "" {
			log.Warn("reference workbook not configured, lists will be empty")
			return
		}
		if err := store.Reload(); err != nil {
			log.Error("reference workbook load failed", zap.Error(err))
		}
	}),
)
