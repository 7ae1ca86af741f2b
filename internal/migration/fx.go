package migration

import (
	batchdomain "github.com/linecontrol/boxline/internal/batch/domain"
	boxdomain "github.com/linecontrol/boxline/internal/box/domain"
	"github.com/linecontrol/boxline/internal/config"
	"github.com/linecontrol/boxline/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("migrations",
	fx.Invoke(func(handle *db.Handle, cfg config.Config, log *zap.Logger) error {
		if !handle.Configured() {
			log.Warn("no database configured, skipping migrations")
			return nil
		}

		if cfg.DBType == "postgres" {
			sqlDB, err := handle.DB.DB()
			if err != nil {
				return err
			}
			return RunMigrations(sqlDB)
		}

		return handle.DB.AutoMigrate(&batchdomain.Batch{}, &boxdomain.Box{})
	}),
)
