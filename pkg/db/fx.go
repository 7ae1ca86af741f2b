package db

import (
	"time"

	"github.com/linecontrol/boxline/internal/config"
	obslogger "github.com/linecontrol/boxline/internal/observability/logger"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var Module = fx.Module("db",
	fx.Provide(Open),
)

// Open connects to the configured store, or returns the unconfigured
// handle when no DATABASE_TYPE is set.
func Open(cfg config.Config, log *zap.Logger) (*Handle, error) {
	if !cfg.StoreConfigured() {
		log.Warn("no record store configured, running without persistence")
		return Unconfigured(), nil
	}

	dialect, err := Dialect(cfg)
	if err != nil {
		return nil, err
	}

	conn, err := gorm.Open(dialect, &gorm.Config{
		Logger: obslogger.NewGormLogger(log),
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := conn.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxIdleConns(cfg.DBMaxIdleConn)
	sqlDB.SetMaxOpenConns(cfg.DBMaxOpenConn)
	sqlDB.SetConnMaxLifetime(time.Duration(cfg.DBConnMaxLifetime) * time.Second)
	sqlDB.SetConnMaxIdleTime(time.Duration(cfg.DBConnMaxIdleTime) * time.Second)

	log.Info("record store connected", zap.String("type", cfg.DBType))
	return NewHandle(conn), nil
}
