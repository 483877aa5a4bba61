package db

import (
	"fmt"

	"ballot-app-go/internal/config"
	"ballot-app-go/pkg/logger"
	"gorm.io/gorm"
	"gorm.io/plugin/opentelemetry/tracing"
)

// Open connects to the configured store and, when tracing is on, instruments
// every query with a span.
func Open(cfg config.Config, log logger.Logger) (*gorm.DB, error) {
	var (
		gormDB *gorm.DB
		err    error
	)
	switch cfg.DB.Driver {
	case config.DriverSQLite:
		gormDB, err = NewSQLite(cfg.DB, log)
	default:
		gormDB, err = NewPostgres(cfg.DB, log)
	}
	if err != nil {
		return nil, err
	}

	if cfg.Tracing.Enabled {
		if err := gormDB.Use(tracing.NewPlugin(tracing.WithoutMetrics())); err != nil {
			return nil, fmt.Errorf("db tracing: %w", err)
		}
	}

	return gormDB, nil
}

func Close(gormDB *gorm.DB) error {
	if gormDB == nil {
		return nil
	}
	sqlDB, err := gormDB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
