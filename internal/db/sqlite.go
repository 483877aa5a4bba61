package db

import (
	"fmt"
	"time"

	"ballot-app-go/internal/config"
	"ballot-app-go/pkg/logger"
	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

const sqlitePragmas = "_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"

// NewSQLite opens an embedded store. An empty path gives a private in-memory
// database. SQLite allows one writer, so the pool is pinned to a single connection.
func NewSQLite(cfg config.DBConfig, log logger.Logger) (*gorm.DB, error) {
	dsn := sqliteDSN(cfg.SQLitePath)
	log.Info("db: opening sqlite", "path", cfg.SQLitePath)

	gormDB, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         gormlogger.Discard,
		TranslateError: true,
		NowFunc:        func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// An in-memory database lives only as long as its connection, so the
	// single connection is never recycled.
	cfg.MaxOpenConns = 1
	cfg.MaxIdleConns = 1
	cfg.ConnMaxLifetime = -1
	if err := configurePool(gormDB, cfg); err != nil {
		return nil, err
	}

	if err := AutoMigrate(gormDB); err != nil {
		return nil, fmt.Errorf("sqlite schema: %w", err)
	}

	log.Info("db: connected", "driver", config.DriverSQLite)
	return gormDB, nil
}

func sqliteDSN(path string) string {
	if path == "" {
		return "file:" + uuid.NewString() + "?mode=memory&cache=shared&" + sqlitePragmas
	}
	return "file:" + path + "?" + sqlitePragmas
}

func IsSQLite(gormDB *gorm.DB) bool {
	return gormDB.Dialector.Name() == "sqlite"
}
