// Package dbtest opens throwaway sqlite stores for repository tests.
package dbtest

import (
	"testing"

	"ballot-app-go/internal/config"
	"ballot-app-go/internal/db"
	"ballot-app-go/pkg/logger"
	"gorm.io/gorm"
)

// Open returns a migrated in-memory database that is closed when the test ends.
func Open(t testing.TB) *gorm.DB {
	t.Helper()

	gormDB, err := db.NewSQLite(config.DBConfig{}, logger.Discard())
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() {
		if err := db.Close(gormDB); err != nil {
			t.Errorf("close sqlite: %v", err)
		}
	})
	return gormDB
}
