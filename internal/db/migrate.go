package db

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"ballot-app-go/pkg/logger"
	"gorm.io/gorm"
)

const migrationsDirName = "migrations"

// Migrate applies every *.sql file in dir that is not yet recorded in
// schema_migrations, in lexical order. An empty dir is resolved by walking up
// from the working directory; a missing directory is not an error.
func Migrate(gormDB *gorm.DB, dir string, log logger.Logger) (int, error) {
	if dir == "" {
		found, err := findMigrationsDir(migrationsDirName)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				log.Warn("migrate: no migrations directory found")
				return 0, nil
			}
			return 0, err
		}
		dir = found
	}

	if err := ensureSchemaMigrations(gormDB); err != nil {
		return 0, fmt.Errorf("schema_migrations: %w", err)
	}

	files, err := migrationFiles(dir)
	if err != nil {
		return 0, err
	}

	applied := 0
	for _, name := range files {
		done, err := isMigrationApplied(gormDB, name)
		if err != nil {
			return applied, err
		}
		if done {
			continue
		}

		contents, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return applied, err
		}
		statement := strings.TrimSpace(string(contents))
		if statement == "" {
			continue
		}

		err = gormDB.Transaction(func(tx *gorm.DB) error {
			if err := tx.Exec(statement).Error; err != nil {
				return err
			}
			return recordMigration(tx, name)
		})
		if err != nil {
			return applied, fmt.Errorf("apply migration %s: %w", name, err)
		}

		log.Info("migrate: applied", "file", name)
		applied++
	}

	return applied, nil
}

func migrationFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var files []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if strings.HasSuffix(entry.Name(), ".sql") {
			files = append(files, entry.Name())
		}
	}
	sort.Strings(files)
	return files, nil
}

func ensureSchemaMigrations(gormDB *gorm.DB) error {
	return gormDB.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			filename TEXT PRIMARY KEY,
			applied_at TIMESTAMP NOT NULL
		)
	`).Error
}

func isMigrationApplied(gormDB *gorm.DB, name string) (bool, error) {
	var count int64
	if err := gormDB.Raw("SELECT COUNT(1) FROM schema_migrations WHERE filename = ?", name).Scan(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func recordMigration(gormDB *gorm.DB, name string) error {
	return gormDB.Exec("INSERT INTO schema_migrations (filename, applied_at) VALUES (?, ?)", name, time.Now().UTC()).Error
}

func findMigrationsDir(dirName string) (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}

	for {
		candidate := filepath.Join(dir, dirName)
		info, err := os.Stat(candidate)
		if err == nil && info.IsDir() {
			return candidate, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return "", os.ErrNotExist
}
