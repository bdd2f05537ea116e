/**
 * @description
 * Idempotent schema migration runner.
 * Applies embedded numbered SQL files in lexical order, each inside its own
 * transaction, and records applied files by name in schema_migrations.
 *
 * @dependencies
 * - embed: migration files are compiled into the binary
 * - gorm.io/gorm
 */

package db

import (
	"embed"
	"fmt"
	"io/fs"
	"sort"
	"strings"

	"github.com/marketpulse-project/backend/internal/logger"
	"gorm.io/gorm"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Migrate applies all pending migrations. Safe to run on every startup.
func Migrate(db *gorm.DB) error {
	if err := db.Exec(`CREATE TABLE IF NOT EXISTS schema_migrations (
		name TEXT PRIMARY KEY,
		applied_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`).Error; err != nil {
		return fmt.Errorf("failed to ensure schema_migrations table: %w", err)
	}

	entries, err := fs.ReadDir(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("failed to read embedded migrations: %w", err)
	}

	var files []string
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".sql") {
			files = append(files, entry.Name())
		}
	}
	sort.Strings(files)

	applied := 0
	for _, file := range files {
		var count int64
		if err := db.Raw("SELECT COUNT(*) FROM schema_migrations WHERE name = ?", file).Scan(&count).Error; err != nil {
			return fmt.Errorf("failed to check migration %s: %w", file, err)
		}
		if count > 0 {
			continue
		}

		data, err := fs.ReadFile(migrationsFS, "migrations/"+file)
		if err != nil {
			return fmt.Errorf("failed to read migration %s: %w", file, err)
		}
		if strings.TrimSpace(string(data)) == "" {
			continue
		}

		err = db.Transaction(func(tx *gorm.DB) error {
			if err := tx.Exec(string(data)).Error; err != nil {
				return err
			}
			return tx.Exec("INSERT INTO schema_migrations (name) VALUES (?)", file).Error
		})
		if err != nil {
			return fmt.Errorf("failed to apply migration %s: %w", file, err)
		}

		logger.Info("Applied migration %s", file)
		applied++
	}

	if applied > 0 {
		logger.Info("✅ Applied %d migration(s)", applied)
	}
	return nil
}

// MigrationFiles returns the embedded migration file names in apply order.
// Exposed for tests that verify naming and ordering.
func MigrationFiles() ([]string, error) {
	entries, err := fs.ReadDir(migrationsFS, "migrations")
	if err != nil {
		return nil, err
	}
	var files []string
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".sql") {
			files = append(files, entry.Name())
		}
	}
	sort.Strings(files)
	return files, nil
}
