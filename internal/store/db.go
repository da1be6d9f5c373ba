// Package store persists viewer session ids, last-good snapshots and play
// events in Postgres, with an in-memory fallback when no database is
// configured.
package store

import (
	"errors"
	"log"
	"strings"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// ErrNoDatabase is returned by Open when no DSN is configured.
var ErrNoDatabase = errors.New("DATABASE_URL is not set")

// Open connects to Postgres.
func Open(dsn string) (*gorm.DB, error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, ErrNoDatabase
	}
	return gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
}

// Migrate runs GORM auto-migrations for the player tables.
func Migrate(conn *gorm.DB) error {
	if conn == nil {
		return errors.New("db connection is nil")
	}
	if err := conn.AutoMigrate(
		&ViewerSession{},
		&SnapshotCache{},
		&PlayEvent{},
	); err != nil {
		return err
	}
	log.Println("database migration complete")
	return nil
}
