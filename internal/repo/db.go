// Package repo implements the delivery ledger backed by GORM. This file
// contains database bootstrapping helpers for SQLite (pure Go driver) and the
// schema migration.
//
// Reminders themselves are never stored here; Slack owns scheduled messages.
// The only table records which inbound submissions were already acted on.
package repo

import (
	"errors"
	"os"
	"path/filepath"
	"time"

	sqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"gorm.io/plugin/opentelemetry/tracing"

	"github.com/tbourn/go-reminder-bot/internal/domain"
)

// ErrNotFound is returned when a lookup matches no live record.
var ErrNotFound = errors.New("not found")

// MemoryDSN is used when no database path is configured. The shared cache
// keeps a single in-memory database alive across pooled connections.
const MemoryDSN = "file:reminderbot?mode=memory&cache=shared"

// OpenSQLite opens (or creates) a SQLite database, applies PRAGMAs and
// installs the OpenTelemetry tracing plugin. An empty path opens MemoryDSN.
func OpenSQLite(path string) (*gorm.DB, error) {
	dsn := path
	onDisk := path != ""
	if !onDisk {
		dsn = MemoryDSN
	} else if dir := filepath.Dir(path); dir != "." {
		// Fail early if the parent directory does not exist instead of a
		// driver-specific "unable to open database file".
		if _, err := os.Stat(dir); err != nil {
			return nil, err
		}
	}

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}
	if err := db.Use(tracing.NewPlugin(tracing.WithoutMetrics())); err != nil {
		return nil, err
	}

	if onDisk {
		db.Exec("PRAGMA journal_mode=WAL;")
		db.Exec("PRAGMA synchronous=NORMAL;")
	}
	db.Exec("PRAGMA busy_timeout=5000;")

	if sqlDB, err := db.DB(); err == nil {
		sqlDB.SetMaxOpenConns(4)
		sqlDB.SetMaxIdleConns(4)
		// An in-memory shared-cache database disappears with its last
		// connection, so idle connections must not be reaped.
		if onDisk {
			sqlDB.SetConnMaxIdleTime(5 * time.Minute)
			sqlDB.SetConnMaxLifetime(30 * time.Minute)
		}
	}

	return db, nil
}

// AutoMigrate creates or updates the ledger schema.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(&domain.Delivery{})
}
