// Package db opens the optional postgres store backing the ledger cache.
package db

import (
	"fmt"
	"io"
	stdlog "log"
	"time"

	"council-delegation/internal/config"
	"council-delegation/internal/models"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// SlowQuery is the duration after which gorm reports a cache query as slow.
const SlowQuery = 2 * time.Second

// Open connects to DATABASE_URL. It returns nil, nil when no database is
// configured, in which case the ledger cache stays in memory. gorm warnings
// and slow queries are written to w.
func Open(cfg config.Config, w io.Writer) (*gorm.DB, error) {
	if cfg.DBDialect == "" || cfg.DBDsn == "" {
		return nil, nil
	}
	if cfg.DBDialect != config.DatabaseSchemePostgres {
		return nil, fmt.Errorf("unsupported database dialect: %s", cfg.DBDialect)
	}
	if w == nil {
		w = io.Discard
	}

	gormLog := logger.New(
		stdlog.New(w, "gorm: ", stdlog.LstdFlags),
		logger.Config{
			SlowThreshold:             SlowQuery,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true, // cache misses
		},
	)
	gdb, err := gorm.Open(postgres.Open(cfg.DBDsn), &gorm.Config{Logger: gormLog})
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", cfg.DBDialect, err)
	}

	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, err
	}
	// cache reads and writes come from the target prefetch workers
	sqlDB.SetMaxOpenConns(max(cfg.FetchConcurrency, 1) + 1)
	sqlDB.SetConnMaxIdleTime(5 * time.Minute)
	return gdb, nil
}

// AutoMigrate creates or updates the ledger cache table.
func AutoMigrate(db *gorm.DB) error {
	if db == nil {
		return nil
	}
	if err := db.AutoMigrate(&models.LedgerAccount{}); err != nil {
		return fmt.Errorf("migrate ledger cache: %w", err)
	}
	return nil
}

// Close releases the connection pool. A nil db is a no-op.
func Close(db *gorm.DB) error {
	if db == nil {
		return nil
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
