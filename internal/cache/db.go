package cache

import (
	"context"
	"errors"
	"log"
	"time"

	"council-delegation/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DB is a Store persisted in the ledger_accounts table, so a restarted run
// can reuse responses younger than ttl.
type DB struct {
	db  *gorm.DB
	ttl time.Duration
	now func() time.Time
}

var _ Store = &DB{}

// NewDB returns nil when db is nil, which Tiered skips.
func NewDB(db *gorm.DB, ttl time.Duration) Store {
	if db == nil {
		return nil
	}
	return &DB{db: db, ttl: ttl, now: time.Now}
}

func (c *DB) Get(ctx context.Context, key string) ([]byte, bool) {
	var row models.LedgerAccount
	err := c.db.WithContext(ctx).Where("key = ?", key).First(&row).Error
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			log.Printf("cache: read %s: %v", key, err)
		}
		return nil, false
	}
	if !fresh(row.FetchedAt, c.now(), c.ttl) {
		return nil, false
	}
	return row.Payload, true
}

func (c *DB) Put(ctx context.Context, key string, val []byte) {
	row := models.LedgerAccount{Key: key, Payload: val, FetchedAt: c.now()}
	err := c.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"payload", "fetched_at", "updated_at"}),
	}).Create(&row).Error
	if err != nil {
		log.Printf("cache: write %s: %v", key, err)
	}
}

// Purge deletes rows older than ttl.
func (c *DB) Purge(ctx context.Context) (int64, error) {
	if c.ttl <= 0 {
		return 0, nil
	}
	tx := c.db.WithContext(ctx).Where("fetched_at < ?", c.now().Add(-c.ttl)).Delete(&models.LedgerAccount{})
	return tx.RowsAffected, tx.Error
}

// fresh reports whether an entry fetched at fetchedAt is still usable at now.
// A non-positive ttl never expires.
func fresh(fetchedAt, now time.Time, ttl time.Duration) bool {
	if ttl <= 0 {
		return true
	}
	return now.Sub(fetchedAt) < ttl
}
