// Package models defines the database models for cached ledger responses.
package models

import "time"

// LedgerAccount is a cached raw account response keyed by cache key.
// Computed delegation results are never stored.
type LedgerAccount struct {
	Key       string    `gorm:"primaryKey;size:128"`
	Payload   []byte    `gorm:"not null"`
	FetchedAt time.Time `gorm:"index;not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}
