package models

import (
	"time"
)

// CacheEntry is a row of the database-backed cache store. A zero ExpiresAt
// never expires.
type CacheEntry struct {
	Key       string    `gorm:"primaryKey;size:256"`
	Value     []byte
	ExpiresAt time.Time `gorm:"index"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Expired reports whether the entry is past its expiry at now.
func (e *CacheEntry) Expired(now time.Time) bool {
	return e != nil && !e.ExpiresAt.IsZero() && !now.Before(e.ExpiresAt)
}
