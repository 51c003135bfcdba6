package models

import "time"

// CacheEntry is one key/value pair of the on-device cache.
type CacheEntry struct {
	Key       string    `gorm:"column:cache_key;primaryKey" json:"key"`
	Value     string    `gorm:"not null" json:"value"`
	UpdatedAt time.Time `json:"updated_at"`
}
