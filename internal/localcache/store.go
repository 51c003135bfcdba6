// Package localcache persists the budget snapshot on the device so the app
// keeps working offline.
package localcache

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"

	"saveit/internal/models"
)

// Store is a synchronous string key/value store.
type Store interface {
	Get(key string) (string, bool, error)
	Set(key, value string) error
	Remove(key string) error
	Clear(keys ...string) error
}

// SQLiteStore keeps entries in a cache_entries table.
type SQLiteStore struct {
	db *gorm.DB
}

// OpenSQLite opens (or creates) the cache file at path.
func OpenSQLite(path string) (*SQLiteStore, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open local cache: %w", err)
	}
	return NewSQLiteStore(db)
}

// NewSQLiteStore wraps an existing connection and ensures the table exists.
func NewSQLiteStore(db *gorm.DB) (*SQLiteStore, error) {
	if err := db.AutoMigrate(&models.CacheEntry{}); err != nil {
		return nil, fmt.Errorf("failed to migrate local cache: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// Get returns the value for key and whether it was present.
func (s *SQLiteStore) Get(key string) (string, bool, error) {
	var entry models.CacheEntry
	err := s.db.Where("cache_key = ?", key).First(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return entry.Value, true, nil
}

// Set upserts key.
func (s *SQLiteStore) Set(key, value string) error {
	entry := models.CacheEntry{Key: key, Value: value, UpdatedAt: time.Now()}
	return s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "cache_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&entry).Error
}

// Remove deletes key; a missing key is not an error.
func (s *SQLiteStore) Remove(key string) error {
	return s.db.Where("cache_key = ?", key).Delete(&models.CacheEntry{}).Error
}

// Clear deletes the given keys.
func (s *SQLiteStore) Clear(keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	return s.db.Where("cache_key IN ?", keys).Delete(&models.CacheEntry{}).Error
}

// Close releases the underlying connection.
func (s *SQLiteStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// MemoryStore is an in-process Store.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string]string
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string]string)}
}

func (m *MemoryStore) Get(key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[key]
	return v, ok, nil
}

func (m *MemoryStore) Set(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	return nil
}

func (m *MemoryStore) Remove(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

func (m *MemoryStore) Clear(keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range keys {
		delete(m.data, k)
	}
	return nil
}
