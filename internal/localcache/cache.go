package localcache

import (
	"encoding/json"
	"strconv"
	"time"

	"saveit/internal/logger"
	"saveit/internal/models"
)

// Storage keys.
const (
	KeyCurrentPeriod   = "budget.currentPeriod"
	KeyHistory         = "budget.history"
	KeyLastBudgetCents = "budget.lastBudgetCents"
	KeyLongestStreak   = "budget.longestStreak"
	KeyLastSyncTime    = "budget.lastSyncTime"
)

var budgetKeys = []string{KeyCurrentPeriod, KeyHistory, KeyLastBudgetCents, KeyLongestStreak, KeyLastSyncTime}

// Snapshot is everything the engine needs to resume offline.
type Snapshot struct {
	CurrentPeriod   *models.Period
	History         []models.HistoricalPeriod
	LastBudgetCents *int64
	LongestStreak   int
}

// Cache reads and writes Snapshots on top of a Store. It never returns
// errors: failures are logged and reads fall back to empty values.
type Cache struct {
	store Store
}

// New creates a Cache over store.
func New(store Store) *Cache {
	return &Cache{store: store}
}

// Save writes every part of s. A nil current period or last budget removes
// the stored value.
func (c *Cache) Save(s Snapshot) {
	if s.CurrentPeriod == nil {
		c.remove(KeyCurrentPeriod)
	} else {
		c.setJSON(KeyCurrentPeriod, s.CurrentPeriod)
	}

	history := s.History
	if history == nil {
		history = []models.HistoricalPeriod{}
	}
	c.setJSON(KeyHistory, history)

	if s.LastBudgetCents == nil {
		c.remove(KeyLastBudgetCents)
	} else {
		c.set(KeyLastBudgetCents, strconv.FormatInt(*s.LastBudgetCents, 10))
	}

	c.set(KeyLongestStreak, strconv.Itoa(s.LongestStreak))
}

// SaveLongestStreak writes only the longest streak.
func (c *Cache) SaveLongestStreak(n int) {
	c.set(KeyLongestStreak, strconv.Itoa(n))
}

// Load reads the stored snapshot. Missing or unreadable entries come back as
// their zero value.
func (c *Cache) Load() Snapshot {
	var s Snapshot

	var p models.Period
	if c.getJSON(KeyCurrentPeriod, &p) {
		s.CurrentPeriod = &p
	}

	var history []models.HistoricalPeriod
	if c.getJSON(KeyHistory, &history) {
		s.History = history
	}
	if s.History == nil {
		s.History = []models.HistoricalPeriod{}
	}

	if raw, ok := c.get(KeyLastBudgetCents); ok {
		if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
			s.LastBudgetCents = &n
		} else {
			logger.Get().Warnw("discarding unreadable cache entry", "key", KeyLastBudgetCents, "error", err)
		}
	}

	if raw, ok := c.get(KeyLongestStreak); ok {
		if n, err := strconv.Atoi(raw); err == nil && n >= 0 {
			s.LongestStreak = n
		}
	}

	return s
}

// SaveLastSyncTime records when the last successful pull finished.
func (c *Cache) SaveLastSyncTime(t time.Time) {
	c.set(KeyLastSyncTime, t.UTC().Format(time.RFC3339Nano))
}

// LastSyncTime returns the last recorded pull time, or nil.
func (c *Cache) LastSyncTime() *time.Time {
	raw, ok := c.get(KeyLastSyncTime)
	if !ok {
		return nil
	}
	t, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return nil
	}
	return &t
}

// Clear removes all budget keys, used on sign-out.
func (c *Cache) Clear() {
	if err := c.store.Clear(budgetKeys...); err != nil {
		logger.Get().Warnw("failed to clear local cache", "error", err)
	}
}

func (c *Cache) get(key string) (string, bool) {
	v, ok, err := c.store.Get(key)
	if err != nil {
		logger.Get().Warnw("local cache read failed", "key", key, "error", err)
		return "", false
	}
	return v, ok
}

func (c *Cache) getJSON(key string, dest any) bool {
	raw, ok := c.get(key)
	if !ok || raw == "" || raw == "null" {
		return false
	}
	if err := json.Unmarshal([]byte(raw), dest); err != nil {
		logger.Get().Warnw("discarding unreadable cache entry", "key", key, "error", err)
		return false
	}
	return true
}

func (c *Cache) set(key, value string) {
	if err := c.store.Set(key, value); err != nil {
		logger.Get().Warnw("local cache write failed", "key", key, "error", err)
	}
}

func (c *Cache) setJSON(key string, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		logger.Get().Warnw("local cache encode failed", "key", key, "error", err)
		return
	}
	c.set(key, string(b))
}

func (c *Cache) remove(key string) {
	if err := c.store.Remove(key); err != nil {
		logger.Get().Warnw("local cache remove failed", "key", key, "error", err)
	}
}
