package localcache

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"saveit/internal/models"
)

// failingStore returns err from every call.
type failingStore struct{ err error }

func (f failingStore) Get(string) (string, bool, error) { return "", false, f.err }
func (f failingStore) Set(string, string) error         { return f.err }
func (f failingStore) Remove(string) error              { return f.err }
func (f failingStore) Clear(...string) error            { return f.err }

var (
	_ Store = (*MemoryStore)(nil)
	_ Store = (*SQLiteStore)(nil)
	_ Store = failingStore{}
)

func sampleSnapshot() Snapshot {
	last := int64(10000)
	spent := int64(8000)
	ok := true
	start := time.Date(2024, 1, 8, 0, 0, 0, 0, time.UTC)
	return Snapshot{
		CurrentPeriod: &models.Period{
			Base:           models.Base{ID: "p-current"},
			StartDate:      start,
			EndDate:        start.Add(7*24*time.Hour - time.Millisecond),
			BudgetCents:    10000,
			DaysMarkedDone: models.DayKeys{"2024-01-08"},
			Expenses:       []models.Expense{{Base: models.Base{ID: "e1"}, AmountCents: 1250, Note: "Lunch"}},
		},
		History: []models.HistoricalPeriod{
			{Base: models.Base{ID: "p-old"}, BudgetCents: 10000, Closed: true, TotalSpentCents: &spent, Success: &ok},
		},
		LastBudgetCents: &last,
		LongestStreak:   3,
	}
}

func assertSnapshot(t *testing.T, got Snapshot) {
	t.Helper()
	if got.CurrentPeriod == nil || got.CurrentPeriod.ID != "p-current" {
		t.Fatalf("CurrentPeriod = %+v", got.CurrentPeriod)
	}
	if len(got.CurrentPeriod.Expenses) != 1 || got.CurrentPeriod.Expenses[0].AmountCents != 1250 {
		t.Errorf("expenses = %+v", got.CurrentPeriod.Expenses)
	}
	if !got.CurrentPeriod.DaysMarkedDone.Has("2024-01-08") {
		t.Errorf("days_marked_done = %v", got.CurrentPeriod.DaysMarkedDone)
	}
	if len(got.History) != 1 || got.History[0].TotalSpentCents == nil || *got.History[0].TotalSpentCents != 8000 {
		t.Errorf("History = %+v", got.History)
	}
	if got.LastBudgetCents == nil || *got.LastBudgetCents != 10000 {
		t.Errorf("LastBudgetCents = %v", got.LastBudgetCents)
	}
	if got.LongestStreak != 3 {
		t.Errorf("LongestStreak = %d, want 3", got.LongestStreak)
	}
}

func TestCache_MemoryStore(t *testing.T) {
	c := New(NewMemoryStore())
	c.Save(sampleSnapshot())
	assertSnapshot(t, c.Load())
}

func TestCache_SQLiteStore(t *testing.T) {
	store, err := OpenSQLite(filepath.Join(t.TempDir(), "cache.db"))
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	defer func() { _ = store.Close() }()

	c := New(store)
	c.Save(sampleSnapshot())
	// Saving twice exercises the upsert path.
	c.Save(sampleSnapshot())
	assertSnapshot(t, c.Load())
}

func TestCache_NilValuesRemoveKeys(t *testing.T) {
	store := NewMemoryStore()
	c := New(store)
	c.Save(sampleSnapshot())
	c.Save(Snapshot{})

	got := c.Load()
	if got.CurrentPeriod != nil || got.LastBudgetCents != nil {
		t.Errorf("expected cleared values, got %+v", got)
	}
	if got.History == nil || len(got.History) != 0 {
		t.Errorf("History = %v, want empty slice", got.History)
	}
	if _, ok, _ := store.Get(KeyCurrentPeriod); ok {
		t.Error("current period key should be removed")
	}
}

func TestCache_CorruptEntriesAreIgnored(t *testing.T) {
	store := NewMemoryStore()
	_ = store.Set(KeyCurrentPeriod, "{not json")
	_ = store.Set(KeyHistory, "[")
	_ = store.Set(KeyLastBudgetCents, "abc")
	_ = store.Set(KeyLongestStreak, "-4")

	got := New(store).Load()
	if got.CurrentPeriod != nil || len(got.History) != 0 || got.LastBudgetCents != nil || got.LongestStreak != 0 {
		t.Errorf("expected empty snapshot, got %+v", got)
	}
}

func TestCache_FailingStoreIsBestEffort(t *testing.T) {
	c := New(failingStore{err: errors.New("disk full")})
	c.Save(sampleSnapshot())
	c.SaveLastSyncTime(time.Now())
	c.Clear()

	got := c.Load()
	if got.CurrentPeriod != nil || got.LongestStreak != 0 {
		t.Errorf("expected empty snapshot, got %+v", got)
	}
	if c.LastSyncTime() != nil {
		t.Error("expected no last sync time")
	}
}

func TestCache_LastSyncTimeAndClear(t *testing.T) {
	c := New(NewMemoryStore())
	at := time.Date(2024, 1, 9, 10, 30, 0, 0, time.UTC)
	c.SaveLastSyncTime(at)
	c.Save(sampleSnapshot())

	got := c.LastSyncTime()
	if got == nil || !got.Equal(at) {
		t.Fatalf("LastSyncTime = %v, want %v", got, at)
	}

	c.Clear()
	if c.LastSyncTime() != nil || c.Load().CurrentPeriod != nil {
		t.Error("Clear should remove every budget key")
	}
}
