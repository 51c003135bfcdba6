package services

import (
	"sync"
	"time"

	"saveit/internal/localcache"
	"saveit/internal/models"
)

// BudgetState is the in-memory budget data for the signed-in (or local) user.
type BudgetState struct {
	CurrentPeriod   *models.Period
	History         []models.HistoricalPeriod
	LastBudgetCents *int64
	LongestStreak   int
	RecurringItems  []models.RecurringItem
	HasInitialLoad  bool
}

// clone returns a deep copy safe to hand out of the lock.
func (b BudgetState) clone() BudgetState {
	out := b
	out.CurrentPeriod = b.CurrentPeriod.Clone()
	out.History = make([]models.HistoricalPeriod, len(b.History))
	for i := range b.History {
		out.History[i] = *b.History[i].Clone()
	}
	if b.LastBudgetCents != nil {
		v := *b.LastBudgetCents
		out.LastBudgetCents = &v
	}
	out.RecurringItems = append([]models.RecurringItem(nil), b.RecurringItems...)
	return out
}

// SyncStatus is what a host needs to render sync state.
type SyncStatus struct {
	UserID         string
	Syncing        bool
	SyncError      string
	LastSyncTime   *time.Time
	PendingChanges bool
}

// Workspace owns all mutable engine state. Services receive it explicitly;
// the mutex is never held across I/O.
type Workspace struct {
	mu     sync.Mutex
	budget BudgetState
	status SyncStatus

	// gen increments whenever a pull starts or the identity is dropped, so
	// results from an abandoned pull are ignored.
	gen uint64
	// chain increments on every fresh (non-retry) sync; a scheduled retry
	// only runs if its chain is still the latest.
	chain          uint64
	retryAttempted bool
	rolling        bool

	persistMu sync.Mutex
	cache     *localcache.Cache
}

// NewWorkspace creates an empty workspace persisted to cache.
func NewWorkspace(cache *localcache.Cache) *Workspace {
	return &Workspace{
		budget: BudgetState{History: []models.HistoricalPeriod{}},
		cache:  cache,
	}
}

// Snapshot returns a copy of the budget state.
func (w *Workspace) Snapshot() BudgetState {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.budget.clone()
}

// Status returns a copy of the sync status.
func (w *Workspace) Status() SyncStatus {
	w.mu.Lock()
	defer w.mu.Unlock()
	s := w.status
	if s.LastSyncTime != nil {
		t := *s.LastSyncTime
		s.LastSyncTime = &t
	}
	return s
}

// UserID returns the remote identity, or "" in local-only mode.
func (w *Workspace) UserID() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.status.UserID
}

func (w *Workspace) setUserID(id string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.status.UserID = id
}

// clearIdentity drops the remote identity and invalidates any in-flight pull.
func (w *Workspace) clearIdentity() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.status.UserID = ""
	w.gen++
}

// update mutates the budget state under the lock and then persists it.
func (w *Workspace) update(fn func(b *BudgetState)) {
	w.mu.Lock()
	fn(&w.budget)
	w.mu.Unlock()
	w.persist()
}

func (w *Workspace) markPending() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.status.PendingChanges = true
}

// persist writes the latest snapshot to the local cache. persistMu orders
// concurrent writers so the final write always reflects the latest state.
func (w *Workspace) persist() {
	if w.cache == nil {
		return
	}
	w.persistMu.Lock()
	defer w.persistMu.Unlock()

	b := w.Snapshot()
	w.cache.Save(localcache.Snapshot{
		CurrentPeriod:   b.CurrentPeriod,
		History:         b.History,
		LastBudgetCents: b.LastBudgetCents,
		LongestStreak:   b.LongestStreak,
	})
}

// loadFromCache replaces the budget state with the last persisted snapshot.
// Recurring items are not cached and are kept as they are.
func (w *Workspace) loadFromCache() {
	if w.cache == nil {
		return
	}
	snap := w.cache.Load()
	last := w.cache.LastSyncTime()

	w.mu.Lock()
	defer w.mu.Unlock()
	w.budget.CurrentPeriod = snap.CurrentPeriod
	w.budget.History = snap.History
	w.budget.LastBudgetCents = snap.LastBudgetCents
	w.budget.LongestStreak = snap.LongestStreak
	w.budget.HasInitialLoad = true
	if last != nil {
		w.status.LastSyncTime = last
	}
}

// reset clears all budget state and the local cache, used on sign-out.
func (w *Workspace) reset() {
	w.mu.Lock()
	w.budget = BudgetState{History: []models.HistoricalPeriod{}, HasInitialLoad: true}
	w.status = SyncStatus{Syncing: w.status.Syncing}
	w.gen++
	w.mu.Unlock()
	if w.cache != nil {
		w.cache.Clear()
	}
}

// beginSync claims the single-flight guard. It reports false when a pull is
// already running.
func (w *Workspace) beginSync(isRetry bool) (gen, chain uint64, ok bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.status.Syncing {
		return 0, 0, false
	}
	w.status.Syncing = true
	w.gen++
	if !isRetry {
		w.chain++
		w.retryAttempted = false
	}
	return w.gen, w.chain, true
}

func (w *Workspace) endSync() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.status.Syncing = false
}

// failSync records msg. A retry keeps the error of the attempt that started
// its chain.
func (w *Workspace) failSync(msg string, isRetry bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if isRetry && w.status.SyncError != "" {
		return
	}
	w.status.SyncError = msg
}

// applyPull installs a reconciled pull if gen is still current.
func (w *Workspace) applyPull(gen uint64, at time.Time, fn func(b *BudgetState)) bool {
	w.mu.Lock()
	if gen != w.gen {
		w.mu.Unlock()
		return false
	}
	fn(&w.budget)
	w.budget.HasInitialLoad = true
	w.status.SyncError = ""
	w.status.PendingChanges = false
	w.status.LastSyncTime = &at
	w.mu.Unlock()

	w.persist()
	if w.cache != nil {
		w.cache.SaveLastSyncTime(at)
	}
	return true
}

// claimRetry spends the chain's single retry.
func (w *Workspace) claimRetry(chain uint64) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if chain != w.chain || w.retryAttempted {
		return false
	}
	w.retryAttempted = true
	return true
}

// retryWanted reports whether a scheduled retry for chain should still run.
func (w *Workspace) retryWanted(chain uint64) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return chain == w.chain && w.status.SyncError != ""
}

func (w *Workspace) beginRollover() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.rolling {
		return false
	}
	w.rolling = true
	return true
}

func (w *Workspace) endRollover() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.rolling = false
}
