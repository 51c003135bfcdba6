package services

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"testing"
	"time"

	"saveit/internal/localcache"
	"saveit/internal/logger"
	"saveit/internal/models"
	"saveit/internal/remote"
	"saveit/internal/session"
)

func init() {
	logger.Init("test")
}

// fakeRemote is an in-memory remote.Store. Hooks override single calls.
type fakeRemote struct {
	mu      sync.Mutex
	calls   []string
	seq     int
	periods []models.Period
	items   []models.RecurringItem
	patches map[string][]remote.PeriodPatch

	insertPeriodFn  func(ctx context.Context, p *models.Period) (*models.Period, error)
	updatePeriodFn  func(ctx context.Context, userID, id string, patch remote.PeriodPatch) error
	selectPeriodsFn func(ctx context.Context, q remote.PeriodQuery) ([]models.Period, error)
	insertExpenseFn func(ctx context.Context, e *models.Expense) (*models.Expense, error)
	deleteExpenseFn func(ctx context.Context, userID, id string) error
	insertIncomeFn  func(ctx context.Context, in *models.IncomeEntry) (*models.IncomeEntry, error)
	selectItemsFn   func(ctx context.Context, userID string) ([]models.RecurringItem, error)
}

var _ remote.Store = (*fakeRemote)(nil)

func newFakeRemote() *fakeRemote {
	return &fakeRemote{patches: make(map[string][]remote.PeriodPatch)}
}

func (f *fakeRemote) record(call string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
}

func (f *fakeRemote) nextID(prefix string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seq++
	return fmt.Sprintf("%s-%d", prefix, f.seq)
}

func (f *fakeRemote) callLog() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.calls)
}

func (f *fakeRemote) count(call string) int {
	n := 0
	for _, c := range f.callLog() {
		if c == call {
			n++
		}
	}
	return n
}

func (f *fakeRemote) patchesFor(id string) []remote.PeriodPatch {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.patches[id])
}

func (f *fakeRemote) InsertPeriod(ctx context.Context, p *models.Period) (*models.Period, error) {
	f.record("InsertPeriod")
	if f.insertPeriodFn != nil {
		return f.insertPeriodFn(ctx, p)
	}
	row := p.Clone()
	row.ID = f.nextID("remote-period")
	return row, nil
}

func (f *fakeRemote) UpdatePeriod(ctx context.Context, userID, id string, patch remote.PeriodPatch) error {
	f.record("UpdatePeriod")
	if f.updatePeriodFn != nil {
		return f.updatePeriodFn(ctx, userID, id, patch)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.patches[id] = append(f.patches[id], patch)
	return nil
}

func (f *fakeRemote) SelectPeriods(ctx context.Context, q remote.PeriodQuery) ([]models.Period, error) {
	f.record("SelectPeriods")
	if f.selectPeriodsFn != nil {
		return f.selectPeriodsFn(ctx, q)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]models.Period, len(f.periods))
	for i := range f.periods {
		out[i] = *f.periods[i].Clone()
	}
	return out, nil
}

func (f *fakeRemote) InsertExpense(ctx context.Context, e *models.Expense) (*models.Expense, error) {
	f.record("InsertExpense")
	if f.insertExpenseFn != nil {
		return f.insertExpenseFn(ctx, e)
	}
	row := *e
	row.ID = f.nextID("remote-expense")
	return &row, nil
}

func (f *fakeRemote) DeleteExpense(ctx context.Context, userID, id string) error {
	f.record("DeleteExpense")
	if f.deleteExpenseFn != nil {
		return f.deleteExpenseFn(ctx, userID, id)
	}
	return nil
}

func (f *fakeRemote) InsertIncome(ctx context.Context, in *models.IncomeEntry) (*models.IncomeEntry, error) {
	f.record("InsertIncome")
	if f.insertIncomeFn != nil {
		return f.insertIncomeFn(ctx, in)
	}
	row := *in
	row.ID = f.nextID("remote-income")
	return &row, nil
}

func (f *fakeRemote) DeleteIncome(_ context.Context, _, _ string) error {
	f.record("DeleteIncome")
	return nil
}

func (f *fakeRemote) SelectRecurringItems(ctx context.Context, userID string) ([]models.RecurringItem, error) {
	f.record("SelectRecurringItems")
	if f.selectItemsFn != nil {
		return f.selectItemsFn(ctx, userID)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.items), nil
}

func (f *fakeRemote) SaveRecurringItem(_ context.Context, item *models.RecurringItem) (*models.RecurringItem, error) {
	f.record("SaveRecurringItem")
	row := *item
	if row.ID == "" {
		row.ID = f.nextID("remote-item")
	}
	return &row, nil
}

func (f *fakeRemote) DeleteRecurringItem(_ context.Context, _, _ string) error {
	f.record("DeleteRecurringItem")
	return nil
}

// fakeSessions is a session.Provider with a fixed session.
type fakeSessions struct {
	mu       sync.Mutex
	sess     *session.Session
	signOuts int

	getFn func(ctx context.Context) (*session.Session, error)
}

var _ session.Provider = (*fakeSessions)(nil)

func signedIn(userID string) *fakeSessions {
	return &fakeSessions{sess: &session.Session{UserID: userID, Email: userID + "@example.com"}}
}

func (f *fakeSessions) GetSession(ctx context.Context) (*session.Session, error) {
	if f.getFn != nil {
		return f.getFn(ctx)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sess, nil
}

func (f *fakeSessions) Refresh(ctx context.Context) (*session.Session, error) {
	return f.GetSession(ctx)
}

func (f *fakeSessions) SignOut(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.signOuts++
	f.sess = nil
	return nil
}

func (f *fakeSessions) signOutCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.signOuts
}

// scheduler captures deferred retries so tests run them explicitly.
type scheduler struct {
	mu      sync.Mutex
	pending []func()
	delays  []time.Duration
}

func (s *scheduler) schedule(d time.Duration, f func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending = append(s.pending, f)
	s.delays = append(s.delays, d)
}

func (s *scheduler) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}

// runAll runs every captured callback once.
func (s *scheduler) runAll() {
	s.mu.Lock()
	fns := s.pending
	s.pending = nil
	s.mu.Unlock()
	for _, f := range fns {
		f()
	}
}

// clock is a settable time source.
type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

type testEnv struct {
	engine *Engine
	ws     *Workspace
	cache  *localcache.Cache
	clock  *clock
	sched  *scheduler
}

// newTestEnv builds an engine over an in-memory cache. store and sessions
// may be nil for local-only mode.
func newTestEnv(t *testing.T, now time.Time, store remote.Store, sessions session.Provider, mods ...func(*Options)) *testEnv {
	t.Helper()
	cache := localcache.New(localcache.NewMemoryStore())
	ws := NewWorkspace(cache)
	clk := &clock{now: now}
	sched := &scheduler{}
	opts := Options{
		SyncTimeout:    time.Second,
		SessionTimeout: time.Second,
		RetryDelay:     2 * time.Second,
		Location:       time.UTC,
		Now:            clk.Now,
		Schedule:       sched.schedule,
	}
	for _, mod := range mods {
		mod(&opts)
	}
	eng := NewEngine(ws, store, sessions, opts)
	return &testEnv{engine: eng, ws: ws, cache: cache, clock: clk, sched: sched}
}

// newRemoteEnv builds an engine already signed in as userID.
func newRemoteEnv(t *testing.T, now time.Time, userID string, mods ...func(*Options)) (*testEnv, *fakeRemote, *fakeSessions) {
	t.Helper()
	store := newFakeRemote()
	sessions := signedIn(userID)
	env := newTestEnv(t, now, store, sessions, mods...)
	env.ws.setUserID(userID)
	return env, store, sessions
}

// monday is Monday 2024-01-08 00:00 UTC.
var monday = time.Date(2024, 1, 8, 0, 0, 0, 0, time.UTC)

func ptr[T any](v T) *T { return &v }

func shortTimeouts(o *Options) {
	o.SyncTimeout = 20 * time.Millisecond
	o.SessionTimeout = 20 * time.Millisecond
}

// blockUntilDone blocks until ctx is cancelled or release is closed.
func blockUntilDone(ctx context.Context, release <-chan struct{}) {
	select {
	case <-ctx.Done():
	case <-release:
	}
}
