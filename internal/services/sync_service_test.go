package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	apperrors "saveit/internal/errors"
	"saveit/internal/localcache"
	"saveit/internal/models"
	"saveit/internal/remote"
	"saveit/internal/session"
	"saveit/internal/testutil"
	"saveit/internal/week"
)

// remotePeriod builds a period starting weeksAgo weeks before monday.
func remotePeriod(id string, weeksAgo int, closed bool, success *bool) models.Period {
	start := monday.AddDate(0, 0, -7*weeksAgo)
	p := models.Period{
		UserID:      "user-1",
		StartDate:   start,
		EndDate:     week.End(start),
		BudgetCents: 10000,
		Closed:      closed,
		Success:     success,
	}
	p.ID = id
	return p
}

func TestSync_ReconcilesRemoteState(t *testing.T) {
	env, store, _ := newRemoteEnv(t, monday.Add(10*time.Hour), "user-1")

	// Oldest to newest the outcomes are true, true, false, true, true.
	store.periods = []models.Period{
		remotePeriod("open", 0, false, nil),
		remotePeriod("h1", 1, true, ptr(true)),
		remotePeriod("h2", 2, true, ptr(true)),
		remotePeriod("h3", 3, true, ptr(false)),
		remotePeriod("h4", 4, true, ptr(true)),
		remotePeriod("h5", 5, true, ptr(true)),
	}
	store.items = []models.RecurringItem{{UserID: "user-1", ItemType: models.RecurringExpense, CategoryName: "Rent", AmountCents: 50000, IsActive: true}}
	env.ws.update(func(b *BudgetState) { b.LongestStreak = 5 })
	env.ws.markPending()

	testutil.AssertNoError(t, env.engine.Sync.Sync(context.Background()))

	b := env.ws.Snapshot()
	if b.CurrentPeriod == nil || b.CurrentPeriod.ID != "open" {
		t.Fatalf("current period = %+v, want open", b.CurrentPeriod)
	}
	if len(b.History) != 5 || b.History[0].ID != "h1" {
		t.Fatalf("unexpected history %+v", b.History)
	}
	if b.LongestStreak != 2 {
		t.Errorf("LongestStreak = %d, want 2", b.LongestStreak)
	}
	if len(b.RecurringItems) != 1 {
		t.Errorf("recurring items not refreshed: %+v", b.RecurringItems)
	}
	if !b.HasInitialLoad {
		t.Error("expected HasInitialLoad")
	}

	st := env.ws.Status()
	if st.Syncing || st.SyncError != "" || st.PendingChanges {
		t.Errorf("unexpected status %+v", st)
	}
	if st.LastSyncTime == nil || !st.LastSyncTime.Equal(monday.Add(10*time.Hour)) {
		t.Errorf("LastSyncTime = %v", st.LastSyncTime)
	}

	cached := env.cache.Load()
	if cached.LongestStreak != 2 || len(cached.History) != 5 {
		t.Errorf("sync result not persisted: %+v", cached)
	}
	if last := env.cache.LastSyncTime(); last == nil {
		t.Error("last sync time not persisted")
	}
}

func TestSync_ResolvesMissingSuccess(t *testing.T) {
	env, store, _ := newRemoteEnv(t, monday, "user-1")

	over := remotePeriod("over", 1, true, nil)
	over.TotalSpentCents = ptr(int64(12000))
	under := remotePeriod("under", 2, true, nil)
	under.TotalSpentCents = ptr(int64(9000))
	// No stored total: nested expenses do not decide the outcome.
	untotaled := remotePeriod("untotaled", 3, true, nil)
	untotaled.Expenses = []models.Expense{{AmountCents: 12000}}
	store.periods = []models.Period{over, under, untotaled}

	testutil.AssertNoError(t, env.engine.Sync.Sync(context.Background()))

	h := env.ws.Snapshot().History
	if h[0].Success == nil || *h[0].Success {
		t.Errorf("over-budget week resolved as %v", h[0].Success)
	}
	if h[1].Success == nil || !*h[1].Success {
		t.Errorf("under-budget week resolved as %v", h[1].Success)
	}
	if h[2].Success == nil || !*h[2].Success {
		t.Errorf("week without a total resolved as %v", h[2].Success)
	}
	if env.ws.Snapshot().LongestStreak != 2 {
		t.Errorf("LongestStreak = %d, want 2", env.ws.Snapshot().LongestStreak)
	}
}

func TestSync_LocalCurrentWithoutRemoteOpenPeriod(t *testing.T) {
	ctx := context.Background()

	t.Run("kept when unknown remotely", func(t *testing.T) {
		env, store, _ := newRemoteEnv(t, monday, "user-1")
		env.ws.update(func(b *BudgetState) {
			p := remotePeriod("local-1", 0, false, nil)
			b.CurrentPeriod = &p
		})
		store.periods = []models.Period{remotePeriod("h1", 1, true, ptr(true))}

		testutil.AssertNoError(t, env.engine.Sync.Sync(ctx))
		if cur := env.ws.Snapshot().CurrentPeriod; cur == nil || cur.ID != "local-1" {
			t.Errorf("local current period dropped: %+v", cur)
		}
	})

	t.Run("dropped when closed remotely", func(t *testing.T) {
		env, store, _ := newRemoteEnv(t, monday, "user-1")
		env.ws.update(func(b *BudgetState) {
			p := remotePeriod("p1", 1, false, nil)
			b.CurrentPeriod = &p
		})
		store.periods = []models.Period{remotePeriod("p1", 1, true, ptr(true))}

		testutil.AssertNoError(t, env.engine.Sync.Sync(ctx))
		b := env.ws.Snapshot()
		if b.CurrentPeriod != nil {
			t.Errorf("closed period kept as current: %+v", b.CurrentPeriod)
		}
		if len(b.History) != 1 || b.History[0].ID != "p1" {
			t.Errorf("unexpected history %+v", b.History)
		}
	})
}

func TestSync_SingleFlight(t *testing.T) {
	env, store, _ := newRemoteEnv(t, monday, "user-1")
	started := make(chan struct{})
	release := make(chan struct{})
	var once sync.Once
	store.selectPeriodsFn = func(ctx context.Context, q remote.PeriodQuery) ([]models.Period, error) {
		once.Do(func() { close(started) })
		<-release
		return nil, nil
	}

	errCh := make(chan error, 1)
	go func() { errCh <- env.engine.Sync.Sync(context.Background()) }()
	<-started

	if !env.ws.Status().Syncing {
		t.Error("expected syncing flag during pull")
	}
	testutil.AssertNoError(t, env.engine.Sync.Sync(context.Background()))

	close(release)
	testutil.AssertNoError(t, <-errCh)

	if n := store.count("SelectPeriods"); n != 1 {
		t.Errorf("SelectPeriods called %d times, want 1", n)
	}
	if env.ws.Status().Syncing {
		t.Error("syncing flag not cleared")
	}
}

func TestSync_NoSession(t *testing.T) {
	env, store, sessions := newRemoteEnv(t, monday, "user-1")
	sessions.sess = nil

	// Something already in the cache to fall back to.
	cached := remotePeriod("cached", 0, false, nil)
	env.cache.Save(localcache.Snapshot{CurrentPeriod: &cached})

	err := env.engine.Sync.Sync(context.Background())
	testutil.AssertAppError(t, err, "SESSION_INVALID")

	if env.ws.UserID() != "" {
		t.Error("identity should be cleared")
	}
	if sessions.signOutCount() != 0 {
		t.Error("no sign out expected without a session")
	}
	if store.count("SelectPeriods") != 0 {
		t.Error("no fetch expected without a session")
	}
	if cur := env.ws.Snapshot().CurrentPeriod; cur == nil || cur.ID != "cached" {
		t.Errorf("expected cache fallback, got %+v", cur)
	}
	if env.sched.count() != 0 {
		t.Error("auth failures must not retry")
	}
	if env.ws.Status().Syncing {
		t.Error("syncing flag not cleared")
	}
}

func TestSync_AuthErrorSignsOut(t *testing.T) {
	env, store, sessions := newRemoteEnv(t, monday, "user-1")
	store.selectPeriodsFn = func(context.Context, remote.PeriodQuery) ([]models.Period, error) {
		return nil, errors.New("JWT expired")
	}

	err := env.engine.Sync.Sync(context.Background())
	if err == nil {
		t.Fatal("expected error")
	}
	if sessions.signOutCount() != 1 {
		t.Errorf("SignOut called %d times, want 1", sessions.signOutCount())
	}
	if env.ws.UserID() != "" {
		t.Error("identity should be cleared")
	}
	if env.sched.count() != 0 {
		t.Error("auth failures must not retry")
	}
	if !strings.Contains(env.ws.Status().SyncError, "JWT expired") {
		t.Errorf("SyncError = %q", env.ws.Status().SyncError)
	}

	// Mutations after losing the identity stay local.
	_, err = env.engine.Periods.CreateNewPeriod(context.Background(), dollars("10"))
	testutil.AssertNoError(t, err)
	if store.count("InsertPeriod") != 0 {
		t.Error("expected local-only mode after auth failure")
	}
}

func TestSync_RemoteFailureKeepsIdentity(t *testing.T) {
	env, store, sessions := newRemoteEnv(t, monday, "user-1")
	store.selectPeriodsFn = func(context.Context, remote.PeriodQuery) ([]models.Period, error) {
		return nil, apperrors.Wrap(apperrors.ErrRemoteOperation, errors.New(`invalid input syntax for type uuid: "x"`))
	}

	if err := env.engine.Sync.Sync(context.Background()); err == nil {
		t.Fatal("expected error")
	}
	if sessions.signOutCount() != 0 {
		t.Errorf("SignOut called %d times, want 0", sessions.signOutCount())
	}
	if env.ws.UserID() != "user-1" {
		t.Errorf("identity = %q, want user-1", env.ws.UserID())
	}
	if env.sched.count() != 0 {
		t.Error("non-network failures must not retry")
	}
}

func TestSync_NetworkErrorRetriesOnce(t *testing.T) {
	env, store, _ := newRemoteEnv(t, monday, "user-1")
	attempts := 0
	store.selectPeriodsFn = func(context.Context, remote.PeriodQuery) ([]models.Period, error) {
		attempts++
		if attempts <= 2 {
			return nil, errors.New("network request failed")
		}
		return nil, nil
	}

	err := env.engine.Sync.Sync(context.Background())
	if err == nil {
		t.Fatal("expected error")
	}
	firstMsg := env.ws.Status().SyncError
	if env.sched.count() != 1 || env.sched.delays[0] != 2*time.Second {
		t.Fatalf("expected one retry after 2s, got %d %v", env.sched.count(), env.sched.delays)
	}

	// The retry fails as well: no further retry, original message kept.
	env.sched.runAll()
	if attempts != 2 {
		t.Fatalf("attempts = %d, want 2", attempts)
	}
	if env.sched.count() != 0 {
		t.Error("a retry must not schedule another retry")
	}
	if env.ws.Status().SyncError != firstMsg {
		t.Errorf("SyncError = %q, want original %q", env.ws.Status().SyncError, firstMsg)
	}
	if env.ws.UserID() != "user-1" {
		t.Error("network failures keep the identity")
	}

	// A fresh sync starts a new chain and succeeds.
	testutil.AssertNoError(t, env.engine.Sync.Sync(context.Background()))
	if env.ws.Status().SyncError != "" {
		t.Error("success should clear the error")
	}
}

func TestSync_StaleRetryIsDropped(t *testing.T) {
	env, store, _ := newRemoteEnv(t, monday, "user-1")
	fail := true
	store.selectPeriodsFn = func(context.Context, remote.PeriodQuery) ([]models.Period, error) {
		if fail {
			return nil, errors.New("request timed out")
		}
		return nil, nil
	}

	_ = env.engine.Sync.Sync(context.Background())
	if env.sched.count() != 1 {
		t.Fatal("expected a scheduled retry")
	}

	fail = false
	testutil.AssertNoError(t, env.engine.Sync.Sync(context.Background()))
	before := store.count("SelectPeriods")

	env.sched.runAll()
	if store.count("SelectPeriods") != before {
		t.Error("retry ran after a newer sync succeeded")
	}
}

func TestSync_SessionTimeout(t *testing.T) {
	env, store, sessions := newRemoteEnv(t, monday, "user-1", shortTimeouts)
	release := make(chan struct{})
	t.Cleanup(func() { close(release) })
	sessions.getFn = func(ctx context.Context) (*session.Session, error) {
		<-release
		return nil, nil
	}

	err := env.engine.Sync.Sync(context.Background())
	testutil.AssertAppError(t, err, "SESSION_TIMEOUT")
	if store.count("SelectPeriods") != 0 {
		t.Error("fetch must not run after a session timeout")
	}
	if env.ws.Status().Syncing {
		t.Error("syncing flag not cleared")
	}
}

func TestSync_FetchTimeout(t *testing.T) {
	env, store, _ := newRemoteEnv(t, monday, "user-1", shortTimeouts)
	release := make(chan struct{})
	t.Cleanup(func() { close(release) })
	store.selectPeriodsFn = func(ctx context.Context, q remote.PeriodQuery) ([]models.Period, error) {
		<-release
		return []models.Period{remotePeriod("late", 0, false, nil)}, nil
	}

	err := env.engine.Sync.Sync(context.Background())
	testutil.AssertAppError(t, err, "NETWORK_TIMEOUT")
	if env.ws.Snapshot().CurrentPeriod != nil {
		t.Error("late result must be discarded")
	}
	if env.sched.count() != 1 {
		t.Error("timeouts are retried once")
	}
}

func TestSync_RecurringItemsAreBestEffort(t *testing.T) {
	env, store, _ := newRemoteEnv(t, monday, "user-1")
	store.periods = []models.Period{remotePeriod("open", 0, false, nil)}
	store.selectItemsFn = func(context.Context, string) ([]models.RecurringItem, error) {
		return nil, errors.New("relation does not exist")
	}

	testutil.AssertNoError(t, env.engine.Sync.Sync(context.Background()))
	if cur := env.ws.Snapshot().CurrentPeriod; cur == nil || cur.ID != "open" {
		t.Error("periods should sync even when recurring items fail")
	}
}

func TestSync_SignOutDiscardsInFlightPull(t *testing.T) {
	env, store, _ := newRemoteEnv(t, monday, "user-1")
	started := make(chan struct{})
	release := make(chan struct{})
	store.selectPeriodsFn = func(context.Context, remote.PeriodQuery) ([]models.Period, error) {
		close(started)
		<-release
		return []models.Period{remotePeriod("open", 0, false, nil)}, nil
	}

	errCh := make(chan error, 1)
	go func() { errCh <- env.engine.Sync.Sync(context.Background()) }()
	<-started

	testutil.AssertNoError(t, env.engine.Sync.SignOut(context.Background()))
	close(release)
	testutil.AssertNoError(t, <-errCh)

	if env.ws.Snapshot().CurrentPeriod != nil {
		t.Error("pull result applied after sign out")
	}
	if env.cache.Load().CurrentPeriod != nil {
		t.Error("pull result persisted after sign out")
	}
}

func TestBootstrap(t *testing.T) {
	ctx := context.Background()
	cached := remotePeriod("cached", 0, false, nil)

	t.Run("without a session stays local", func(t *testing.T) {
		store := newFakeRemote()
		sessions := &fakeSessions{}
		env := newTestEnv(t, monday, store, sessions)
		env.cache.Save(localcache.Snapshot{CurrentPeriod: &cached, LongestStreak: 3})

		testutil.AssertNoError(t, env.engine.Sync.Bootstrap(ctx))
		b := env.ws.Snapshot()
		if !b.HasInitialLoad || b.CurrentPeriod == nil || b.CurrentPeriod.ID != "cached" || b.LongestStreak != 3 {
			t.Errorf("cache not loaded: %+v", b)
		}
		if store.count("SelectPeriods") != 0 {
			t.Error("no pull expected without a session")
		}
		if env.ws.UserID() != "" {
			t.Error("expected local mode")
		}
	})

	t.Run("with a session pulls remote state", func(t *testing.T) {
		store := newFakeRemote()
		store.periods = []models.Period{remotePeriod("open", 0, false, nil)}
		env := newTestEnv(t, monday, store, signedIn("user-1"))
		env.cache.Save(localcache.Snapshot{CurrentPeriod: &cached})

		testutil.AssertNoError(t, env.engine.Sync.Bootstrap(ctx))
		if env.ws.UserID() != "user-1" {
			t.Error("identity not set")
		}
		if cur := env.ws.Snapshot().CurrentPeriod; cur == nil || cur.ID != "open" {
			t.Errorf("remote state not applied: %+v", cur)
		}
	})

	t.Run("without a provider is local only", func(t *testing.T) {
		env := newTestEnv(t, monday, nil, nil)
		testutil.AssertNoError(t, env.engine.Sync.Bootstrap(ctx))
		if !env.ws.Snapshot().HasInitialLoad {
			t.Error("expected HasInitialLoad")
		}
	})
}

func TestSignOut_ClearsState(t *testing.T) {
	env, _, sessions := newRemoteEnv(t, monday, "user-1")
	ctx := context.Background()
	_, _ = env.engine.Periods.CreateNewPeriod(ctx, dollars("10"))

	testutil.AssertNoError(t, env.engine.Sync.SignOut(ctx))

	if sessions.signOutCount() != 1 {
		t.Error("provider sign out not called")
	}
	b := env.ws.Snapshot()
	if b.CurrentPeriod != nil || len(b.History) != 0 || b.LastBudgetCents != nil {
		t.Errorf("state not cleared: %+v", b)
	}
	if env.ws.UserID() != "" {
		t.Error("identity not cleared")
	}
	if env.cache.Load().CurrentPeriod != nil {
		t.Error("cache not cleared")
	}
}
