// Package services implements the offline-first budgeting engine: the
// budget-week lifecycle, the expense ledger and remote synchronization.
package services

import (
	"context"
	"fmt"
	"time"

	apperrors "saveit/internal/errors"
	"saveit/internal/remote"
	"saveit/internal/session"
)

// Options tunes the engine's timing. Zero values take the defaults.
type Options struct {
	SyncTimeout    time.Duration
	SessionTimeout time.Duration
	RetryDelay     time.Duration
	Location       *time.Location
	Now            func() time.Time
	// Schedule runs f after d. Defaults to time.AfterFunc.
	Schedule func(d time.Duration, f func())
}

func (o Options) withDefaults() Options {
	if o.SyncTimeout <= 0 {
		o.SyncTimeout = 10 * time.Second
	}
	if o.SessionTimeout <= 0 {
		o.SessionTimeout = 8 * time.Second
	}
	if o.RetryDelay <= 0 {
		o.RetryDelay = 2 * time.Second
	}
	if o.Location == nil {
		o.Location = time.Local
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	if o.Schedule == nil {
		o.Schedule = func(d time.Duration, f func()) { time.AfterFunc(d, f) }
	}
	return o
}

// deps is shared by every service of one engine.
type deps struct {
	ws       *Workspace
	store    remote.Store
	sessions session.Provider
	opts     Options
}

func (d *deps) now() time.Time {
	return d.opts.Now().In(d.opts.Location)
}

// remoteUser returns the identity to write as, and whether remote mode is on.
func (d *deps) remoteUser() (string, bool) {
	if d.store == nil {
		return "", false
	}
	id := d.ws.UserID()
	return id, id != ""
}

// remoteCall runs fn bounded by the sync timeout.
func (d *deps) remoteCall(ctx context.Context, fn func(ctx context.Context) error) error {
	_, err := awaitWithTimeout(ctx, d.opts.SyncTimeout, apperrors.ErrNetworkTimeout, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, fn(ctx)
	})
	return err
}

// Engine bundles the services that operate on one Workspace.
type Engine struct {
	Periods   PeriodServicer
	Ledger    ExpenseServicer
	Recurring RecurringServicer
	Sync      SyncServicer

	ws *Workspace
}

// NewEngine wires the services. store and sessions may be nil for a purely
// local engine.
func NewEngine(ws *Workspace, store remote.Store, sessions session.Provider, opts Options) *Engine {
	d := &deps{ws: ws, store: store, sessions: sessions, opts: opts.withDefaults()}
	return &Engine{
		Periods:   &periodService{d},
		Ledger:    &expenseService{d},
		Recurring: &recurringService{d},
		Sync:      &syncService{d},
		ws:        ws,
	}
}

// Workspace returns the state the engine operates on.
func (e *Engine) Workspace() *Workspace {
	return e.ws
}

// awaitWithTimeout races fn against a timer. On timeout fn keeps running in
// the background and its result is dropped.
func awaitWithTimeout[T any](ctx context.Context, d time.Duration, timeoutErr *apperrors.AppError, fn func(ctx context.Context) (T, error)) (T, error) {
	type result struct {
		v   T
		err error
	}
	ch := make(chan result, 1)
	go func() {
		v, err := fn(ctx)
		ch <- result{v, err}
	}()

	timer := time.NewTimer(d)
	defer timer.Stop()

	var zero T
	select {
	case r := <-ch:
		return r.v, r.err
	case <-timer.C:
		return zero, apperrors.Wrap(timeoutErr, fmt.Errorf("timed out after %s", d))
	case <-ctx.Done():
		return zero, apperrors.Wrap(timeoutErr, ctx.Err())
	}
}
