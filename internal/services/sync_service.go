package services

import (
	"context"
	"errors"
	"fmt"

	apperrors "saveit/internal/errors"
	"saveit/internal/logger"
	"saveit/internal/metrics"
	"saveit/internal/models"
	"saveit/internal/remote"
	"saveit/internal/session"
)

type syncService struct {
	*deps
}

// NewSyncService creates a standalone SyncServicer.
func NewSyncService(ws *Workspace, store remote.Store, sessions session.Provider, opts Options) SyncServicer {
	return &syncService{&deps{ws: ws, store: store, sessions: sessions, opts: opts.withDefaults()}}
}

// Bootstrap loads the local cache and, when someone is signed in, pulls
// remote state before returning. Without a session the workspace stays in
// local mode.
func (s *syncService) Bootstrap(ctx context.Context) error {
	s.ws.loadFromCache()
	if s.sessions == nil {
		return nil
	}
	sess, err := s.session(ctx)
	if err != nil {
		logger.Get().Warnw("Session check failed, staying on local data", "error", err)
		return err
	}
	if sess == nil {
		return nil
	}
	s.ws.setUserID(sess.UserID)
	return s.Sync(ctx)
}

// Sync pulls remote truth into the workspace. A call made while another
// pull is running returns nil without doing anything.
func (s *syncService) Sync(ctx context.Context) error {
	return s.pull(ctx, false)
}

// SignOut ends the session and clears all local budget data.
func (s *syncService) SignOut(ctx context.Context) error {
	var err error
	if s.sessions != nil {
		err = s.sessions.SignOut(ctx)
	}
	s.ws.reset()
	return err
}

func (s *syncService) session(ctx context.Context) (*session.Session, error) {
	return awaitWithTimeout(ctx, s.opts.SessionTimeout, apperrors.ErrSessionTimeout, s.sessions.GetSession)
}

func (s *syncService) pull(ctx context.Context, isRetry bool) error {
	gen, chain, ok := s.ws.beginSync(isRetry)
	if !ok {
		return nil
	}
	ended := false
	defer func() {
		if !ended {
			s.ws.endSync()
		}
	}()

	err := s.fetchAndApply(ctx, gen)
	s.ws.endSync()
	ended = true

	if err != nil {
		s.handleFailure(err, chain, isRetry)
		return err
	}
	return nil
}

func (s *syncService) fetchAndApply(ctx context.Context, gen uint64) error {
	if s.sessions == nil {
		return apperrors.ErrSessionInvalid
	}
	sess, err := s.session(ctx)
	if err != nil {
		return err
	}
	if sess == nil {
		return apperrors.ErrSessionInvalid
	}
	if s.store == nil {
		return apperrors.WithMessage(apperrors.ErrRemoteOperation, "No remote store configured")
	}
	s.ws.setUserID(sess.UserID)

	periods, err := awaitWithTimeout(ctx, s.opts.SyncTimeout, apperrors.ErrNetworkTimeout, func(ctx context.Context) ([]models.Period, error) {
		return s.store.SelectPeriods(ctx, remote.PeriodQuery{UserID: sess.UserID, WithEntries: true})
	})
	if err != nil {
		return fmt.Errorf("failed to fetch periods: %w", err)
	}

	items, itemsErr := awaitWithTimeout(ctx, s.opts.SyncTimeout, apperrors.ErrNetworkTimeout, func(ctx context.Context) ([]models.RecurringItem, error) {
		return s.store.SelectRecurringItems(ctx, sess.UserID)
	})
	if itemsErr != nil {
		logger.Get().Warnw("Failed to fetch recurring items", "user_id", sess.UserID, "error", itemsErr)
	}

	open, history, closedIDs := partition(periods)
	applied := s.ws.applyPull(gen, s.now(), func(b *BudgetState) {
		switch {
		case open != nil:
			b.CurrentPeriod = open
		case b.CurrentPeriod != nil && closedIDs[b.CurrentPeriod.ID]:
			b.CurrentPeriod = nil
		}
		b.History = history
		b.LongestStreak = metrics.LongestStreak(history)
		if itemsErr == nil {
			b.RecurringItems = items
		}
	})
	if !applied {
		logger.Get().Debugw("Discarding superseded pull", "user_id", sess.UserID)
		return nil
	}

	logger.Get().Infow("Sync complete",
		"user_id", sess.UserID,
		"periods", len(periods),
		"history", len(history),
	)
	return nil
}

// partition splits newest-first remote periods into the most recent open
// period and the closed history, resolving success on each archived row.
func partition(periods []models.Period) (*models.Period, []models.HistoricalPeriod, map[string]bool) {
	var open *models.Period
	history := make([]models.HistoricalPeriod, 0, len(periods))
	closedIDs := make(map[string]bool)
	for i := range periods {
		p := periods[i].Clone()
		if !p.Closed {
			if open == nil {
				open = p
			}
			continue
		}
		if p.Success == nil {
			success := metrics.ResolveSuccess(p)
			p.Success = &success
		}
		history = append(history, *p)
		closedIDs[p.ID] = true
	}
	return open, history, closedIDs
}

// handleFailure falls back to the local cache. Auth failures drop the
// identity; network failures get one deferred retry per chain.
func (s *syncService) handleFailure(err error, chain uint64, isRetry bool) {
	s.ws.failSync(err.Error(), isRetry)

	switch {
	case apperrors.IsAuthError(err):
		logger.Get().Warnw("Sync failed with auth error, signing out", "error", err)
		if !errors.Is(err, apperrors.ErrSessionInvalid) && s.sessions != nil {
			if sErr := s.sessions.SignOut(context.Background()); sErr != nil {
				logger.Get().Warnw("Sign out after auth failure failed", "error", sErr)
			}
		}
		s.ws.clearIdentity()
		s.ws.loadFromCache()

	case apperrors.IsNetworkError(err):
		logger.Get().Warnw("Sync failed with network error, using cached data", "error", err, "retry", isRetry)
		s.ws.loadFromCache()
		if isRetry || !s.ws.claimRetry(chain) {
			return
		}
		s.opts.Schedule(s.opts.RetryDelay, func() {
			if !s.ws.retryWanted(chain) {
				return
			}
			_ = s.pull(context.Background(), true)
		})

	default:
		logger.Get().Errorw("Sync failed, using cached data", "error", err)
		s.ws.loadFromCache()
	}
}
