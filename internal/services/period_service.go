package services

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	apperrors "saveit/internal/errors"
	"saveit/internal/logger"
	"saveit/internal/metrics"
	"saveit/internal/models"
	"saveit/internal/money"
	"saveit/internal/remote"
	"saveit/internal/uuid"
	"saveit/internal/week"
)

type periodService struct {
	*deps
}

// NewPeriodService creates a standalone PeriodServicer.
func NewPeriodService(ws *Workspace, store remote.Store, opts Options) PeriodServicer {
	return &periodService{&deps{ws: ws, store: store, opts: opts.withDefaults()}}
}

// archive closes p with its final totals computed.
func archive(p *models.Period) models.HistoricalPeriod {
	h := p.Clone()
	spent := metrics.TotalSpent(p)
	income := metrics.TotalIncome(p)
	success := spent <= p.BudgetCents
	h.Closed = true
	h.TotalSpentCents = &spent
	h.TotalIncomeCents = &income
	h.Success = &success
	return *h
}

// CreateNewPeriod starts a week at the current instant, pro-rating the
// budget when less than a full week remains.
func (s *periodService) CreateNewPeriod(ctx context.Context, weeklyBudget decimal.Decimal) (*models.Period, error) {
	if !money.AtLeastMin(weeklyBudget) {
		return nil, apperrors.WithMessage(apperrors.ErrValidation, "Weekly budget must be at least $0.01")
	}
	weeklyCents := money.ToCents(weeklyBudget)
	now := s.now()
	_, end := week.Bounds(now)

	cur := s.ws.Snapshot().CurrentPeriod
	next, _, err := s.replaceCurrent(ctx, cur, weeklyCents, week.ProRate(weeklyCents, now, end), now)
	if next == nil && err == nil {
		return s.ws.Snapshot().CurrentPeriod, nil
	}
	return next, err
}

// CheckAndRollover archives the current period once it has ended and opens
// the week containing now at the full weekly budget.
func (s *periodService) CheckAndRollover(ctx context.Context) (bool, error) {
	if !s.ws.beginRollover() {
		return false, nil
	}
	defer s.ws.endRollover()

	now := s.now()
	b := s.ws.Snapshot()
	cur := b.CurrentPeriod
	if cur == nil || !now.After(cur.EndDate) {
		return false, nil
	}

	weeklyCents := cur.BudgetCents
	if b.LastBudgetCents != nil && *b.LastBudgetCents > 0 {
		weeklyCents = *b.LastBudgetCents
	}

	logger.Get().Infow("Rolling over budget period",
		"period_id", cur.ID,
		"ended", cur.EndDate,
		"weekly_budget_cents", weeklyCents,
	)
	_, applied, err := s.replaceCurrent(ctx, cur, weeklyCents, weeklyCents, now)
	return applied, err
}

// replaceCurrent archives cur (if any) and installs a new period. Remote
// failures leave the local transition in place and raise pending changes.
// Nothing is written when cur is no longer the current period. A change that
// lands while the remote writes are in flight skips the local swap; the
// extra open remote row is dropped by the next pull, which keeps only the
// newest open period.
func (s *periodService) replaceCurrent(ctx context.Context, cur *models.Period, weeklyCents, budgetCents int64, now time.Time) (*models.Period, bool, error) {
	if !samePeriod(s.ws.Snapshot().CurrentPeriod, cur) {
		logger.Get().Infow("Current period changed, skipping replacement")
		return nil, false, nil
	}

	start, end := week.Bounds(now)
	next := &models.Period{
		StartDate:      start,
		EndDate:        end,
		BudgetCents:    budgetCents,
		DaysMarkedDone: models.DayKeys{},
	}

	var archived *models.HistoricalPeriod
	if cur != nil {
		h := archive(cur)
		archived = &h
	}

	var remoteErr error
	if userID, ok := s.remoteUser(); ok {
		next.UserID = userID
		remoteErr = s.pushNewPeriod(ctx, userID, archived, next)
	}
	if next.ID == "" {
		next.ID = uuid.New()
	}

	applied := false
	s.ws.update(func(b *BudgetState) {
		if !samePeriod(b.CurrentPeriod, cur) {
			return
		}
		applied = true
		if archived != nil {
			b.History = append([]models.HistoricalPeriod{*archived}, b.History...)
		}
		b.CurrentPeriod = next.Clone()
		last := weeklyCents
		b.LastBudgetCents = &last
		if streak := metrics.CurrentStreak(b.History); streak > b.LongestStreak {
			b.LongestStreak = streak
		}
	})

	if remoteErr != nil {
		s.ws.markPending()
		logger.Get().Warnw("Period saved locally, remote write failed",
			"period_id", next.ID,
			"error", remoteErr,
		)
		return next, applied, remoteErr
	}
	return next, applied, nil
}

// pushNewPeriod closes the archived row and inserts next. The first failure
// stops the sequence.
func (s *periodService) pushNewPeriod(ctx context.Context, userID string, archived *models.HistoricalPeriod, next *models.Period) error {
	if archived != nil {
		closed := true
		patch := remote.PeriodPatch{
			Closed:          &closed,
			TotalSpentCents: archived.TotalSpentCents,
			Success:         archived.Success,
		}
		err := s.remoteCall(ctx, func(ctx context.Context) error {
			return s.store.UpdatePeriod(ctx, userID, archived.ID, patch)
		})
		if err != nil {
			return fmt.Errorf("failed to close period %s: %w", archived.ID, err)
		}
	}

	var inserted *models.Period
	err := s.remoteCall(ctx, func(ctx context.Context) error {
		row, err := s.store.InsertPeriod(ctx, next.Clone())
		inserted = row
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to insert period: %w", err)
	}
	if inserted != nil {
		next.ID = inserted.ID
		next.CreatedAt = inserted.CreatedAt
	}
	return nil
}

// UpdateBudget changes the current period's budget and records it as the
// full weekly amount for future rollovers.
func (s *periodService) UpdateBudget(ctx context.Context, amount decimal.Decimal) error {
	if !money.AtLeastMin(amount) {
		return apperrors.WithMessage(apperrors.ErrValidation, "Budget must be at least $0.01")
	}
	cents := money.ToCents(amount)

	cur := s.ws.Snapshot().CurrentPeriod
	if cur == nil {
		return apperrors.ErrNoActivePeriod
	}

	var remoteErr error
	if userID, ok := s.remoteUser(); ok {
		remoteErr = s.remoteCall(ctx, func(ctx context.Context) error {
			return s.store.UpdatePeriod(ctx, userID, cur.ID, remote.PeriodPatch{BudgetCents: &cents})
		})
	}

	s.ws.update(func(b *BudgetState) {
		if b.CurrentPeriod != nil && b.CurrentPeriod.ID == cur.ID {
			b.CurrentPeriod.BudgetCents = cents
		}
		last := cents
		b.LastBudgetCents = &last
	})

	if remoteErr != nil {
		s.ws.markPending()
		return fmt.Errorf("failed to update budget: %w", remoteErr)
	}
	return nil
}

// ToggleDay marks or unmarks a day of the current period as logged. The
// local toggle is kept even if the remote write fails.
func (s *periodService) ToggleDay(ctx context.Context, dayKey string) error {
	cur := s.ws.Snapshot().CurrentPeriod
	if cur == nil {
		return apperrors.ErrNoActivePeriod
	}
	if !week.Contains(cur.StartDate, cur.EndDate, dayKey) {
		return apperrors.ErrDayOutOfPeriod
	}

	var days models.DayKeys
	toggled := false
	s.ws.update(func(b *BudgetState) {
		if b.CurrentPeriod == nil || b.CurrentPeriod.ID != cur.ID {
			return
		}
		b.CurrentPeriod.DaysMarkedDone = b.CurrentPeriod.DaysMarkedDone.Toggle(dayKey)
		days = b.CurrentPeriod.DaysMarkedDone.Clone()
		toggled = true
	})
	if !toggled {
		return apperrors.ErrNoActivePeriod
	}

	userID, ok := s.remoteUser()
	if !ok {
		return nil
	}
	err := s.remoteCall(ctx, func(ctx context.Context) error {
		return s.store.UpdatePeriod(ctx, userID, cur.ID, remote.PeriodPatch{DaysMarkedDone: &days})
	})
	if err != nil {
		s.ws.markPending()
		return fmt.Errorf("failed to save marked days: %w", err)
	}
	return nil
}

func samePeriod(a, b *models.Period) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.ID == b.ID
}
