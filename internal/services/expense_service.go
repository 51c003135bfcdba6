package services

import (
	"context"
	"fmt"
	"slices"

	apperrors "saveit/internal/errors"
	"saveit/internal/logger"
	"saveit/internal/models"
	"saveit/internal/money"
	"saveit/internal/remote"
	"saveit/internal/uuid"
)

type expenseService struct {
	*deps
}

// NewExpenseService creates a standalone ExpenseServicer.
func NewExpenseService(ws *Workspace, store remote.Store, opts Options) ExpenseServicer {
	return &expenseService{&deps{ws: ws, store: store, opts: opts.withDefaults()}}
}

// AddExpense records a spend against the current period. With a remote
// identity the row is inserted remotely first and nothing changes locally
// if that fails.
func (s *expenseService) AddExpense(ctx context.Context, in ExpenseInput) (*models.Expense, error) {
	if !money.AtLeastMin(in.Amount) {
		return nil, apperrors.WithMessage(apperrors.ErrValidation, "Amount must be at least $0.01")
	}
	note := sanitizeText(in.Note)
	if note == "" {
		return nil, apperrors.WithMessage(apperrors.ErrValidation, "Note is required")
	}
	cur := s.ws.Snapshot().CurrentPeriod
	if cur == nil {
		return nil, apperrors.ErrNoActivePeriod
	}

	ts := s.now()
	if in.Timestamp != nil {
		ts = *in.Timestamp
	}
	exp := &models.Expense{
		PeriodID:    cur.ID,
		AmountCents: money.ToCents(in.Amount),
		Note:        note,
		Timestamp:   ts,
		Category:    in.Category,
		IsRecurring: in.IsRecurring,
	}

	if userID, ok := s.remoteUser(); ok {
		exp.UserID = userID
		var inserted *models.Expense
		err := s.remoteCall(ctx, func(ctx context.Context) error {
			row, err := s.store.InsertExpense(ctx, exp)
			inserted = row
			return err
		})
		if err != nil {
			s.ws.markPending()
			return nil, fmt.Errorf("failed to add expense: %w", err)
		}
		if inserted != nil {
			exp = inserted
		}
	} else {
		exp.ID = uuid.New()
	}

	added := false
	s.ws.update(func(b *BudgetState) {
		if b.CurrentPeriod == nil || b.CurrentPeriod.ID != exp.PeriodID {
			return
		}
		b.CurrentPeriod.Expenses = append(b.CurrentPeriod.Expenses, *exp)
		added = true
	})
	if !added {
		logger.Get().Warnw("Expense saved but current period changed", "expense_id", exp.ID, "period_id", exp.PeriodID)
	}
	return exp, nil
}

// RemoveExpense deletes an expense from the current period. Expenses of
// archived periods cannot be removed.
func (s *expenseService) RemoveExpense(ctx context.Context, id string) error {
	if id == "" {
		return apperrors.WithMessage(apperrors.ErrValidation, "Expense id is required")
	}
	if archivedContains(s.ws.Snapshot().History, func(p *models.Period) bool {
		return slices.ContainsFunc(p.Expenses, func(e models.Expense) bool { return e.ID == id })
	}) {
		return apperrors.ErrPeriodClosed
	}

	if userID, ok := s.remoteUser(); ok {
		err := s.remoteCall(ctx, func(ctx context.Context) error {
			return s.store.DeleteExpense(ctx, userID, id)
		})
		if err != nil {
			s.ws.markPending()
			return fmt.Errorf("failed to remove expense: %w", err)
		}
	}

	s.ws.update(func(b *BudgetState) {
		if b.CurrentPeriod == nil {
			return
		}
		b.CurrentPeriod.Expenses = slices.DeleteFunc(b.CurrentPeriod.Expenses, func(e models.Expense) bool {
			return e.ID == id
		})
	})
	return nil
}

// AddIncome records income against the current period, remote first.
func (s *expenseService) AddIncome(ctx context.Context, in IncomeInput) (*models.IncomeEntry, error) {
	if !money.AtLeastMin(in.Amount) {
		return nil, apperrors.WithMessage(apperrors.ErrValidation, "Amount must be at least $0.01")
	}
	incomeType := sanitizeText(in.IncomeType)
	if incomeType == "" {
		return nil, apperrors.WithMessage(apperrors.ErrValidation, "Income type is required")
	}
	cur := s.ws.Snapshot().CurrentPeriod
	if cur == nil {
		return nil, apperrors.ErrNoActivePeriod
	}

	ts := s.now()
	if in.Timestamp != nil {
		ts = *in.Timestamp
	}
	entry := &models.IncomeEntry{
		PeriodID:    cur.ID,
		AmountCents: money.ToCents(in.Amount),
		IncomeType:  incomeType,
		Note:        sanitizeText(in.Note),
		Timestamp:   ts,
	}

	if userID, ok := s.remoteUser(); ok {
		entry.UserID = userID
		var inserted *models.IncomeEntry
		err := s.remoteCall(ctx, func(ctx context.Context) error {
			row, err := s.store.InsertIncome(ctx, entry)
			inserted = row
			return err
		})
		if err != nil {
			s.ws.markPending()
			return nil, fmt.Errorf("failed to add income: %w", err)
		}
		if inserted != nil {
			entry = inserted
		}
	} else {
		entry.ID = uuid.New()
	}

	s.ws.update(func(b *BudgetState) {
		if b.CurrentPeriod == nil || b.CurrentPeriod.ID != entry.PeriodID {
			return
		}
		b.CurrentPeriod.IncomeEntries = append(b.CurrentPeriod.IncomeEntries, *entry)
	})
	return entry, nil
}

// RemoveIncome deletes an income entry from the current period.
func (s *expenseService) RemoveIncome(ctx context.Context, id string) error {
	if id == "" {
		return apperrors.WithMessage(apperrors.ErrValidation, "Income id is required")
	}
	if archivedContains(s.ws.Snapshot().History, func(p *models.Period) bool {
		return slices.ContainsFunc(p.IncomeEntries, func(e models.IncomeEntry) bool { return e.ID == id })
	}) {
		return apperrors.ErrPeriodClosed
	}

	if userID, ok := s.remoteUser(); ok {
		err := s.remoteCall(ctx, func(ctx context.Context) error {
			return s.store.DeleteIncome(ctx, userID, id)
		})
		if err != nil {
			s.ws.markPending()
			return fmt.Errorf("failed to remove income: %w", err)
		}
	}

	s.ws.update(func(b *BudgetState) {
		if b.CurrentPeriod == nil {
			return
		}
		b.CurrentPeriod.IncomeEntries = slices.DeleteFunc(b.CurrentPeriod.IncomeEntries, func(e models.IncomeEntry) bool {
			return e.ID == id
		})
	})
	return nil
}

func archivedContains(history []models.HistoricalPeriod, match func(p *models.Period) bool) bool {
	for i := range history {
		if match(&history[i]) {
			return true
		}
	}
	return false
}
