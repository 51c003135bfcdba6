// Package remote is the hosted relational store that periods, expenses,
// income and reminder settings are synchronized to. Every query is scoped
// to the requesting user.
package remote

import (
	"context"

	"saveit/internal/models"
	"saveit/internal/pagination"
)

// PeriodQuery filters SelectPeriods. Results are newest first by start_date.
type PeriodQuery struct {
	UserID      string
	Closed      *bool
	Limit       int
	WithEntries bool // preload expenses and income entries
}

// PeriodPatch lists the period columns an update may touch. Nil fields are
// left unchanged.
type PeriodPatch struct {
	Closed          *bool
	BudgetCents     *int64
	TotalSpentCents *int64
	Success         *bool
	DaysMarkedDone  *models.DayKeys
}

// Store is the remote data capability used by the budgeting engine.
type Store interface {
	InsertPeriod(ctx context.Context, p *models.Period) (*models.Period, error)
	UpdatePeriod(ctx context.Context, userID, id string, patch PeriodPatch) error
	SelectPeriods(ctx context.Context, q PeriodQuery) ([]models.Period, error)

	InsertExpense(ctx context.Context, e *models.Expense) (*models.Expense, error)
	DeleteExpense(ctx context.Context, userID, id string) error

	InsertIncome(ctx context.Context, in *models.IncomeEntry) (*models.IncomeEntry, error)
	DeleteIncome(ctx context.Context, userID, id string) error

	SelectRecurringItems(ctx context.Context, userID string) ([]models.RecurringItem, error)
	SaveRecurringItem(ctx context.Context, item *models.RecurringItem) (*models.RecurringItem, error)
	DeleteRecurringItem(ctx context.Context, userID, id string) error
}

// ProfileStore is the reminder-settings capability used by the SMS API and
// the daily reminder job.
type ProfileStore interface {
	GetProfile(ctx context.Context, userID string) (*models.UserProfile, error)
	UpsertProfile(ctx context.Context, p *models.UserProfile) (*models.UserProfile, error)
	ListReminderProfiles(ctx context.Context, page pagination.PageRequest) (*pagination.PageResponse[models.UserProfile], error)
	LatestOpenPeriod(ctx context.Context, userID string) (*models.Period, error)
}
