package services

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"saveit/internal/models"
	"saveit/internal/reminder"
)

// ExpenseInput is a new expense as entered by the user.
type ExpenseInput struct {
	Amount      decimal.Decimal
	Note        string
	Timestamp   *time.Time
	Category    *string
	IsRecurring bool
}

// IncomeInput is a new income entry as entered by the user.
type IncomeInput struct {
	Amount     decimal.Decimal
	IncomeType string
	Note       string
	Timestamp  *time.Time
}

// PeriodServicer defines the budget-week lifecycle.
type PeriodServicer interface {
	CreateNewPeriod(ctx context.Context, weeklyBudget decimal.Decimal) (*models.Period, error)
	UpdateBudget(ctx context.Context, amount decimal.Decimal) error
	CheckAndRollover(ctx context.Context) (bool, error)
	ToggleDay(ctx context.Context, dayKey string) error
}

// ExpenseServicer defines expense and income logging for the current period.
type ExpenseServicer interface {
	AddExpense(ctx context.Context, in ExpenseInput) (*models.Expense, error)
	RemoveExpense(ctx context.Context, id string) error
	AddIncome(ctx context.Context, in IncomeInput) (*models.IncomeEntry, error)
	RemoveIncome(ctx context.Context, id string) error
}

// RecurringServicer manages recurring income and expense items.
type RecurringServicer interface {
	SaveRecurringItem(ctx context.Context, item models.RecurringItem) (*models.RecurringItem, error)
	DeleteRecurringItem(ctx context.Context, id string) error
}

// SyncServicer reconciles local state with the remote store.
type SyncServicer interface {
	Bootstrap(ctx context.Context) error
	Sync(ctx context.Context) error
	SignOut(ctx context.Context) error
}

// SMSServicer manages a user's reminder settings and ad hoc messages.
type SMSServicer interface {
	Subscribe(ctx context.Context, userID, phone string, enabled *bool) (*models.UserProfile, error)
	GetSettings(ctx context.Context, userID string) (*models.UserProfile, error)
	SendMessage(ctx context.Context, userID, to, message string) (string, error)
}

// ReminderServicer runs the daily reminder job.
type ReminderServicer interface {
	Run(ctx context.Context) (*reminder.RunResult, error)
}
