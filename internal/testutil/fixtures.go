package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"saveit/internal/models"
	"saveit/internal/uuid"
	"saveit/internal/week"

	"gorm.io/gorm"
)

// counter provides unique values across fixtures within a test run.
var counter atomic.Int64

func nextID() int64 {
	return counter.Add(1)
}

// NewUserID returns a fresh user id. Users live in the auth provider, so
// there is no row to create.
func NewUserID() string {
	return uuid.New()
}

// CreateTestPeriod creates an open period for the week containing ref.
func CreateTestPeriod(t *testing.T, db *gorm.DB, userID string, ref time.Time, budgetCents int64) *models.Period {
	t.Helper()

	start, end := week.Bounds(ref)
	p := &models.Period{
		UserID:         userID,
		StartDate:      start,
		EndDate:        end,
		BudgetCents:    budgetCents,
		DaysMarkedDone: models.DayKeys{},
	}
	if err := db.Create(p).Error; err != nil {
		t.Fatalf("failed to create test period: %v", err)
	}
	return p
}

// CreateTestClosedPeriod creates an archived period with its final totals.
func CreateTestClosedPeriod(t *testing.T, db *gorm.DB, userID string, ref time.Time, budgetCents, spentCents int64) *models.Period {
	t.Helper()

	start, end := week.Bounds(ref)
	success := spentCents <= budgetCents
	p := &models.Period{
		UserID:          userID,
		StartDate:       start,
		EndDate:         end,
		BudgetCents:     budgetCents,
		Closed:          true,
		DaysMarkedDone:  models.DayKeys{},
		TotalSpentCents: &spentCents,
		Success:         &success,
	}
	if err := db.Create(p).Error; err != nil {
		t.Fatalf("failed to create test closed period: %v", err)
	}
	return p
}

// CreateTestExpense creates an expense in the given period.
func CreateTestExpense(t *testing.T, db *gorm.DB, period *models.Period, amountCents int64) *models.Expense {
	t.Helper()

	e := &models.Expense{
		PeriodID:    period.ID,
		UserID:      period.UserID,
		AmountCents: amountCents,
		Note:        fmt.Sprintf("Test expense %d", nextID()),
		Timestamp:   period.StartDate.Add(12 * time.Hour),
	}
	if err := db.Create(e).Error; err != nil {
		t.Fatalf("failed to create test expense: %v", err)
	}
	return e
}

// CreateTestProfile creates reminder settings for a user.
func CreateTestProfile(t *testing.T, db *gorm.DB, userID, phone string, enabled bool) *models.UserProfile {
	t.Helper()

	p := &models.UserProfile{
		UserID:              userID,
		SMSRemindersEnabled: enabled,
		UpdatedAt:           time.Now(),
	}
	if phone != "" {
		p.PhoneNumber = &phone
	}
	if err := db.Create(p).Error; err != nil {
		t.Fatalf("failed to create test profile: %v", err)
	}
	return p
}

// CreateTestRecurringItem creates an active recurring expense.
func CreateTestRecurringItem(t *testing.T, db *gorm.DB, userID, category string, amountCents int64) *models.RecurringItem {
	t.Helper()

	item := &models.RecurringItem{
		UserID:       userID,
		ItemType:     models.RecurringExpense,
		CategoryName: category,
		AmountCents:  amountCents,
		Frequency:    "weekly",
		IsActive:     true,
	}
	if err := db.Create(item).Error; err != nil {
		t.Fatalf("failed to create test recurring item: %v", err)
	}
	return item
}
