package models

import "time"

// Expense is a single spend recorded against a period.
type Expense struct {
	Base
	PeriodID    string    `gorm:"type:uuid;not null;index" json:"period_id"`
	UserID      string    `gorm:"type:uuid;index" json:"user_id,omitempty"`
	AmountCents int64     `gorm:"not null" json:"amount_cents"`
	Note        string    `gorm:"not null" json:"note"`
	Timestamp   time.Time `gorm:"not null" json:"timestamp"`
	Category    *string   `json:"category,omitempty"`
	IsRecurring bool      `gorm:"not null;default:false" json:"is_recurring"`
}

// ExpenseCategories are the categories offered when logging an expense.
var ExpenseCategories = []string{
	"Groceries",
	"Dining Out",
	"Transportation",
	"Entertainment",
	"Shopping",
	"Healthcare",
	"Personal Care",
	"Coffee/Drinks",
	"Subscriptions",
	"Other",
}
