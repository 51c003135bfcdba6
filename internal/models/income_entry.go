package models

import "time"

// IncomeEntry is money received during a period.
type IncomeEntry struct {
	Base
	PeriodID    string    `gorm:"type:uuid;not null;index" json:"period_id"`
	UserID      string    `gorm:"type:uuid;index" json:"user_id,omitempty"`
	AmountCents int64     `gorm:"not null" json:"amount_cents"`
	IncomeType  string    `gorm:"not null" json:"income_type"`
	Note        string    `json:"note"`
	Timestamp   time.Time `gorm:"not null" json:"timestamp"`
}

// IncomeTypes are the income sources offered when logging income.
var IncomeTypes = []string{"Salary", "Freelance", "Side Hustle", "Gift", "Refund", "Other"}
