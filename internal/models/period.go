package models

import "time"

// Period is one Monday-to-Sunday budget week. Archived periods are Closed and
// carry their final TotalSpentCents and Success.
type Period struct {
	Base
	UserID          string    `gorm:"type:uuid;index" json:"user_id,omitempty"`
	StartDate       time.Time `gorm:"not null;index" json:"start_date"`
	EndDate         time.Time `gorm:"not null" json:"end_date"`
	BudgetCents     int64     `gorm:"not null" json:"budget_cents"`
	Closed          bool      `gorm:"not null;default:false;index" json:"closed"`
	DaysMarkedDone  DayKeys   `json:"days_marked_done"`
	TotalSpentCents *int64    `json:"total_spent_cents,omitempty"`
	Success         *bool     `json:"success,omitempty"`

	// Local only, derived when the period is archived.
	TotalIncomeCents *int64 `gorm:"-" json:"total_income_cents,omitempty"`

	// Relationships
	Expenses      []Expense     `gorm:"foreignKey:PeriodID;constraint:OnDelete:CASCADE" json:"expenses,omitempty"`
	IncomeEntries []IncomeEntry `gorm:"foreignKey:PeriodID;constraint:OnDelete:CASCADE" json:"income_entries,omitempty"`
}

// HistoricalPeriod is a closed Period as kept in history, newest first.
type HistoricalPeriod = Period

// Clone returns a deep copy so state snapshots never share slices.
func (p *Period) Clone() *Period {
	if p == nil {
		return nil
	}
	c := *p
	c.DaysMarkedDone = p.DaysMarkedDone.Clone()
	if p.Expenses != nil {
		c.Expenses = append([]Expense(nil), p.Expenses...)
	}
	if p.IncomeEntries != nil {
		c.IncomeEntries = append([]IncomeEntry(nil), p.IncomeEntries...)
	}
	if p.TotalSpentCents != nil {
		v := *p.TotalSpentCents
		c.TotalSpentCents = &v
	}
	if p.Success != nil {
		v := *p.Success
		c.Success = &v
	}
	if p.TotalIncomeCents != nil {
		v := *p.TotalIncomeCents
		c.TotalIncomeCents = &v
	}
	return &c
}
