package metrics

import (
	"time"

	"saveit/internal/models"
)

// Snapshot is the state the summary is derived from.
type Snapshot struct {
	CurrentPeriod   *models.Period
	History         []models.HistoricalPeriod
	LastBudgetCents *int64
	LongestStreak   int
	RecurringItems  []models.RecurringItem
}

// Summary is the full set of derived figures for one moment.
type Summary struct {
	HasPeriod          bool             `json:"has_period"`
	BudgetCents        int64            `json:"budget_cents"`
	TotalSpentCents    int64            `json:"total_spent_cents"`
	RemainingCents     int64            `json:"remaining_cents"`
	Zone               Zone             `json:"zone"`
	DaysLeft           int              `json:"days_left"`
	IsOverdue          bool             `json:"is_overdue"`
	IsProRatedWeek     bool             `json:"is_pro_rated_week"`
	CurrentStreak      int              `json:"current_streak"`
	LongestStreak      int              `json:"longest_streak"`
	SuccessRate        int              `json:"success_rate"`
	TotalIncomeCents   int64            `json:"total_income_cents"`
	NetSavingsCents    int64            `json:"net_savings_cents"`
	SavingsRate        int              `json:"savings_rate"`
	CumulativeSavings  int64            `json:"cumulative_savings_cents"`
	AvgSpendingPerWeek int64            `json:"avg_spending_per_week_cents"`
	Categories         []CategoryBudget `json:"categories"`
	WeekDays           []DayInfo        `json:"week_days"`
	NextMilestone      *Milestone       `json:"next_milestone,omitempty"`
}

// Summarize derives every figure for s at now.
func Summarize(s Snapshot, now time.Time) Summary {
	p := s.CurrentPeriod
	out := Summary{
		HasPeriod:          p != nil,
		TotalSpentCents:    TotalSpent(p),
		RemainingCents:     Remaining(p),
		Zone:               ZoneFor(p),
		DaysLeft:           DaysLeft(p, now),
		IsOverdue:          IsOverdue(p, now),
		IsProRatedWeek:     IsProRatedWeek(p, s.LastBudgetCents),
		CurrentStreak:      CurrentStreak(s.History),
		LongestStreak:      s.LongestStreak,
		SuccessRate:        SuccessRate(s.History),
		TotalIncomeCents:   TotalIncome(p),
		NetSavingsCents:    NetSavings(p),
		SavingsRate:        SavingsRate(p),
		CumulativeSavings:  CumulativeSavings(p, s.History),
		AvgSpendingPerWeek: AvgSpendingPerWeek(s.History),
		Categories:         CategoryBreakdown(p, s.RecurringItems),
		WeekDays:           WeekDays(p, now),
		NextMilestone:      NextMilestone(s.LongestStreak),
	}
	if p != nil {
		out.BudgetCents = p.BudgetCents
	}
	return out
}
