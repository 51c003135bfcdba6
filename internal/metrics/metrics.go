// Package metrics derives budget figures, streaks and savings from periods.
// Every function is pure and treats a nil period or empty history as zero.
package metrics

import (
	"sort"
	"time"

	"saveit/internal/models"
	"saveit/internal/money"
	"saveit/internal/week"
)

// Zone classifies how much of the budget is left.
type Zone string

const (
	ZoneNone    Zone = ""
	ZoneNormal  Zone = "normal"
	ZoneWarning Zone = "warning"
	ZoneDanger  Zone = "danger"
)

// TotalSpent sums the expenses nested in p.
func TotalSpent(p *models.Period) int64 {
	if p == nil {
		return 0
	}
	var sum int64
	for _, e := range p.Expenses {
		sum += e.AmountCents
	}
	return sum
}

// Remaining is the budget minus what has been spent. It may be negative.
func Remaining(p *models.Period) int64 {
	if p == nil {
		return 0
	}
	return p.BudgetCents - TotalSpent(p)
}

// ZoneFor returns danger when nothing is left, warning at or below 40% of
// the budget, and normal otherwise.
func ZoneFor(p *models.Period) Zone {
	if p == nil {
		return ZoneNone
	}
	remaining := Remaining(p)
	switch {
	case remaining <= 0:
		return ZoneDanger
	case remaining*10 <= p.BudgetCents*4:
		return ZoneWarning
	default:
		return ZoneNormal
	}
}

// DaysLeft is ceil((end - now) / 24h); negative once the period is over.
func DaysLeft(p *models.Period, now time.Time) int {
	if p == nil {
		return 0
	}
	return week.DaysRemaining(now, p.EndDate)
}

// IsOverdue reports whether the period ended more than a day ago.
func IsOverdue(p *models.Period, now time.Time) bool {
	return DaysLeft(p, now) < 0
}

// SortedExpenses returns a copy of p's expenses, newest first.
func SortedExpenses(p *models.Period) []models.Expense {
	if p == nil || len(p.Expenses) == 0 {
		return []models.Expense{}
	}
	out := append([]models.Expense(nil), p.Expenses...)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp.After(out[j].Timestamp)
	})
	return out
}

// IsProRatedWeek reports whether the current budget is below the user's
// full weekly budget.
func IsProRatedWeek(p *models.Period, lastBudgetCents *int64) bool {
	if p == nil || lastBudgetCents == nil || *lastBudgetCents == 0 {
		return false
	}
	return p.BudgetCents < *lastBudgetCents
}

// HistoricalSpent is the archived total, falling back to the sum of nested
// expenses and then to zero.
func HistoricalSpent(h *models.HistoricalPeriod) int64 {
	if h == nil {
		return 0
	}
	if h.TotalSpentCents != nil {
		return *h.TotalSpentCents
	}
	return TotalSpent(h)
}

// ResolveSuccess returns the stored success flag, or whether the stored
// total stayed within budget. A missing total counts as zero; nested
// expenses are not consulted.
func ResolveSuccess(h *models.HistoricalPeriod) bool {
	if h == nil {
		return false
	}
	if h.Success != nil {
		return *h.Success
	}
	var spent int64
	if h.TotalSpentCents != nil {
		spent = *h.TotalSpentCents
	}
	return spent <= h.BudgetCents
}

// CurrentStreak counts successful weeks from the newest history entry until
// the first failure.
func CurrentStreak(history []models.HistoricalPeriod) int {
	streak := 0
	for i := range history {
		if !ResolveSuccess(&history[i]) {
			break
		}
		streak++
	}
	return streak
}

// LongestStreak is the longest run of consecutive successes, scanning the
// newest-first history from oldest to newest.
func LongestStreak(history []models.HistoricalPeriod) int {
	longest, run := 0, 0
	for i := len(history) - 1; i >= 0; i-- {
		if ResolveSuccess(&history[i]) {
			run++
			if run > longest {
				longest = run
			}
		} else {
			run = 0
		}
	}
	return longest
}

// SuccessRate is the rounded percentage of successful weeks.
func SuccessRate(history []models.HistoricalPeriod) int {
	if len(history) == 0 {
		return 0
	}
	successes := 0
	for i := range history {
		if ResolveSuccess(&history[i]) {
			successes++
		}
	}
	return int(money.RoundRatio(int64(successes), 100, int64(len(history))))
}

// TotalHistoricalSpending sums archived totals; missing totals count as zero.
func TotalHistoricalSpending(history []models.HistoricalPeriod) int64 {
	var sum int64
	for i := range history {
		if history[i].TotalSpentCents != nil {
			sum += *history[i].TotalSpentCents
		}
	}
	return sum
}

// TotalHistoricalSavings sums budget minus archived spend over history.
func TotalHistoricalSavings(history []models.HistoricalPeriod) int64 {
	var sum int64
	for i := range history {
		sum += history[i].BudgetCents
		if history[i].TotalSpentCents != nil {
			sum -= *history[i].TotalSpentCents
		}
	}
	return sum
}

// AvgSpendingPerWeek is the rounded mean weekly spend over history.
func AvgSpendingPerWeek(history []models.HistoricalPeriod) int64 {
	if len(history) == 0 {
		return 0
	}
	return money.RoundRatio(TotalHistoricalSpending(history), 1, int64(len(history)))
}

// TotalIncome sums the income entries nested in p.
func TotalIncome(p *models.Period) int64 {
	if p == nil {
		return 0
	}
	var sum int64
	for _, in := range p.IncomeEntries {
		sum += in.AmountCents
	}
	return sum
}

// IncomeByType groups p's income by income_type.
func IncomeByType(p *models.Period) map[string]int64 {
	out := map[string]int64{}
	if p == nil {
		return out
	}
	for _, in := range p.IncomeEntries {
		out[in.IncomeType] += in.AmountCents
	}
	return out
}

// NetSavings is income minus spending for the current period.
func NetSavings(p *models.Period) int64 {
	return TotalIncome(p) - TotalSpent(p)
}

// SavingsRate is the rounded share of income saved, 0 when there is no income.
func SavingsRate(p *models.Period) int {
	income := TotalIncome(p)
	if income == 0 {
		return 0
	}
	return int(money.RoundRatio(NetSavings(p), 100, income))
}

// CumulativeSavings adds the current net savings to every archived
// period's income minus spend.
func CumulativeSavings(p *models.Period, history []models.HistoricalPeriod) int64 {
	total := NetSavings(p)
	for i := range history {
		if history[i].TotalIncomeCents != nil {
			total += *history[i].TotalIncomeCents
		}
		if history[i].TotalSpentCents != nil {
			total -= *history[i].TotalSpentCents
		}
	}
	return total
}

// HasLoggedOn reports whether dayKey is in p's logged days.
func HasLoggedOn(p *models.Period, dayKey string) bool {
	if p == nil {
		return false
	}
	return p.DaysMarkedDone.Has(dayKey)
}

// HasExpensesOn reports whether any expense in p falls on dayKey in loc.
func HasExpensesOn(p *models.Period, dayKey string, loc *time.Location) bool {
	if p == nil {
		return false
	}
	for _, e := range p.Expenses {
		if week.DayKey(e.Timestamp.In(loc)) == dayKey {
			return true
		}
	}
	return false
}
