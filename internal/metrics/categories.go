package metrics

import "saveit/internal/models"

// DiscretionaryCategory names the bucket for everyday, non-recurring spend.
const DiscretionaryCategory = "Discretionary"

// CategoryBudget is one row of the per-category breakdown.
type CategoryBudget struct {
	CategoryName    string `json:"category_name"`
	BudgetCents     int64  `json:"budget_cents"`
	SpentCents      int64  `json:"spent_cents"`
	RemainingCents  int64  `json:"remaining_cents"`
	IsDiscretionary bool   `json:"is_discretionary"`
}

// CategoryBreakdown returns the discretionary bucket followed by one bucket
// per active recurring expense item. Recurring expenses are attributed to an
// item by exact category name, so renaming an item orphans its history.
func CategoryBreakdown(p *models.Period, items []models.RecurringItem) []CategoryBudget {
	if p == nil {
		return []CategoryBudget{}
	}

	var discretionary int64
	for _, e := range p.Expenses {
		if !e.IsRecurring {
			discretionary += e.AmountCents
		}
	}
	out := []CategoryBudget{{
		CategoryName:    DiscretionaryCategory,
		BudgetCents:     p.BudgetCents,
		SpentCents:      discretionary,
		RemainingCents:  p.BudgetCents - discretionary,
		IsDiscretionary: true,
	}}

	for _, item := range activeExpenseItems(items) {
		var spent int64
		for _, e := range p.Expenses {
			if e.IsRecurring && e.Category != nil && *e.Category == item.CategoryName {
				spent += e.AmountCents
			}
		}
		out = append(out, CategoryBudget{
			CategoryName:   item.CategoryName,
			BudgetCents:    item.AmountCents,
			SpentCents:     spent,
			RemainingCents: item.AmountCents - spent,
		})
	}
	return out
}

// TotalCategoryBudget is the discretionary budget plus every active
// recurring expense.
func TotalCategoryBudget(p *models.Period, items []models.RecurringItem) int64 {
	if p == nil {
		return 0
	}
	total := p.BudgetCents
	for _, item := range activeExpenseItems(items) {
		total += item.AmountCents
	}
	return total
}

func activeExpenseItems(items []models.RecurringItem) []models.RecurringItem {
	var out []models.RecurringItem
	for _, item := range items {
		if item.ItemType == models.RecurringExpense && item.IsActive {
			out = append(out, item)
		}
	}
	return out
}
