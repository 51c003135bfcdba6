package models

// RecurringItemType distinguishes recurring income from recurring expenses.
type RecurringItemType string

const (
	RecurringIncome  RecurringItemType = "income"
	RecurringExpense RecurringItemType = "expense"
)

// RecurringItem is a user-defined repeating income or expense. Active
// expense items produce their own category in the category breakdown.
type RecurringItem struct {
	Base
	UserID       string            `gorm:"type:uuid;not null;index" json:"user_id"`
	ItemType     RecurringItemType `gorm:"not null" json:"item_type"`
	CategoryName string            `gorm:"not null" json:"category_name"`
	AmountCents  int64             `gorm:"not null" json:"amount_cents"`
	Frequency    string            `gorm:"not null;default:weekly" json:"frequency"`
	IsActive     bool              `gorm:"not null;default:true" json:"is_active"`
}
