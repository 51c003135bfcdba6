package remote

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	apperrors "saveit/internal/errors"
	"saveit/internal/models"
	"saveit/internal/pagination"
)

// GormStore implements Store and ProfileStore on a gorm connection
// (postgres in production, sqlite in tests).
type GormStore struct {
	db *gorm.DB
}

// NewGormStore creates a GormStore.
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

var (
	_ Store        = (*GormStore)(nil)
	_ ProfileStore = (*GormStore)(nil)
)

// classify maps driver errors onto the engine's error taxonomy.
func classify(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, context.DeadlineExceeded):
		return apperrors.Wrap(apperrors.ErrNetworkTimeout, err)
	case errors.Is(err, gorm.ErrRecordNotFound):
		return apperrors.Wrap(apperrors.ErrNotFound, err)
	default:
		return apperrors.Wrap(apperrors.ErrRemoteOperation, err)
	}
}

// InsertPeriod creates the period row without its nested entries and
// returns the stored row.
func (s *GormStore) InsertPeriod(ctx context.Context, p *models.Period) (*models.Period, error) {
	row := p.Clone()
	row.Expenses, row.IncomeEntries = nil, nil
	if err := s.db.WithContext(ctx).Omit(clause.Associations).Create(row).Error; err != nil {
		return nil, classify(err)
	}
	return row, nil
}

// UpdatePeriod applies patch to the user's period. Updating a row that does
// not exist is not an error.
func (s *GormStore) UpdatePeriod(ctx context.Context, userID, id string, patch PeriodPatch) error {
	updates := map[string]any{}
	if patch.Closed != nil {
		updates["closed"] = *patch.Closed
	}
	if patch.BudgetCents != nil {
		updates["budget_cents"] = *patch.BudgetCents
	}
	if patch.TotalSpentCents != nil {
		updates["total_spent_cents"] = *patch.TotalSpentCents
	}
	if patch.Success != nil {
		updates["success"] = *patch.Success
	}
	if patch.DaysMarkedDone != nil {
		updates["days_marked_done"] = *patch.DaysMarkedDone
	}
	if len(updates) == 0 {
		return nil
	}

	err := s.db.WithContext(ctx).Model(&models.Period{}).
		Where("id = ? AND user_id = ?", id, userID).
		Updates(updates).Error
	return classify(err)
}

// SelectPeriods returns the user's periods, newest first.
func (s *GormStore) SelectPeriods(ctx context.Context, q PeriodQuery) ([]models.Period, error) {
	query := s.db.WithContext(ctx).Where("user_id = ?", q.UserID)
	if q.Closed != nil {
		query = query.Where("closed = ?", *q.Closed)
	}
	if q.WithEntries {
		query = query.
			Preload("Expenses", func(db *gorm.DB) *gorm.DB { return db.Order("timestamp DESC") }).
			Preload("IncomeEntries", func(db *gorm.DB) *gorm.DB { return db.Order("timestamp DESC") })
	}
	if q.Limit > 0 {
		query = query.Limit(q.Limit)
	}

	var periods []models.Period
	if err := query.Order("start_date DESC").Find(&periods).Error; err != nil {
		return nil, classify(err)
	}
	return periods, nil
}

// InsertExpense stores e and returns the stored row.
func (s *GormStore) InsertExpense(ctx context.Context, e *models.Expense) (*models.Expense, error) {
	row := *e
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return nil, classify(err)
	}
	return &row, nil
}

// DeleteExpense removes the user's expense.
func (s *GormStore) DeleteExpense(ctx context.Context, userID, id string) error {
	err := s.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).Delete(&models.Expense{}).Error
	return classify(err)
}

// InsertIncome stores in and returns the stored row.
func (s *GormStore) InsertIncome(ctx context.Context, in *models.IncomeEntry) (*models.IncomeEntry, error) {
	row := *in
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return nil, classify(err)
	}
	return &row, nil
}

// DeleteIncome removes the user's income entry.
func (s *GormStore) DeleteIncome(ctx context.Context, userID, id string) error {
	err := s.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).Delete(&models.IncomeEntry{}).Error
	return classify(err)
}

// SelectRecurringItems returns the user's recurring items by category name.
func (s *GormStore) SelectRecurringItems(ctx context.Context, userID string) ([]models.RecurringItem, error) {
	var items []models.RecurringItem
	err := s.db.WithContext(ctx).Where("user_id = ?", userID).Order("category_name ASC").Find(&items).Error
	if err != nil {
		return nil, classify(err)
	}
	return items, nil
}

// SaveRecurringItem inserts or replaces item.
func (s *GormStore) SaveRecurringItem(ctx context.Context, item *models.RecurringItem) (*models.RecurringItem, error) {
	row := *item
	if err := s.db.WithContext(ctx).Save(&row).Error; err != nil {
		return nil, classify(err)
	}
	return &row, nil
}

// DeleteRecurringItem removes the user's recurring item.
func (s *GormStore) DeleteRecurringItem(ctx context.Context, userID, id string) error {
	err := s.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).Delete(&models.RecurringItem{}).Error
	return classify(err)
}

// GetProfile returns the user's reminder settings.
func (s *GormStore) GetProfile(ctx context.Context, userID string) (*models.UserProfile, error) {
	var p models.UserProfile
	if err := s.db.WithContext(ctx).Where("user_id = ?", userID).First(&p).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrProfileNotFound
		}
		return nil, classify(err)
	}
	return &p, nil
}

// UpsertProfile writes the user's reminder settings.
func (s *GormStore) UpsertProfile(ctx context.Context, p *models.UserProfile) (*models.UserProfile, error) {
	row := *p
	row.UpdatedAt = time.Now().UTC()
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"phone_number", "sms_reminders_enabled", "updated_at"}),
	}).Create(&row).Error
	if err != nil {
		return nil, classify(err)
	}
	return &row, nil
}

// ListReminderProfiles pages through users with reminders on and a phone number.
func (s *GormStore) ListReminderProfiles(ctx context.Context, page pagination.PageRequest) (*pagination.PageResponse[models.UserProfile], error) {
	page.Defaults()

	base := s.db.WithContext(ctx).Model(&models.UserProfile{}).
		Where("sms_reminders_enabled = ?", true).
		Where("phone_number IS NOT NULL AND phone_number <> ''")

	var totalItems int64
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, classify(err)
	}

	var profiles []models.UserProfile
	if err := base.Scopes(pagination.Paginate(page)).Order("user_id ASC").Find(&profiles).Error; err != nil {
		return nil, classify(err)
	}

	resp := pagination.NewPageResponse(profiles, page.Page, page.PageSize, totalItems)
	return &resp, nil
}

// LatestOpenPeriod returns the user's newest open period, or nil when none exists.
func (s *GormStore) LatestOpenPeriod(ctx context.Context, userID string) (*models.Period, error) {
	var p models.Period
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND closed = ?", userID, false).
		Order("start_date DESC").
		First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, classify(err)
	}
	return &p, nil
}
