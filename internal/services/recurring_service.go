package services

import (
	"context"
	"fmt"
	"slices"

	apperrors "saveit/internal/errors"
	"saveit/internal/models"
	"saveit/internal/money"
	"saveit/internal/uuid"
)

type recurringService struct {
	*deps
}

// SaveRecurringItem creates or updates a recurring income or expense item.
func (s *recurringService) SaveRecurringItem(ctx context.Context, item models.RecurringItem) (*models.RecurringItem, error) {
	if item.ItemType != models.RecurringIncome && item.ItemType != models.RecurringExpense {
		return nil, apperrors.WithMessage(apperrors.ErrValidation, "Item type must be income or expense")
	}
	item.CategoryName = sanitizeText(item.CategoryName)
	if item.CategoryName == "" {
		return nil, apperrors.WithMessage(apperrors.ErrValidation, "Category name is required")
	}
	if item.AmountCents < money.ToCents(money.MinDollars) {
		return nil, apperrors.WithMessage(apperrors.ErrValidation, "Amount must be at least $0.01")
	}
	if item.Frequency == "" {
		item.Frequency = "weekly"
	}

	if userID, ok := s.remoteUser(); ok {
		item.UserID = userID
		var saved *models.RecurringItem
		err := s.remoteCall(ctx, func(ctx context.Context) error {
			row, err := s.store.SaveRecurringItem(ctx, &item)
			saved = row
			return err
		})
		if err != nil {
			s.ws.markPending()
			return nil, fmt.Errorf("failed to save recurring item: %w", err)
		}
		if saved != nil {
			item = *saved
		}
	} else if item.ID == "" {
		item.ID = uuid.New()
	}

	s.ws.update(func(b *BudgetState) {
		idx := slices.IndexFunc(b.RecurringItems, func(r models.RecurringItem) bool { return r.ID == item.ID })
		if idx >= 0 {
			b.RecurringItems[idx] = item
			return
		}
		b.RecurringItems = append(b.RecurringItems, item)
	})
	return &item, nil
}

// DeleteRecurringItem removes a recurring item. Expenses already flagged
// with its category keep their category.
func (s *recurringService) DeleteRecurringItem(ctx context.Context, id string) error {
	if id == "" {
		return apperrors.WithMessage(apperrors.ErrValidation, "Item id is required")
	}
	if userID, ok := s.remoteUser(); ok {
		err := s.remoteCall(ctx, func(ctx context.Context) error {
			return s.store.DeleteRecurringItem(ctx, userID, id)
		})
		if err != nil {
			s.ws.markPending()
			return fmt.Errorf("failed to delete recurring item: %w", err)
		}
	}
	s.ws.update(func(b *BudgetState) {
		b.RecurringItems = slices.DeleteFunc(b.RecurringItems, func(r models.RecurringItem) bool { return r.ID == id })
	})
	return nil
}
