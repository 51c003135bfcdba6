package services

import (
	"context"
	"strings"

	apperrors "saveit/internal/errors"
	"saveit/internal/logger"
	"saveit/internal/models"
	"saveit/internal/notifier"
	"saveit/internal/remote"
)

const maxSMSLength = 1600

type smsService struct {
	profiles remote.ProfileStore
	notifier notifier.Notifier
}

// NewSMSService creates an SMSServicer.
func NewSMSService(profiles remote.ProfileStore, n notifier.Notifier) SMSServicer {
	return &smsService{profiles: profiles, notifier: n}
}

// Subscribe stores the user's phone number. Reminders are enabled unless
// enabled is explicitly false.
func (s *smsService) Subscribe(ctx context.Context, userID, phone string, enabled *bool) (*models.UserProfile, error) {
	if userID == "" {
		return nil, apperrors.ErrUnauthorized
	}
	if !notifier.IsValidPhone(phone) {
		return nil, apperrors.ErrInvalidPhone
	}

	formatted := notifier.FormatPhone(phone)
	on := true
	if enabled != nil {
		on = *enabled
	}

	profile, err := s.profiles.UpsertProfile(ctx, &models.UserProfile{
		UserID:              userID,
		PhoneNumber:         &formatted,
		SMSRemindersEnabled: on,
	})
	if err != nil {
		return nil, err
	}

	logger.Get().Infow("SMS reminders configured", "user_id", userID, "enabled", on)
	return profile, nil
}

func (s *smsService) GetSettings(ctx context.Context, userID string) (*models.UserProfile, error) {
	if userID == "" {
		return nil, apperrors.ErrUnauthorized
	}
	return s.profiles.GetProfile(ctx, userID)
}

// SendMessage texts to and returns the delivery id.
func (s *smsService) SendMessage(ctx context.Context, userID, to, message string) (string, error) {
	message = strings.TrimSpace(message)
	if to == "" || message == "" {
		return "", apperrors.WithMessage(apperrors.ErrValidation, "Phone number and message are required")
	}
	if len(message) > maxSMSLength {
		return "", apperrors.WithMessage(apperrors.ErrValidation, "Message is too long")
	}
	if !notifier.IsValidPhone(to) {
		return "", apperrors.ErrInvalidPhone
	}

	id, err := s.notifier.Send(notifier.WithUserID(ctx, userID), notifier.FormatPhone(to), message)
	if err != nil {
		return "", err
	}
	logger.Get().Infow("SMS sent", "user_id", userID, "message_id", id)
	return id, nil
}
