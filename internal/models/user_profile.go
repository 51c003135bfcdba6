package models

import "time"

// UserProfile holds per-user reminder settings.
type UserProfile struct {
	UserID              string    `gorm:"type:uuid;primaryKey" json:"user_id"`
	PhoneNumber         *string   `json:"phone_number"`
	SMSRemindersEnabled bool      `gorm:"column:sms_reminders_enabled;not null;default:false" json:"sms_reminders_enabled"`
	UpdatedAt           time.Time `json:"updated_at"`
}
