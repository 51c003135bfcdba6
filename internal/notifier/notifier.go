// Package notifier delivers SMS messages.
package notifier

import (
	"context"
	"regexp"
	"strings"
)

// Notifier sends a text message and returns the provider's delivery id.
type Notifier interface {
	Send(ctx context.Context, to, body string) (string, error)
}

type userIDKey struct{}

// WithUserID tags ctx with the user a message is sent for.
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDKey{}, userID)
}

// UserIDFrom returns the user tagged by WithUserID, or "".
func UserIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(userIDKey{}).(string)
	return id
}

var (
	e164Pattern     = regexp.MustCompile(`^\+?[1-9]\d{1,14}$`)
	phoneSeparators = strings.NewReplacer(" ", "", "-", "", "(", "", ")", "")
)

// NormalizePhone strips spaces, dashes and parentheses.
func NormalizePhone(phone string) string {
	return phoneSeparators.Replace(strings.TrimSpace(phone))
}

// IsValidPhone reports whether phone is an E.164 number once normalized.
func IsValidPhone(phone string) bool {
	return e164Pattern.MatchString(NormalizePhone(phone))
}

// FormatPhone normalizes phone and ensures the leading +.
func FormatPhone(phone string) string {
	p := NormalizePhone(phone)
	if strings.HasPrefix(p, "+") {
		return p
	}
	return "+" + p
}
