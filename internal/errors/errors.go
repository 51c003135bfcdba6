// Package errors provides custom error types for saveit.
// Engine and API errors use AppError so callers can branch on a stable code
// and HTTP responses never leak internal details to clients.
package errors

import (
	stderrors "errors"
	"net"
	"net/http"
	"strings"
)

// AppError represents a structured application error with an error code,
// human-readable message, HTTP status code, and optional internal error.
type AppError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	StatusCode int    `json:"-"`
	Internal   error  `json:"-"`
}

// Error implements the error interface.
func (e *AppError) Error() string { return e.Message }

// Unwrap returns the internal error for use with errors.Is/As.
func (e *AppError) Unwrap() error { return e.Internal }

// Is matches any AppError carrying the same code, so wrapped copies of a
// sentinel still satisfy errors.Is(err, ErrX).
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	return ok && t.Code == e.Code
}

// Wrap creates a new AppError with the same code/message/status but wraps an internal error.
func Wrap(sentinel *AppError, internal error) *AppError {
	return &AppError{
		Code:       sentinel.Code,
		Message:    sentinel.Message,
		StatusCode: sentinel.StatusCode,
		Internal:   internal,
	}
}

// WithMessage creates a new AppError with a custom message.
func WithMessage(sentinel *AppError, message string) *AppError {
	return &AppError{
		Code:       sentinel.Code,
		Message:    message,
		StatusCode: sentinel.StatusCode,
		Internal:   sentinel.Internal,
	}
}

// Code returns the AppError code in err's chain, or "" when there is none.
func Code(err error) string {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Code
	}
	return ""
}

// Authentication & authorization errors.
var (
	ErrUnauthorized   = &AppError{Code: "UNAUTHORIZED", Message: "Authentication required", StatusCode: http.StatusUnauthorized}
	ErrForbidden      = &AppError{Code: "FORBIDDEN", Message: "Access denied", StatusCode: http.StatusForbidden}
	ErrSessionInvalid = &AppError{Code: "SESSION_INVALID", Message: "No valid session. Please sign in again.", StatusCode: http.StatusUnauthorized}
	ErrSessionTimeout = &AppError{Code: "SESSION_TIMEOUT", Message: "Session check timed out", StatusCode: http.StatusGatewayTimeout}
	ErrAuthentication = &AppError{Code: "AUTHENTICATION_FAILED", Message: "Authentication failed. Please sign in again.", StatusCode: http.StatusUnauthorized}
)

// General errors.
var (
	ErrInvalidInput   = &AppError{Code: "INVALID_INPUT", Message: "Invalid input", StatusCode: http.StatusBadRequest}
	ErrValidation     = &AppError{Code: "VALIDATION_ERROR", Message: "Validation failed", StatusCode: http.StatusBadRequest}
	ErrNotFound       = &AppError{Code: "NOT_FOUND", Message: "Resource not found", StatusCode: http.StatusNotFound}
	ErrInternalServer = &AppError{Code: "INTERNAL_ERROR", Message: "An internal error occurred", StatusCode: http.StatusInternalServerError}
)

// Period errors.
var (
	ErrNoActivePeriod = &AppError{Code: "NO_ACTIVE_PERIOD", Message: "No active budget period", StatusCode: http.StatusConflict}
	ErrPeriodClosed   = &AppError{Code: "PERIOD_CLOSED", Message: "Budget period is closed", StatusCode: http.StatusConflict}
	ErrDayOutOfPeriod = &AppError{Code: "DAY_OUT_OF_PERIOD", Message: "Day is outside the current period", StatusCode: http.StatusBadRequest}
)

// Remote store errors.
var (
	ErrNetworkTimeout  = &AppError{Code: "NETWORK_TIMEOUT", Message: "Request timed out", StatusCode: http.StatusGatewayTimeout}
	ErrRemoteOperation = &AppError{Code: "REMOTE_OPERATION_FAILED", Message: "Remote operation failed", StatusCode: http.StatusBadGateway}
)

// Reminder errors.
var (
	ErrProfileNotFound = &AppError{Code: "PROFILE_NOT_FOUND", Message: "Profile not found", StatusCode: http.StatusNotFound}
	ErrInvalidPhone    = &AppError{Code: "INVALID_PHONE", Message: "Invalid phone number format. Please use E.164 format (e.g., +12345678900)", StatusCode: http.StatusBadRequest}
	ErrSMSDelivery     = &AppError{Code: "SMS_DELIVERY_FAILED", Message: "Failed to send SMS", StatusCode: http.StatusBadGateway}
)

// authMarkers are substrings the hosted backend uses in auth failure messages.
// Matching is case-sensitive.
var authMarkers = []string{"JWT", "expired", "invalid", "401", "unauthorized", "PGRST301"}

// IsAuthError reports whether err means the session is unusable and the
// user has to sign in again. Errors carrying any other code are not auth
// errors; only uncoded errors are checked against authMarkers, and only
// their top-level message.
func IsAuthError(err error) bool {
	if err == nil {
		return false
	}
	switch Code(err) {
	case ErrAuthentication.Code, ErrSessionInvalid.Code, ErrUnauthorized.Code:
		return true
	case "":
	default:
		return false
	}
	msg := err.Error()
	for _, m := range authMarkers {
		if strings.Contains(msg, m) {
			return true
		}
	}
	return false
}

// IsNetworkError reports whether err is a transient transport failure worth
// one retry.
func IsNetworkError(err error) bool {
	if err == nil {
		return false
	}
	switch Code(err) {
	case ErrNetworkTimeout.Code, ErrSessionTimeout.Code:
		return true
	}
	var netErr net.Error
	if stderrors.As(err, &netErr) {
		return true
	}
	msg := strings.ToLower(chainText(err))
	return strings.Contains(msg, "timed out") ||
		strings.Contains(msg, "network") ||
		strings.Contains(msg, "deadline exceeded")
}

// chainText joins the messages along err's unwrap chain. AppError.Error only
// returns the public message, so internal causes are otherwise invisible.
func chainText(err error) string {
	var b strings.Builder
	for e := err; e != nil; e = stderrors.Unwrap(e) {
		b.WriteString(e.Error())
		b.WriteByte(' ')
	}
	return b.String()
}
