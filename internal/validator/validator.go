// Package validator registers custom validation tags with Gin's binding engine.
package validator

import (
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"saveit/internal/notifier"
)

// Register registers all custom validators with the Gin binding engine.
func Register() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		_ = v.RegisterValidation("phone", validatePhone)
	}
}

// validatePhone accepts E.164 numbers, ignoring spaces, dashes and parentheses.
func validatePhone(fl validator.FieldLevel) bool {
	return notifier.IsValidPhone(fl.Field().String())
}
