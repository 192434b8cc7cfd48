// Package validator adapts go-playground/validator to echo's Validator
// interface so handlers can call c.Validate on bound input structs.
package validator

import (
	"errors"
	"strings"

	domainerrors "gatekeeper/internal/domain/errors"

	playground "github.com/go-playground/validator/v10"
)

// RequestValidator validates bound request structs against their
// `validate` tags.
type RequestValidator struct {
	validate *playground.Validate
}

// New creates a RequestValidator with struct-tag name resolution enabled.
func New() *RequestValidator {
	v := playground.New(playground.WithRequiredStructEnabled())

	return &RequestValidator{validate: v}
}

// Validate implements echo.Validator. Failures come back as the domain
// validation error with per-field details, never as a bare library error.
func (rv *RequestValidator) Validate(i any) error {
	err := rv.validate.Struct(i)
	if err == nil {
		return nil
	}

	var fieldErrs playground.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return domainerrors.ErrValidation.WithDetails(err.Error())
	}

	details := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		details = append(details, describeFieldError(fe))
	}

	return domainerrors.ErrValidation.WithDetails(strings.Join(details, "; "))
}

func describeFieldError(fe playground.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fe.Field() + " is required"
	case "email":
		return fe.Field() + " must be a valid email address"
	case "min":
		return fe.Field() + " must be at least " + fe.Param() + " characters"
	case "uuid":
		return fe.Field() + " must be a valid UUID"
	default:
		return fe.Field() + " failed on the '" + fe.Tag() + "' rule"
	}
}
