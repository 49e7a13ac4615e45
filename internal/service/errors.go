package service

import (
	"errors"
	"sort"
	"strings"

	"github.com/vedran77/accounts/pkg/validator"
)

var (
	ErrValidation         = errors.New("validation failed")
	ErrPasswordMismatch   = errors.New("passwords do not match")
	ErrUsernameTaken      = errors.New("username already taken")
	ErrEmailTaken         = errors.New("email already taken")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserNotFound       = errors.New("user not found")
	ErrTokenInvalid       = errors.New("verification token invalid")
	ErrTokenExpired       = errors.New("verification token expired")
	ErrAlreadyVerified    = errors.New("email already verified")
)

// ValidationError reports form input that was rejected, field by field.
// It matches ErrValidation and, when set, the more specific Err.
type ValidationError struct {
	Fields validator.ValidationErrors
	Err    error
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return ErrValidation.Error() + ": " + strings.Join(parts, "; ")
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

func newValidationError(fields validator.ValidationErrors, cause error) *ValidationError {
	return &ValidationError{Fields: fields, Err: cause}
}
