package service

import (
	"errors"
	"strings"

	"github.com/recipe-comments-api/internal/authz"
	"github.com/recipe-comments-api/internal/validation"
)

var (
	ErrValidation    = errors.New("validation failed")
	ErrUnauthorized  = authz.ErrUnauthorized
	ErrForbidden     = authz.ErrForbidden
	ErrNotFound      = errors.New("not found")
	ErrInvalidParent = errors.New("invalid parent comment")
	ErrInvalidState  = errors.New("invalid comment state")
)

// ValidationErrors collects every problem found with a request. It matches
// ErrValidation under errors.Is.
type ValidationErrors struct {
	Errors []validation.ValidationError
}

func (e *ValidationErrors) Error() string {
	return ErrValidation.Error() + ": " + strings.Join(e.Messages(), "; ")
}

func (e *ValidationErrors) Is(target error) bool {
	return target == ErrValidation
}

// Messages returns the human readable message of each error
func (e *ValidationErrors) Messages() []string {
	messages := make([]string, len(e.Errors))
	for i, ve := range e.Errors {
		messages[i] = ve.Message
	}
	return messages
}

func newValidationErrors(errs ...validation.ValidationError) error {
	return &ValidationErrors{Errors: errs}
}

// IsClientError reports whether err is one of the expected rejections rather
// than a store failure
func IsClientError(err error) bool {
	return errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrUnauthorized) ||
		errors.Is(err, ErrForbidden) ||
		errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrInvalidParent) ||
		errors.Is(err, ErrInvalidState)
}
