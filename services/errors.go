package services

import (
	"errors"
	"fmt"
	"strings"
)

// Workflow error taxonomy. Controllers map these onto HTTP status codes;
// nothing is retried, every failure is surfaced with its message.
var (
	ErrNotFound          = errors.New("record not found")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrDuplicateMeeting  = errors.New("a meeting has already been scheduled for this document request")
	ErrRequiresComments  = errors.New("comments are required when rejecting")
	ErrNotEditable       = errors.New("document slot is not editable in its current status")
	ErrInvalidSlot       = errors.New("unknown document slot type")
	ErrAlreadyConfirmed  = errors.New("participant has already confirmed attendance")
	ErrForbiddenRole     = errors.New("role is not permitted to perform this operation")
)

// ValidationError carries the list of missing or malformed fields so the
// caller can surface them verbatim.
type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	return "validation failed: " + strings.Join(e.Fields, ", ")
}

// NewValidationError builds a ValidationError from field messages.
func NewValidationError(fields ...string) error {
	return &ValidationError{Fields: fields}
}

// IsValidationError reports whether err is a ValidationError and returns it.
func IsValidationError(err error) (*ValidationError, bool) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}

func invalidTransitionf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInvalidTransition, fmt.Sprintf(format, args...))
}
