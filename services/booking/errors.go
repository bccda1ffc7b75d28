package booking

import (
	"errors"
	"fmt"
)

// ValidationError reports a draft field that failed local validation, before
// any request is made.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validationError: %s: %s", e.Field, e.Message)
}

func newValidationError(field, msg string) error {
	return &ValidationError{Field: field, Message: msg}
}

// IsValidation reports whether err is a local validation failure.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
