package application

import (
	"errors"

	"github.com/example/exterminus/internal/persistence"
	"github.com/example/exterminus/internal/scheduler"
)

var (
	// ErrUnauthorized is returned when the acting principal lacks permission for an operation.
	ErrUnauthorized = errors.New("application: unauthorized")
	// ErrNotFound is returned when the requested resource does not exist.
	ErrNotFound = errors.New("application: not found")
	// ErrLocked is returned when a job would start on a locked date.
	ErrLocked = errors.New("application: date is locked")
	// ErrSessionExpired is returned when the acting user no longer exists.
	ErrSessionExpired = errors.New("application: session expired")
)

// ValidationError captures user-correctable input problems. Message is the
// headline shown to the user; FieldErrors optionally pins issues to fields.
type ValidationError struct {
	Message     string
	FieldErrors map[string]string
}

// Error implements the error interface.
func (v *ValidationError) Error() string {
	if v == nil {
		return ""
	}
	if v.Message != "" {
		return v.Message
	}
	return "validation failed"
}

// HasErrors reports whether any issue was recorded.
func (v *ValidationError) HasErrors() bool {
	return v != nil && (v.Message != "" || len(v.FieldErrors) > 0)
}

// add records a field level validation error. The first message also becomes
// the headline.
func (v *ValidationError) add(field, message string) {
	if v.FieldErrors == nil {
		v.FieldErrors = make(map[string]string)
	}
	v.FieldErrors[field] = message
	if v.Message == "" {
		v.Message = message
	}
}

// merge copies entries from another validation error into the receiver.
func (v *ValidationError) merge(other *ValidationError) {
	if other == nil {
		return
	}
	if v.Message == "" {
		v.Message = other.Message
	}
	for field, msg := range other.FieldErrors {
		v.add(field, msg)
	}
}

func newValidationError(message string) *ValidationError {
	return &ValidationError{Message: message}
}

// fromComposerError lifts a composer validation failure into the service
// error vocabulary and passes other errors through.
func fromComposerError(err error) error {
	var cErr *scheduler.ValidationError
	if errors.As(err, &cErr) {
		return newValidationError(cErr.Message)
	}
	return err
}

// mapRepoError translates persistence sentinels into service errors.
func mapRepoError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, persistence.ErrNotFound):
		return ErrNotFound
	case errors.Is(err, persistence.ErrLocked):
		return ErrLocked
	case errors.Is(err, persistence.ErrUnknownUser):
		return ErrSessionExpired
	case errors.Is(err, persistence.ErrConstraintViolation):
		return newValidationError("The request conflicts with stored data.")
	case errors.Is(err, persistence.ErrForeignKeyViolation):
		return newValidationError("A referenced record no longer exists.")
	}
	return err
}
