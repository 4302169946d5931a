package persistence

import "errors"

var (
	// ErrNotFound is returned when the requested record does not exist.
	ErrNotFound = errors.New("persistence: not found")
	// ErrDuplicate is returned when a unique constraint rejects a write.
	ErrDuplicate = errors.New("persistence: duplicate record")
	// ErrForeignKeyViolation is returned when a write references a missing row.
	ErrForeignKeyViolation = errors.New("persistence: foreign key violation")
	// ErrConstraintViolation is returned when a check constraint rejects a write.
	ErrConstraintViolation = errors.New("persistence: constraint violation")
	// ErrLocked is returned when a job would start on a locked date.
	ErrLocked = errors.New("persistence: date is locked")
	// ErrUnknownUser is returned when the acting user no longer exists.
	ErrUnknownUser = errors.New("persistence: unknown user")
)
