package persistence

import "errors"

var (
	// ErrNotFound is returned when the requested record does not exist.
	ErrNotFound = errors.New("persistence: not found")
	// ErrDuplicate is returned when a unique constraint is violated.
	ErrDuplicate = errors.New("persistence: duplicate record")
	// ErrForeignKeyViolation is returned when a referenced record is missing.
	ErrForeignKeyViolation = errors.New("persistence: foreign key violation")
	// ErrConstraintViolation is returned when stored data would violate a
	// schema constraint.
	ErrConstraintViolation = errors.New("persistence: constraint violation")
	// ErrTimeConflict is returned by the checked reservation writes when the
	// requested interval overlaps an existing reservation in the same
	// schedule. The check and the write happen in one transaction, so two
	// racing callers cannot both succeed.
	ErrTimeConflict = errors.New("persistence: time conflict")
)
