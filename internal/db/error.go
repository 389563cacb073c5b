package db

import "errors"

// NotFoundError is returned on entity lookup misses.
type NotFoundError struct {
	Key     string
	Message string
}

func (e *NotFoundError) Error() string {
	return e.Message
}

func IsNotFoundError(err error) bool {
	var notFound *NotFoundError
	return errors.As(err, &notFound)
}

// DuplicateKeyError is returned when an insert collides with an existing id.
type DuplicateKeyError struct {
	Key     string
	Message string
}

func (e *DuplicateKeyError) Error() string {
	return e.Message
}

func IsDuplicateKeyError(err error) bool {
	var duplicate *DuplicateKeyError
	return errors.As(err, &duplicate)
}

// InsufficientBalanceError is returned when a balance mutation would go
// negative. Defensive guard; not expected in normal operation.
type InsufficientBalanceError struct {
	Key     string
	Message string
}

func (e *InsufficientBalanceError) Error() string {
	return e.Message
}

func IsInsufficientBalanceError(err error) bool {
	var insufficient *InsufficientBalanceError
	return errors.As(err, &insufficient)
}
