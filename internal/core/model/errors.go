package model

import "errors"

// Terminal lookup failures. A punch referencing a missing or soft-deleted
// row is dropped, not retried.
var (
	ErrPunchNotFound    = errors.New("punch not found")
	ErrEmployeeNotFound = errors.New("employee not found")
)

// IsNotFound reports whether err is one of the terminal lookup failures.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrPunchNotFound) || errors.Is(err, ErrEmployeeNotFound)
}
