package domain

import "errors"

// Error kinds returned by services. Wrap them with context using fmt.Errorf("...: %w", ErrX)
// and test with errors.Is.
var (
	ErrNotFound        = errors.New("not found")
	ErrForbidden       = errors.New("forbidden")
	ErrConflict        = errors.New("conflict")
	ErrInvalidArgument = errors.New("invalid argument")
)
