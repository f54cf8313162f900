package domain

import "errors"

// Domain errors
var (
	ErrNotFound            = errors.New("resource not found")
	ErrInvalidInput        = errors.New("invalid input")
	ErrUnauthorized        = errors.New("unauthorized")
	ErrForbidden           = errors.New("forbidden")
	ErrConcurrencyConflict = errors.New("concurrent modification detected")
	ErrStorageFailure      = errors.New("storage failure")
	ErrInternalError       = errors.New("internal error")
)

// Validation constants
const (
	MaxClientNameLength      = 255
	MaxLoanDescriptionLength = 200
)
