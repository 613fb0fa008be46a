package domain

import "errors"

// Error taxonomy shared by the store, the payment bridge and the HTTP layer.
// middleware.ErrorHandler maps each sentinel to a status code.
var (
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrForbidden       = errors.New("forbidden")
	ErrNotFound        = errors.New("not found")
	ErrConflict        = errors.New("conflict")
	ErrDuplicate       = errors.New("duplicate key")
	ErrValidation      = errors.New("validation failed")
)
