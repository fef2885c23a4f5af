package store

import "errors"

// Error kinds returned by the store layer. The API layer maps these to
// HTTP status codes with errors.Is; nothing here is swallowed.
var (
	// ErrNotFound is returned when an entity id is unknown.
	ErrNotFound = errors.New("not found")

	// ErrUnauthorized is returned when the acting user lacks permission
	// for the operation.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrInvalidRequest is returned when an operation violates a
	// creation invariant.
	ErrInvalidRequest = errors.New("invalid request")

	// ErrAlreadyResolved is returned when a swap request is no longer
	// pending.
	ErrAlreadyResolved = errors.New("swap request already resolved")

	// ErrInsufficientPoints is returned when a debit would take a
	// balance below zero.
	ErrInsufficientPoints = errors.New("insufficient points")

	// ErrDuplicate is returned when a unique constraint (username,
	// email) would be violated.
	ErrDuplicate = errors.New("already exists")
)
