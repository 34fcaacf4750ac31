package order

import "errors"

var (
	// ErrNotFound: the order, or a record it references, does not resolve.
	ErrNotFound = errors.New("order not found")
	// ErrInvalidOperation: a domain rule rejects the mutation
	// (e.g. editing items after the order left New).
	ErrInvalidOperation = errors.New("invalid operation for order state")
	// ErrValidation: malformed input caught before any storage call.
	ErrValidation = errors.New("invalid order input")
	// ErrConflict: concurrent modification detected by the version check.
	ErrConflict = errors.New("order modified concurrently")
)
