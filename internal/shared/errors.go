package shared

import "errors"

var (
	// ErrNotFound indicates the referenced row does not exist.
	ErrNotFound = errors.New("not found")
	// ErrInvalidTransition indicates the requested status change is not legal
	// from the order's current status.
	ErrInvalidTransition = errors.New("invalid status transition")
	// ErrInsufficientStock indicates a decrement would drive a stock counter
	// negative.
	ErrInsufficientStock = errors.New("insufficient stock")
	// ErrValidation indicates malformed input, rejected before any mutation.
	ErrValidation = errors.New("validation failed")
	// ErrDuplicate indicates a uniqueness violation (SKU, order number, BOM pair).
	ErrDuplicate = errors.New("duplicate entry")
	// ErrInvalidCredentials indicates login failure.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrForbidden indicates the actor's role does not permit the action.
	ErrForbidden = errors.New("forbidden")
)
