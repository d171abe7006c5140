package services

import "errors"

var (
	// ErrInvalidPrice rejects a proposed price that is not a positive finite number.
	// Returned before any transcript mutation.
	ErrInvalidPrice = errors.New("invalid proposed price")

	// ErrInvalidTransition signals an operation called on a session whose stage
	// does not permit it. This indicates a UI/state desync, not a buyer mistake.
	ErrInvalidTransition = errors.New("invalid session transition")

	// ErrResponsePending rejects a new proposal while the vendor response to a
	// prior one is still in flight.
	ErrResponsePending = errors.New("vendor response pending")

	// ErrSessionNotFound is returned for unknown or already closed sessions
	ErrSessionNotFound = errors.New("negotiation session not found")

	// ErrEmptySelection is returned when checkout is attempted with no items selected
	ErrEmptySelection = errors.New("no items selected for checkout")
)
