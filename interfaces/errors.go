package interfaces

import "errors"

var (
	// ErrForbidden is returned when the caller lacks the role an operation
	// requires: a non-administrator creating titles, or a non-owner driving
	// a title's transition.
	ErrForbidden = errors.New("caller lacks required role")

	// ErrUnauthorized is returned when a signature does not resolve to the
	// identity an operation requires.
	ErrUnauthorized = errors.New("signature does not match required identity")

	// ErrTitleNotFound is returned when a referenced title index has never
	// been assigned.
	ErrTitleNotFound = errors.New("title not found")

	// ErrInvalidState is returned when an operation is attempted against a
	// record whose state does not match the operation's required source state.
	ErrInvalidState = errors.New("title not in required state")

	// ErrInsufficientFee is returned when a payment is below the configured
	// fee threshold.
	ErrInsufficientFee = errors.New("payment below configured fee")

	// ErrInvalidSignature is returned for malformed or unrecoverable
	// signature bytes.
	ErrInvalidSignature = errors.New("invalid signature")
)
