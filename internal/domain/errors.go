package domain

import "errors"

var (
	// ErrEntityNotFound is returned when a referenced balance, item or user row is absent
	ErrEntityNotFound = errors.New("entity not found")

	// ErrInsufficientFunds is returned when the sender balance cannot cover amount + fee
	ErrInsufficientFunds = errors.New("insufficient funds")

	// ErrOwnershipMismatch is returned when an item does not belong to the claimed sender
	ErrOwnershipMismatch = errors.New("item ownership mismatch")

	// ErrInvalidOperation is returned for malformed requests (non-positive amount, self-transfer, negative fee)
	ErrInvalidOperation = errors.New("invalid operation")

	// ErrConcurrencyConflict is returned when a row lock could not be acquired or the
	// transaction lost a serialization conflict; the engine retries these internally
	ErrConcurrencyConflict = errors.New("concurrency conflict")

	// ErrOperationTimedOut is returned when an atomic unit hit the statement timeout
	// or the conflict-retry budget was exhausted
	ErrOperationTimedOut = errors.New("operation timed out")

	// ErrStorageUnavailable is returned when the underlying persistence is unreachable
	ErrStorageUnavailable = errors.New("storage unavailable")
)
