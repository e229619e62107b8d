package storage

import "errors"

// Storage errors shared by all store implementations.
var (
	// ErrNotFound is returned when a requested record does not exist.
	// For the open-trade lookup this is the expected "no open position"
	// result, not a failure.
	ErrNotFound = errors.New("not found")

	// ErrDuplicateKey is returned when attempting to insert a record
	// with a key that already exists.
	ErrDuplicateKey = errors.New("duplicate key")

	// ErrInvalidInput is returned when input validation fails.
	ErrInvalidInput = errors.New("invalid input")

	// ErrAlreadyConsumed is returned when linking an execution that
	// already carries a trade_id. Links are written exactly once.
	ErrAlreadyConsumed = errors.New("execution already linked to a trade")
)
