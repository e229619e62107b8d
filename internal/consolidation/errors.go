package consolidation

import "errors"

// Per-execution errors. These are recovered locally: the execution is
// skipped, reported in the batch result, and left unconsumed; the batch
// continues with the next execution.
var (
	// ErrInvalidExecution is returned for a malformed execution:
	// non-positive price, zero quantity, a sign that contradicts the
	// side, or an unresolved instrument.
	ErrInvalidExecution = errors.New("invalid execution")

	// ErrReversalNotSupported is returned when a single reducing
	// execution would drive open quantity through zero into the opposite
	// direction. Splitting such a fill into a close plus a new open is a
	// deliberate upstream decision, not something to guess here.
	ErrReversalNotSupported = errors.New("direction reversal within a single execution not supported")
)

// ErrInvariantViolation indicates a logic defect, never recoverable user
// data. It aborts and rolls back the whole batch.
var ErrInvariantViolation = errors.New("trade invariant violation")
