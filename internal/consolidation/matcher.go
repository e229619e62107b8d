// Package consolidation converts an append-only stream of executions into
// consolidated round-trip trades with exact realized P&L.
package consolidation

import (
	"fmt"

	"github.com/shopspring/decimal"

	"trade-ledger/internal/domain"
	"trade-ledger/internal/idhash"
)

// MatchOutcome identifies the state transition produced by one execution.
type MatchOutcome string

const (
	OutcomeOpenedNew        MatchOutcome = "OPENED_NEW"
	OutcomeExtended         MatchOutcome = "EXTENDED"
	OutcomeReducedOpen      MatchOutcome = "REDUCED_OPEN"
	OutcomeReducedAndClosed MatchOutcome = "REDUCED_AND_CLOSED"
)

// MatchResult is the decision produced by Apply for one execution.
type MatchResult struct {
	Outcome MatchOutcome
	Trade   *domain.Trade

	// RealizedPnL is set only for OutcomeReducedAndClosed.
	RealizedPnL *decimal.Decimal
}

// ValidateExecution rejects malformed executions before they reach the
// state machine. Returns ErrInvalidExecution wrapped with the offending
// field.
func ValidateExecution(exec *domain.Execution) error {
	if !exec.Price.IsPositive() {
		return fmt.Errorf("%w: non-positive price %s", ErrInvalidExecution, exec.Price)
	}
	if exec.SignedQuantity.IsZero() {
		return fmt.Errorf("%w: zero quantity", ErrInvalidExecution)
	}
	switch exec.Side {
	case domain.SideBuy:
		if exec.SignedQuantity.IsNegative() {
			return fmt.Errorf("%w: buy with negative signed quantity %s", ErrInvalidExecution, exec.SignedQuantity)
		}
	case domain.SideSell:
		if exec.SignedQuantity.IsPositive() {
			return fmt.Errorf("%w: sell with positive signed quantity %s", ErrInvalidExecution, exec.SignedQuantity)
		}
	default:
		return fmt.Errorf("%w: unknown side %q", ErrInvalidExecution, exec.Side)
	}
	return nil
}

// Apply is the core decision procedure: given the next unconsumed
// execution and the current open trade for its (user, instrument) pair,
// nil when no position is open, it opens, extends, reduces, or closes
// a trade. The open trade is mutated in place; the caller persists it and
// the execution link in the same transaction.
//
// Apply links the execution to the resulting trade id before returning.
func Apply(exec *domain.Execution, open *domain.Trade, inst *domain.Instrument) (*MatchResult, error) {
	if err := ValidateExecution(exec); err != nil {
		return nil, err
	}

	qty := exec.Quantity()

	if open == nil {
		direction := domain.DirectionLong
		if exec.Side == domain.SideSell {
			direction = domain.DirectionShort
		}

		trade := &domain.Trade{
			ID:           idhash.ComputeTradeID(exec.UserID, exec.InstrumentID, exec.ID, exec.ExecutedAt),
			UserID:       exec.UserID,
			InstrumentID: exec.InstrumentID,
			Symbol:       exec.Symbol,
			Direction:    direction,
			Status:       domain.StatusOpen,
			OpenedAt:     exec.ExecutedAt,
			OpenQuantity: qty,
			Entries:      []domain.Fill{fillFrom(exec)},
		}
		exec.TradeID = &trade.ID
		return &MatchResult{Outcome: OutcomeOpenedNew, Trade: trade}, nil
	}

	if addsExposure(exec.Side, open.Direction) {
		open.Entries = append(open.Entries, fillFrom(exec))
		open.OpenQuantity = open.OpenQuantity.Add(qty)
		exec.TradeID = &open.ID
		return &MatchResult{Outcome: OutcomeExtended, Trade: open}, nil
	}

	// Reducing. A magnitude past the remaining exposure would flip the
	// direction through zero; reject instead of corrupting the invariant.
	if qty.GreaterThan(open.OpenQuantity) {
		return nil, fmt.Errorf("%w: execution quantity %s exceeds open quantity %s",
			ErrReversalNotSupported, qty, open.OpenQuantity)
	}

	open.Exits = append(open.Exits, fillFrom(exec))
	open.OpenQuantity = open.OpenQuantity.Sub(qty)

	if open.OpenQuantity.IsNegative() || !open.QuantityBalanced() {
		return nil, fmt.Errorf("%w: trade %s fills do not reconcile with open quantity %s",
			ErrInvariantViolation, open.ID, open.OpenQuantity)
	}

	if open.OpenQuantity.IsZero() {
		pnl := ComputeRealizedPnL(open.Entries, open.Exits, open.Direction, inst)
		open.Status = domain.StatusClosed
		open.RealizedPnL = &pnl
		exec.TradeID = &open.ID
		return &MatchResult{Outcome: OutcomeReducedAndClosed, Trade: open, RealizedPnL: &pnl}, nil
	}

	exec.TradeID = &open.ID
	return &MatchResult{Outcome: OutcomeReducedOpen, Trade: open}, nil
}

// addsExposure reports whether an execution side agrees with the trade
// direction: a buy adds long exposure, a sell adds short exposure.
func addsExposure(side domain.Side, direction domain.Direction) bool {
	return (side == domain.SideBuy && direction == domain.DirectionLong) ||
		(side == domain.SideSell && direction == domain.DirectionShort)
}

func fillFrom(exec *domain.Execution) domain.Fill {
	return domain.Fill{
		Time:     exec.ExecutedAt,
		Price:    exec.Price,
		Quantity: exec.Quantity(),
	}
}
