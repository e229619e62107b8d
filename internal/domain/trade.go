package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Direction is the side of the market a trade is exposed to.
type Direction string

const (
	DirectionLong  Direction = "LONG"
	DirectionShort Direction = "SHORT"
)

// Status is the lifecycle state of a trade. Transitions only OPEN → CLOSED.
type Status string

const (
	StatusOpen   Status = "OPEN"
	StatusClosed Status = "CLOSED"
)

// Fill is a single entry or exit event within a trade. Fills are stored in
// insertion order, which is execution-timestamp order by construction.
type Fill struct {
	Time     time.Time       `json:"time"`
	Price    decimal.Decimal `json:"price"`
	Quantity decimal.Decimal `json:"quantity"` // unsigned magnitude
}

// Trade is a consolidated round-trip position spanning one or more
// executions from open to close. Corresponds to the trades table in
// PostgreSQL; entries and exits are persisted as single JSONB writes.
type Trade struct {
	ID           string           // deterministic SHA256 hash, see idhash
	UserID       int64            // owning user
	InstrumentID int64            // FK to instruments
	Symbol       string           // instrument symbol
	Direction    Direction        // immutable once set
	Status       Status           // OPEN | CLOSED
	OpenedAt     time.Time        // timestamp of the opening execution
	OpenQuantity decimal.Decimal  // unsigned magnitude of remaining exposure
	Entries      []Fill           // insertion-ordered entry fills
	Exits        []Fill           // insertion-ordered exit fills
	RealizedPnL  *decimal.Decimal // set exactly once at close, never recomputed
}

// EntryQuantity returns the total quantity across all entry fills.
func (t *Trade) EntryQuantity() decimal.Decimal {
	return sumFillQuantity(t.Entries)
}

// ExitQuantity returns the total quantity across all exit fills.
func (t *Trade) ExitQuantity() decimal.Decimal {
	return sumFillQuantity(t.Exits)
}

// ClosedAt returns the time of the last exit fill, or the zero time for a
// trade that has no exits yet.
func (t *Trade) ClosedAt() time.Time {
	if len(t.Exits) == 0 {
		return time.Time{}
	}
	return t.Exits[len(t.Exits)-1].Time
}

// QuantityBalanced reports whether the fill quantities reconcile with the
// remaining open quantity: sum(entries) - sum(exits) == open_quantity.
func (t *Trade) QuantityBalanced() bool {
	return t.EntryQuantity().Sub(t.ExitQuantity()).Equal(t.OpenQuantity)
}

func sumFillQuantity(fills []Fill) decimal.Decimal {
	total := decimal.Zero
	for _, f := range fills {
		total = total.Add(f.Quantity)
	}
	return total
}
