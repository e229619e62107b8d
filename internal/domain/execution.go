package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Side is the broker-reported side of an execution.
type Side string

const (
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"
)

// Execution represents one atomic fill report from a broker.
// Corresponds to the executions table in PostgreSQL. Rows are immutable
// once inserted, except that trade_id is set exactly once when the
// execution is consumed by consolidation.
type Execution struct {
	ID             int64           // BIGSERIAL primary key
	UserID         int64           // owning user
	InstrumentID   int64           // FK to instruments
	Symbol         string          // instrument symbol at execution time
	Side           Side            // BUY | SELL
	SignedQuantity decimal.Decimal // positive for buys, negative for sells
	Price          decimal.Decimal // per-unit price, must be > 0
	ExecutedAt     time.Time       // UTC instant reported by the broker
	TradeID        *string         // nil until consumed, then set once
}

// Consumed reports whether the execution is already linked to a trade.
func (e *Execution) Consumed() bool {
	return e.TradeID != nil
}

// Quantity returns the unsigned magnitude of the execution.
func (e *Execution) Quantity() decimal.Decimal {
	return e.SignedQuantity.Abs()
}
