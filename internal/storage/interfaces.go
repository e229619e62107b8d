package storage

import (
	"context"

	"trade-ledger/internal/domain"
)

// ExecutionStore provides access to executions storage.
type ExecutionStore interface {
	// Insert adds a new execution and assigns its ID.
	Insert(ctx context.Context, e *domain.Execution) error

	// InsertBulk adds multiple executions atomically.
	InsertBulk(ctx context.Context, execs []*domain.Execution) error

	// GetUnconsumedByUser retrieves all executions with no trade link for
	// a user, ordered by executed_at ASC with ties broken by id ASC. The
	// read is idempotent and does not mutate state.
	GetUnconsumedByUser(ctx context.Context, userID int64) ([]*domain.Execution, error)

	// GetByTradeID retrieves the executions linked to a trade, ordered by
	// executed_at ASC, id ASC.
	GetByTradeID(ctx context.Context, tradeID string) ([]*domain.Execution, error)

	// LinkToTrade sets trade_id on an unconsumed execution. Returns
	// ErrAlreadyConsumed if the execution is already linked and
	// ErrNotFound if it does not exist.
	LinkToTrade(ctx context.Context, executionID int64, tradeID string) error

	// ListUsersWithUnconsumed returns the distinct user ids that have at
	// least one unconsumed execution, sorted ascending.
	ListUsersWithUnconsumed(ctx context.Context) ([]int64, error)
}

// TradeStore provides access to trades storage.
type TradeStore interface {
	// Insert adds a new trade. Returns ErrDuplicateKey if the trade id
	// or the single open slot for (user_id, instrument_id) is taken.
	Insert(ctx context.Context, t *domain.Trade) error

	// Update rewrites the mutable fields of a trade (fills, open
	// quantity, status, realized P&L) in one write. Returns ErrNotFound
	// if the trade does not exist.
	Update(ctx context.Context, t *domain.Trade) error

	// GetByID retrieves a trade by its id. Returns ErrNotFound if not exists.
	GetByID(ctx context.Context, tradeID string) (*domain.Trade, error)

	// GetOpenByUserInstrument retrieves the single open trade for a
	// (user, instrument) pair. Returns ErrNotFound when no position is
	// open, which is a valid, expected result.
	GetOpenByUserInstrument(ctx context.Context, userID, instrumentID int64) (*domain.Trade, error)

	// GetByUser retrieves all trades for a user, ordered by opened_at ASC.
	GetByUser(ctx context.Context, userID int64) ([]*domain.Trade, error)

	// GetClosedByUser retrieves the closed trades for a user, ordered by
	// opened_at ASC.
	GetClosedByUser(ctx context.Context, userID int64) ([]*domain.Trade, error)
}

// InstrumentStore provides access to instruments storage.
type InstrumentStore interface {
	// Insert adds a new instrument and assigns its ID. Returns
	// ErrDuplicateKey if the symbol exists.
	Insert(ctx context.Context, inst *domain.Instrument) error

	// GetByID retrieves an instrument by id. Returns ErrNotFound if not exists.
	GetByID(ctx context.Context, id int64) (*domain.Instrument, error)

	// GetBySymbol retrieves an instrument by symbol. Returns ErrNotFound
	// if not exists.
	GetBySymbol(ctx context.Context, symbol string) (*domain.Instrument, error)
}

// TxStores bundles the stores bound to a single batch transaction.
type TxStores struct {
	Executions ExecutionStore
	Trades     TradeStore
}

// BatchTxRunner executes fn inside one all-or-nothing transaction. Every
// read and write a consolidation batch performs goes through the stores
// handed to fn; any error from fn rolls the whole batch back so no partial
// consolidation is ever persisted.
type BatchTxRunner interface {
	WithinBatchTx(ctx context.Context, fn func(TxStores) error) error
}

// PnLHistoryStore provides access to the realized P&L analytics archive.
type PnLHistoryStore interface {
	// InsertBulk appends realized P&L records. The archive is append-only.
	InsertBulk(ctx context.Context, records []*domain.RealizedPnLRecord) error

	// GetByUser retrieves archived records for a user, ordered by closed_at ASC.
	GetByUser(ctx context.Context, userID int64) ([]*domain.RealizedPnLRecord, error)
}
