package memory

import (
	"context"
	"sync"

	"trade-ledger/internal/storage"
)

// BatchRunner is an in-memory implementation of storage.BatchTxRunner.
// Batches are serialized with a single mutex: isolation is whole-store, so
// a rollback restores exactly the state the batch started from without
// clobbering concurrent writers.
type BatchRunner struct {
	mu         sync.Mutex
	executions *ExecutionStore
	trades     *TradeStore
}

// NewBatchRunner creates a batch runner over the given stores.
func NewBatchRunner(executions *ExecutionStore, trades *TradeStore) *BatchRunner {
	return &BatchRunner{
		executions: executions,
		trades:     trades,
	}
}

// WithinBatchTx runs fn against the underlying stores, restoring both to
// their pre-batch snapshots if fn returns an error.
func (r *BatchRunner) WithinBatchTx(ctx context.Context, fn func(storage.TxStores) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	execSnap := r.executions.snapshot()
	tradeSnap := r.trades.snapshot()

	stores := storage.TxStores{
		Executions: r.executions,
		Trades:     r.trades,
	}

	if err := fn(stores); err != nil {
		r.executions.restore(execSnap)
		r.trades.restore(tradeSnap)
		return err
	}

	return nil
}

var _ storage.BatchTxRunner = (*BatchRunner)(nil)
