package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"trade-ledger/internal/storage"
)

// BatchRunner implements storage.BatchTxRunner using a serializable
// PostgreSQL transaction. The selector read, every trade write, and every
// execution link of a batch travel through the same transaction; an error
// from fn rolls the whole batch back.
type BatchRunner struct {
	pool *Pool
}

// NewBatchRunner creates a batch runner over the pool.
func NewBatchRunner(pool *Pool) *BatchRunner {
	return &BatchRunner{pool: pool}
}

// WithinBatchTx runs fn with stores bound to one serializable transaction.
func (r *BatchRunner) WithinBatchTx(ctx context.Context, fn func(storage.TxStores) error) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.Serializable})
	if err != nil {
		return fmt.Errorf("begin batch tx: %w", err)
	}
	defer tx.Rollback(ctx)

	stores := storage.TxStores{
		Executions: &ExecutionStore{db: tx},
		Trades:     &TradeStore{db: tx},
	}

	if err := fn(stores); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit batch tx: %w", err)
	}
	return nil
}

var _ storage.BatchTxRunner = (*BatchRunner)(nil)
