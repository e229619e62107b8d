package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"trade-ledger/internal/domain"
	"trade-ledger/internal/storage"
)

// ExecutionStore implements storage.ExecutionStore using PostgreSQL.
type ExecutionStore struct {
	db querier
}

// NewExecutionStore creates a new ExecutionStore.
func NewExecutionStore(pool *Pool) *ExecutionStore {
	return &ExecutionStore{db: pool}
}

// Compile-time interface check.
var _ storage.ExecutionStore = (*ExecutionStore)(nil)

const executionColumns = `
	id, user_id, instrument_id, symbol, side,
	signed_quantity, price, executed_at, trade_id
`

// Insert adds a new execution and assigns its ID.
func (s *ExecutionStore) Insert(ctx context.Context, e *domain.Execution) error {
	query := `
		INSERT INTO executions (
			user_id, instrument_id, symbol, side,
			signed_quantity, price, executed_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`

	err := s.db.QueryRow(ctx, query,
		e.UserID, e.InstrumentID, e.Symbol, string(e.Side),
		e.SignedQuantity, e.Price, e.ExecutedAt,
	).Scan(&e.ID)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert execution: %w", err)
	}
	return nil
}

// InsertBulk adds multiple executions atomically.
func (s *ExecutionStore) InsertBulk(ctx context.Context, execs []*domain.Execution) error {
	if len(execs) == 0 {
		return nil
	}

	for _, e := range execs {
		if err := s.Insert(ctx, e); err != nil {
			return fmt.Errorf("insert execution in bulk: %w", err)
		}
	}
	return nil
}

// GetUnconsumedByUser retrieves unconsumed executions for a user, ordered
// by executed_at ASC, id ASC.
func (s *ExecutionStore) GetUnconsumedByUser(ctx context.Context, userID int64) ([]*domain.Execution, error) {
	query := `
		SELECT ` + executionColumns + `
		FROM executions
		WHERE user_id = $1 AND trade_id IS NULL
		ORDER BY executed_at ASC, id ASC
	`

	rows, err := s.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("get unconsumed executions: %w", err)
	}
	defer rows.Close()

	return scanExecutions(rows)
}

// GetByTradeID retrieves the executions linked to a trade.
func (s *ExecutionStore) GetByTradeID(ctx context.Context, tradeID string) ([]*domain.Execution, error) {
	query := `
		SELECT ` + executionColumns + `
		FROM executions
		WHERE trade_id = $1
		ORDER BY executed_at ASC, id ASC
	`

	rows, err := s.db.Query(ctx, query, tradeID)
	if err != nil {
		return nil, fmt.Errorf("get executions by trade id: %w", err)
	}
	defer rows.Close()

	return scanExecutions(rows)
}

// LinkToTrade sets trade_id on an unconsumed execution. The trade_id IS
// NULL predicate makes the link a write-once operation at the SQL level.
func (s *ExecutionStore) LinkToTrade(ctx context.Context, executionID int64, tradeID string) error {
	query := `
		UPDATE executions
		SET trade_id = $2
		WHERE id = $1 AND trade_id IS NULL
	`

	tag, err := s.db.Exec(ctx, query, executionID, tradeID)
	if err != nil {
		return fmt.Errorf("link execution to trade: %w", err)
	}
	if tag.RowsAffected() == 0 {
		// Distinguish a missing row from an already-linked one.
		var existing *string
		err := s.db.QueryRow(ctx, `SELECT trade_id FROM executions WHERE id = $1`, executionID).Scan(&existing)
		if isNotFoundError(err) {
			return storage.ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("check execution link: %w", err)
		}
		return storage.ErrAlreadyConsumed
	}
	return nil
}

// ListUsersWithUnconsumed returns distinct user ids with unconsumed
// executions, sorted ascending.
func (s *ExecutionStore) ListUsersWithUnconsumed(ctx context.Context) ([]int64, error) {
	query := `
		SELECT DISTINCT user_id
		FROM executions
		WHERE trade_id IS NULL
		ORDER BY user_id ASC
	`

	rows, err := s.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list users with unconsumed executions: %w", err)
	}
	defer rows.Close()

	var users []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan user id: %w", err)
		}
		users = append(users, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate user ids: %w", err)
	}

	return users, nil
}

// scanExecutions scans multiple rows into a slice of Execution.
func scanExecutions(rows pgx.Rows) ([]*domain.Execution, error) {
	var execs []*domain.Execution

	for rows.Next() {
		var e domain.Execution
		var side string

		err := rows.Scan(
			&e.ID, &e.UserID, &e.InstrumentID, &e.Symbol, &side,
			&e.SignedQuantity, &e.Price, &e.ExecutedAt, &e.TradeID,
		)
		if err != nil {
			return nil, fmt.Errorf("scan execution row: %w", err)
		}
		e.Side = domain.Side(side)

		execs = append(execs, &e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate execution rows: %w", err)
	}

	return execs, nil
}
