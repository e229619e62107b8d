package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"

	"trade-ledger/internal/domain"
	"trade-ledger/internal/storage"
)

// TradeStore implements storage.TradeStore using PostgreSQL. Entry and
// exit fills live in JSONB columns and are rewritten in one batch write
// per matching-engine transition, never one round trip per fill.
type TradeStore struct {
	db querier
}

// NewTradeStore creates a new TradeStore.
func NewTradeStore(pool *Pool) *TradeStore {
	return &TradeStore{db: pool}
}

// Compile-time interface check.
var _ storage.TradeStore = (*TradeStore)(nil)

const tradeColumns = `
	id, user_id, instrument_id, symbol, direction, status,
	opened_at, open_quantity, entries, exits, realized_pnl
`

// Insert adds a new trade. The partial unique index on open trades turns
// a second open position for the same (user, instrument) into
// ErrDuplicateKey.
func (s *TradeStore) Insert(ctx context.Context, t *domain.Trade) error {
	entries, exits, err := marshalFills(t)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO trades (
			id, user_id, instrument_id, symbol, direction, status,
			opened_at, open_quantity, entries, exits, realized_pnl
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	_, err = s.db.Exec(ctx, query,
		t.ID, t.UserID, t.InstrumentID, t.Symbol, string(t.Direction), string(t.Status),
		t.OpenedAt, t.OpenQuantity, entries, exits, t.RealizedPnL,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert trade: %w", err)
	}
	return nil
}

// Update rewrites the mutable fields of a trade in one write.
func (s *TradeStore) Update(ctx context.Context, t *domain.Trade) error {
	entries, exits, err := marshalFills(t)
	if err != nil {
		return err
	}

	query := `
		UPDATE trades
		SET status = $2, open_quantity = $3, entries = $4, exits = $5, realized_pnl = $6
		WHERE id = $1
	`

	tag, err := s.db.Exec(ctx, query,
		t.ID, string(t.Status), t.OpenQuantity, entries, exits, t.RealizedPnL,
	)
	if err != nil {
		return fmt.Errorf("update trade: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// GetByID retrieves a trade by its id. Returns ErrNotFound if not exists.
func (s *TradeStore) GetByID(ctx context.Context, tradeID string) (*domain.Trade, error) {
	query := `
		SELECT ` + tradeColumns + `
		FROM trades
		WHERE id = $1
	`

	row := s.db.QueryRow(ctx, query, tradeID)
	t, err := scanTrade(row)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get trade by id: %w", err)
	}
	return t, nil
}

// GetOpenByUserInstrument retrieves the single open trade for a
// (user, instrument) pair. Returns ErrNotFound when no position is open.
func (s *TradeStore) GetOpenByUserInstrument(ctx context.Context, userID, instrumentID int64) (*domain.Trade, error) {
	query := `
		SELECT ` + tradeColumns + `
		FROM trades
		WHERE user_id = $1 AND instrument_id = $2 AND status = 'OPEN'
	`

	row := s.db.QueryRow(ctx, query, userID, instrumentID)
	t, err := scanTrade(row)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get open trade: %w", err)
	}
	return t, nil
}

// GetByUser retrieves all trades for a user, ordered by opened_at ASC.
func (s *TradeStore) GetByUser(ctx context.Context, userID int64) ([]*domain.Trade, error) {
	query := `
		SELECT ` + tradeColumns + `
		FROM trades
		WHERE user_id = $1
		ORDER BY opened_at ASC, id ASC
	`

	rows, err := s.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("get trades by user: %w", err)
	}
	defer rows.Close()

	return scanTrades(rows)
}

// GetClosedByUser retrieves the closed trades for a user, ordered by
// opened_at ASC.
func (s *TradeStore) GetClosedByUser(ctx context.Context, userID int64) ([]*domain.Trade, error) {
	query := `
		SELECT ` + tradeColumns + `
		FROM trades
		WHERE user_id = $1 AND status = 'CLOSED'
		ORDER BY opened_at ASC, id ASC
	`

	rows, err := s.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("get closed trades by user: %w", err)
	}
	defer rows.Close()

	return scanTrades(rows)
}

// marshalFills serializes both fill lists for a single batch write.
func marshalFills(t *domain.Trade) ([]byte, []byte, error) {
	entries, err := json.Marshal(t.Entries)
	if err != nil {
		return nil, nil, fmt.Errorf("marshal entry fills: %w", err)
	}
	exits, err := json.Marshal(t.Exits)
	if err != nil {
		return nil, nil, fmt.Errorf("marshal exit fills: %w", err)
	}
	return entries, exits, nil
}

// scanTrade scans a single row into a Trade.
func scanTrade(row pgx.Row) (*domain.Trade, error) {
	var t domain.Trade
	var direction, status string
	var entries, exits []byte

	err := row.Scan(
		&t.ID, &t.UserID, &t.InstrumentID, &t.Symbol, &direction, &status,
		&t.OpenedAt, &t.OpenQuantity, &entries, &exits, &t.RealizedPnL,
	)
	if err != nil {
		return nil, err
	}

	t.Direction = domain.Direction(direction)
	t.Status = domain.Status(status)
	if err := json.Unmarshal(entries, &t.Entries); err != nil {
		return nil, fmt.Errorf("unmarshal entry fills: %w", err)
	}
	if err := json.Unmarshal(exits, &t.Exits); err != nil {
		return nil, fmt.Errorf("unmarshal exit fills: %w", err)
	}

	return &t, nil
}

// scanTrades scans multiple rows into a slice of Trade.
func scanTrades(rows pgx.Rows) ([]*domain.Trade, error) {
	var trades []*domain.Trade

	for rows.Next() {
		t, err := scanTrade(rows)
		if err != nil {
			return nil, fmt.Errorf("scan trade row: %w", err)
		}
		trades = append(trades, t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate trade rows: %w", err)
	}

	return trades, nil
}
