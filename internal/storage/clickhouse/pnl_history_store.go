package clickhouse

import (
	"context"
	"fmt"
	"time"

	"trade-ledger/internal/domain"
	"trade-ledger/internal/storage"
)

// PnLHistoryStore implements storage.PnLHistoryStore using ClickHouse.
// The archive feeds analytics queries; the books of record stay in
// PostgreSQL. ReplacingMergeTree keyed on (user_id, trade_id) makes
// re-archiving the same trade harmless.
type PnLHistoryStore struct {
	conn *Conn
}

// NewPnLHistoryStore creates a new PnLHistoryStore.
func NewPnLHistoryStore(conn *Conn) *PnLHistoryStore {
	return &PnLHistoryStore{conn: conn}
}

// Compile-time interface check.
var _ storage.PnLHistoryStore = (*PnLHistoryStore)(nil)

// InsertBulk appends realized P&L records.
func (s *PnLHistoryStore) InsertBulk(ctx context.Context, records []*domain.RealizedPnLRecord) error {
	if len(records) == 0 {
		return nil
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO realized_pnl_history (
			trade_id, user_id, instrument_id, symbol, direction,
			opened_at, closed_at, entry_quantity,
			avg_entry_price, avg_exit_price, realized_pnl, fill_count
		)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, r := range records {
		err = batch.Append(
			r.TradeID, r.UserID, r.InstrumentID, r.Symbol, r.Direction,
			time.UnixMilli(r.OpenedAt).UTC(), time.UnixMilli(r.ClosedAt).UTC(), r.EntryQuantity,
			r.AvgEntryPrice, r.AvgExitPrice, r.RealizedPnL, int32(r.FillCount),
		)
		if err != nil {
			return fmt.Errorf("append to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}

	return nil
}

// GetByUser retrieves archived records for a user, ordered by closed_at ASC.
func (s *PnLHistoryStore) GetByUser(ctx context.Context, userID int64) ([]*domain.RealizedPnLRecord, error) {
	query := `
		SELECT
			trade_id, user_id, instrument_id, symbol, direction,
			opened_at, closed_at, entry_quantity,
			avg_entry_price, avg_exit_price, realized_pnl, fill_count
		FROM realized_pnl_history FINAL
		WHERE user_id = ?
		ORDER BY closed_at ASC
	`

	rows, err := s.conn.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("query pnl history by user: %w", err)
	}
	defer rows.Close()

	var records []*domain.RealizedPnLRecord
	for rows.Next() {
		var r domain.RealizedPnLRecord
		var openedAt, closedAt time.Time
		var fillCount int32

		err := rows.Scan(
			&r.TradeID, &r.UserID, &r.InstrumentID, &r.Symbol, &r.Direction,
			&openedAt, &closedAt, &r.EntryQuantity,
			&r.AvgEntryPrice, &r.AvgExitPrice, &r.RealizedPnL, &fillCount,
		)
		if err != nil {
			return nil, fmt.Errorf("scan pnl history row: %w", err)
		}

		r.OpenedAt = openedAt.UnixMilli()
		r.ClosedAt = closedAt.UnixMilli()
		r.FillCount = int(fillCount)
		records = append(records, &r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate pnl history rows: %w", err)
	}

	return records, nil
}
