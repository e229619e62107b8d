package domain

// RealizedPnLRecord is the flattened analytics view of a closed trade.
// Corresponds to the realized_pnl_history table in ClickHouse. Values are
// float64: the archive feeds dashboards and aggregate queries, never the
// books. The exact decimal figure lives on the Trade row in PostgreSQL.
type RealizedPnLRecord struct {
	TradeID       string
	UserID        int64
	InstrumentID  int64
	Symbol        string
	Direction     string
	OpenedAt      int64 // Unix timestamp in milliseconds
	ClosedAt      int64 // Unix timestamp in milliseconds
	EntryQuantity float64
	AvgEntryPrice float64
	AvgExitPrice  float64
	RealizedPnL   float64
	FillCount     int
}
