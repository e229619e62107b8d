package reporting

import "time"

// Report is a per-user realized P&L report over consolidated trades.
type Report struct {
	// Metadata
	GeneratedAt time.Time
	UserID      int64

	// Summary
	Summary Summary

	// Trade rows (sorted by opened_at, trade_id)
	Trades []TradeRow

	// Per-symbol breakdown of closed trades (sorted by symbol)
	Symbols []SymbolRow
}

// Summary contains headline totals for the user.
type Summary struct {
	TotalTrades      int
	OpenTrades       int
	ClosedTrades     int
	WinningTrades    int     // closed with realized P&L > 0
	LosingTrades     int     // closed with realized P&L < 0
	WinRate          float64 // closed winners / closed trades, 0 if none closed
	TotalRealizedPnL string  // exact decimal sum over closed trades, 2 dp
}

// TradeRow represents one trade in the report table.
type TradeRow struct {
	TradeID       string
	Symbol        string
	Direction     string
	Status        string
	OpenedAt      time.Time
	ClosedAt      time.Time // zero for open trades
	EntryQuantity string
	AvgEntryPrice string
	AvgExitPrice  string
	FillCount     int
	RealizedPnL   string // empty for open trades
}

// SymbolRow aggregates closed trades per symbol.
type SymbolRow struct {
	Symbol        string
	ClosedTrades  int
	WinningTrades int
	RealizedPnL   string // exact decimal sum, 2 dp
}
