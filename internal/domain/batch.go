package domain

// ProcessingError reports one execution that was skipped during a batch.
// The execution stays unconsumed and reappears on the next run until the
// underlying data is corrected upstream.
type ProcessingError struct {
	ExecutionID int64
	Reason      string
}

// BatchResult summarizes one consolidation run for a single user.
type BatchResult struct {
	UserID         int64
	TradesOpened   int
	TradesExtended int
	TradesReduced  int
	TradesClosed   int
	Errors         []ProcessingError

	// ClosedTrades carries the trades finalized during this batch so the
	// caller can archive them after commit.
	ClosedTrades []*Trade
}
