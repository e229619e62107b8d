package reporting

import (
	"fmt"
	"strings"
	"time"
)

// RenderCSV renders report trade rows as CSV string.
func RenderCSV(trades []TradeRow) string {
	var sb strings.Builder

	// Header
	sb.WriteString("trade_id,symbol,direction,status,opened_at,closed_at,")
	sb.WriteString("entry_quantity,avg_entry_price,avg_exit_price,fill_count,realized_pnl\n")

	// Rows
	for _, t := range trades {
		closedAt := ""
		if !t.ClosedAt.IsZero() {
			closedAt = t.ClosedAt.Format(time.RFC3339)
		}
		sb.WriteString(fmt.Sprintf("%s,%s,%s,%s,%s,%s,%s,%s,%s,%d,%s\n",
			t.TradeID,
			t.Symbol,
			t.Direction,
			t.Status,
			t.OpenedAt.Format(time.RFC3339),
			closedAt,
			t.EntryQuantity,
			t.AvgEntryPrice,
			t.AvgExitPrice,
			t.FillCount,
			t.RealizedPnL))
	}

	return sb.String()
}
