package reporting

import (
	"fmt"
	"strings"
	"time"
)

// RenderMarkdown renders report as Markdown string.
func RenderMarkdown(r *Report) string {
	var sb strings.Builder

	// Header
	sb.WriteString(fmt.Sprintf("# Realized P&L Report: user %d\n\n", r.UserID))
	sb.WriteString(fmt.Sprintf("Generated: %s\n\n", r.GeneratedAt.Format(time.RFC3339)))

	// Summary
	sb.WriteString("## Summary\n\n")
	sb.WriteString("| Metric | Value |\n")
	sb.WriteString("|--------|-------|\n")
	sb.WriteString(fmt.Sprintf("| Total Trades | %d |\n", r.Summary.TotalTrades))
	sb.WriteString(fmt.Sprintf("| Open Trades | %d |\n", r.Summary.OpenTrades))
	sb.WriteString(fmt.Sprintf("| Closed Trades | %d |\n", r.Summary.ClosedTrades))
	sb.WriteString(fmt.Sprintf("| Winning Trades | %d |\n", r.Summary.WinningTrades))
	sb.WriteString(fmt.Sprintf("| Losing Trades | %d |\n", r.Summary.LosingTrades))
	sb.WriteString(fmt.Sprintf("| Win Rate | %.4f |\n", r.Summary.WinRate))
	sb.WriteString(fmt.Sprintf("| Total Realized P&L | %s |\n", r.Summary.TotalRealizedPnL))
	sb.WriteString("\n")

	// Trades
	sb.WriteString("## Trades\n\n")
	if len(r.Trades) > 0 {
		sb.WriteString("| Trade | Symbol | Direction | Status | Opened | Closed | EntryQty | AvgEntry | AvgExit | Fills | RealizedPnL |\n")
		sb.WriteString("|-------|--------|-----------|--------|--------|--------|----------|----------|---------|-------|-------------|\n")
		for _, t := range r.Trades {
			closedAt := ""
			if !t.ClosedAt.IsZero() {
				closedAt = t.ClosedAt.Format(time.RFC3339)
			}
			sb.WriteString(fmt.Sprintf("| %s | %s | %s | %s | %s | %s | %s | %s | %s | %d | %s |\n",
				shortID(t.TradeID), t.Symbol, t.Direction, t.Status,
				t.OpenedAt.Format(time.RFC3339), closedAt,
				t.EntryQuantity, t.AvgEntryPrice, t.AvgExitPrice,
				t.FillCount, t.RealizedPnL))
		}
	} else {
		sb.WriteString("No trades available.\n")
	}
	sb.WriteString("\n")

	// Per-symbol breakdown
	sb.WriteString("## Symbols\n\n")
	if len(r.Symbols) > 0 {
		sb.WriteString("| Symbol | Closed | Winners | RealizedPnL |\n")
		sb.WriteString("|--------|--------|---------|-------------|\n")
		for _, s := range r.Symbols {
			sb.WriteString(fmt.Sprintf("| %s | %d | %d | %s |\n",
				s.Symbol, s.ClosedTrades, s.WinningTrades, s.RealizedPnL))
		}
	} else {
		sb.WriteString("No closed trades available.\n")
	}
	sb.WriteString("\n")

	return sb.String()
}

// shortID truncates a trade hash for table readability.
func shortID(id string) string {
	if len(id) > 12 {
		return id[:12]
	}
	return id
}
