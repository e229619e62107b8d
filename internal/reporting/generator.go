package reporting

import (
	"context"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"trade-ledger/internal/consolidation"
	"trade-ledger/internal/domain"
	"trade-ledger/internal/storage"
)

// Generator produces reports from stored trades.
type Generator struct {
	tradeStore storage.TradeStore
	now        func() time.Time // Injectable clock for deterministic output
}

// NewGenerator creates a new report generator.
func NewGenerator(tradeStore storage.TradeStore) *Generator {
	return &Generator{
		tradeStore: tradeStore,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// WithClock sets a custom clock function for deterministic output.
func (g *Generator) WithClock(now func() time.Time) *Generator {
	g.now = now
	return g
}

// GenerateForUser produces a realized P&L report over all of the user's
// trades. Only closed trades contribute to P&L totals and win rates.
func (g *Generator) GenerateForUser(ctx context.Context, userID int64) (*Report, error) {
	trades, err := g.tradeStore.GetByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	report := &Report{
		GeneratedAt: g.now(),
		UserID:      userID,
	}

	totalPnL := decimal.Zero
	symbolPnL := make(map[string]*symbolTotals)

	for _, t := range trades {
		report.Trades = append(report.Trades, tradeRow(t))
		report.Summary.TotalTrades++

		if t.Status != domain.StatusClosed {
			report.Summary.OpenTrades++
			continue
		}
		report.Summary.ClosedTrades++

		pnl := decimal.Zero
		if t.RealizedPnL != nil {
			pnl = *t.RealizedPnL
		}
		totalPnL = totalPnL.Add(pnl)

		win := pnl.IsPositive()
		if win {
			report.Summary.WinningTrades++
		} else if pnl.IsNegative() {
			report.Summary.LosingTrades++
		}

		st := symbolPnL[t.Symbol]
		if st == nil {
			st = &symbolTotals{pnl: decimal.Zero}
			symbolPnL[t.Symbol] = st
		}
		st.closed++
		if win {
			st.winners++
		}
		st.pnl = st.pnl.Add(pnl)
	}

	if report.Summary.ClosedTrades > 0 {
		report.Summary.WinRate = float64(report.Summary.WinningTrades) / float64(report.Summary.ClosedTrades)
	}
	report.Summary.TotalRealizedPnL = totalPnL.StringFixed(2)

	report.Symbols = symbolRows(symbolPnL)

	sort.Slice(report.Trades, func(i, j int) bool {
		if !report.Trades[i].OpenedAt.Equal(report.Trades[j].OpenedAt) {
			return report.Trades[i].OpenedAt.Before(report.Trades[j].OpenedAt)
		}
		return report.Trades[i].TradeID < report.Trades[j].TradeID
	})

	return report, nil
}

type symbolTotals struct {
	closed  int
	winners int
	pnl     decimal.Decimal
}

func symbolRows(totals map[string]*symbolTotals) []SymbolRow {
	rows := make([]SymbolRow, 0, len(totals))
	for symbol, st := range totals {
		rows = append(rows, SymbolRow{
			Symbol:        symbol,
			ClosedTrades:  st.closed,
			WinningTrades: st.winners,
			RealizedPnL:   st.pnl.StringFixed(2),
		})
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Symbol < rows[j].Symbol })
	return rows
}

func tradeRow(t *domain.Trade) TradeRow {
	row := TradeRow{
		TradeID:       t.ID,
		Symbol:        t.Symbol,
		Direction:     string(t.Direction),
		Status:        string(t.Status),
		OpenedAt:      t.OpenedAt,
		ClosedAt:      t.ClosedAt(),
		EntryQuantity: t.EntryQuantity().String(),
		AvgEntryPrice: consolidation.AverageFillPrice(t.Entries).StringFixed(4),
		FillCount:     len(t.Entries) + len(t.Exits),
	}
	if len(t.Exits) > 0 {
		row.AvgExitPrice = consolidation.AverageFillPrice(t.Exits).StringFixed(4)
	}
	if t.RealizedPnL != nil {
		row.RealizedPnL = t.RealizedPnL.StringFixed(2)
	}
	return row
}
