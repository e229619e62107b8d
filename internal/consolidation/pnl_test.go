package consolidation

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"trade-ledger/internal/domain"
)

func fill(price string, quantity string) domain.Fill {
	return domain.Fill{
		Time:     time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC),
		Price:    decimal.RequireFromString(price),
		Quantity: decimal.RequireFromString(quantity),
	}
}

func TestAverageFillPrice_Empty(t *testing.T) {
	avg := AverageFillPrice(nil)
	if !avg.IsZero() {
		t.Errorf("expected zero average for empty fills, got %s", avg)
	}
}

func TestAverageFillPrice_Weighted(t *testing.T) {
	fills := []domain.Fill{
		fill("10.00", "1"),
		fill("20.00", "3"),
	}
	avg := AverageFillPrice(fills)
	want := decimal.RequireFromString("17.5")
	if !avg.Equal(want) {
		t.Errorf("expected weighted average %s, got %s", want, avg)
	}
}

func TestComputeRealizedPnL_LongRoundTrip(t *testing.T) {
	entries := []domain.Fill{fill("10.00", "100")}
	exits := []domain.Fill{fill("12.00", "100")}

	pnl := ComputeRealizedPnL(entries, exits, domain.DirectionLong, domain.NewEquityInstrument("AAPL"))
	if pnl.String() != "200" {
		t.Errorf("expected 200, got %s", pnl)
	}
}

func TestComputeRealizedPnL_ShortPartialCovers(t *testing.T) {
	// Short 50 @ 20.00, covered in two fills averaging 18.60.
	entries := []domain.Fill{fill("20.00", "50")}
	exits := []domain.Fill{
		fill("18.40", "25"),
		fill("18.80", "25"),
	}

	pnl := ComputeRealizedPnL(entries, exits, domain.DirectionShort, domain.NewEquityInstrument("TSLA"))
	if pnl.String() != "70" {
		t.Errorf("expected 70, got %s", pnl)
	}
}

func TestComputeRealizedPnL_LosingLong(t *testing.T) {
	entries := []domain.Fill{fill("50.00", "10")}
	exits := []domain.Fill{fill("45.00", "10")}

	pnl := ComputeRealizedPnL(entries, exits, domain.DirectionLong, domain.NewEquityInstrument("AMD"))
	if pnl.String() != "-50" {
		t.Errorf("expected -50, got %s", pnl)
	}
}

func TestComputeRealizedPnL_OptionMultiplierAndCommission(t *testing.T) {
	// 1 contract bought at 2.00, sold at 3.00:
	// gross = 1.00 * 1 * 100 = 100.00, commission = 0.65 * 2 = 1.30.
	entries := []domain.Fill{fill("2.00", "1")}
	exits := []domain.Fill{fill("3.00", "1")}

	pnl := ComputeRealizedPnL(entries, exits, domain.DirectionLong, domain.NewOptionInstrument("AAPL240119C00190000"))
	if pnl.String() != "98.7" {
		t.Errorf("expected 98.7, got %s", pnl)
	}
}

func TestComputeRealizedPnL_ExactDivision(t *testing.T) {
	// Average entry is 31/3 = 10.333... which has no exact float
	// representation. The decimal path still yields exactly 5.33.
	entries := []domain.Fill{
		fill("10.00", "1"),
		fill("10.50", "2"),
	}
	exits := []domain.Fill{fill("12.11", "3")}

	pnl := ComputeRealizedPnL(entries, exits, domain.DirectionLong, domain.NewEquityInstrument("NVDA"))
	if pnl.String() != "5.33" {
		t.Errorf("expected 5.33, got %s", pnl)
	}
}

func TestComputeRealizedPnL_RoundsHalfEven(t *testing.T) {
	// gross = 0.125, banker's rounding to cents gives 0.12.
	entries := []domain.Fill{fill("10.000", "1")}
	exits := []domain.Fill{fill("10.125", "1")}

	pnl := ComputeRealizedPnL(entries, exits, domain.DirectionLong, domain.NewEquityInstrument("SPY"))
	if pnl.String() != "0.12" {
		t.Errorf("expected 0.12, got %s", pnl)
	}
}

func TestComputeRealizedPnL_Deterministic(t *testing.T) {
	entries := []domain.Fill{
		fill("10.01", "7"),
		fill("10.07", "11"),
	}
	exits := []domain.Fill{
		fill("10.55", "13"),
		fill("10.41", "5"),
	}

	first := ComputeRealizedPnL(entries, exits, domain.DirectionLong, domain.NewEquityInstrument("MSFT"))
	for i := 0; i < 5; i++ {
		got := ComputeRealizedPnL(entries, exits, domain.DirectionLong, domain.NewEquityInstrument("MSFT"))
		if !got.Equal(first) {
			t.Fatalf("run %d: expected %s, got %s", i, first, got)
		}
	}
}
