package domain

import "github.com/shopspring/decimal"

// InstrumentKind classifies an instrument for P&L adjustment purposes.
// Resolved once by the ingestion adapter; the P&L calculator never infers
// the kind from the symbol.
type InstrumentKind string

const (
	KindEquity InstrumentKind = "EQUITY"
	KindOption InstrumentKind = "OPTION"
)

// Instrument is the reference record for a tradable symbol.
// Corresponds to the instruments table in PostgreSQL.
type Instrument struct {
	ID                    int64           // BIGSERIAL primary key
	Symbol                string          // unique ticker / OCC symbol
	Kind                  InstrumentKind  // EQUITY | OPTION
	Multiplier            decimal.Decimal // notional multiplier, 1 for equities
	CommissionPerContract decimal.Decimal // flat commission per contract, 0 for equities
}

// Standard US option contract terms applied by the ingestion adapter when
// it resolves an OCC-style symbol.
var (
	OptionMultiplier        = decimal.NewFromInt(100)
	DefaultOptionCommission = decimal.RequireFromString("0.65")
)

// NewEquityInstrument returns an equity instrument with neutral P&L terms.
func NewEquityInstrument(symbol string) *Instrument {
	return &Instrument{
		Symbol:                symbol,
		Kind:                  KindEquity,
		Multiplier:            decimal.NewFromInt(1),
		CommissionPerContract: decimal.Zero,
	}
}

// NewOptionInstrument returns an option instrument with standard US
// contract terms.
func NewOptionInstrument(symbol string) *Instrument {
	return &Instrument{
		Symbol:                symbol,
		Kind:                  KindOption,
		Multiplier:            OptionMultiplier,
		CommissionPerContract: DefaultOptionCommission,
	}
}
