// Package ingestion loads broker statement exports into the executions
// table. Parsing normalizes quantity signs and resolves instrument kinds
// up front so consolidation never has to interpret raw statement data.
package ingestion

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"trade-ledger/internal/domain"
)

// StatementRow is one parsed line of a broker statement export.
type StatementRow struct {
	UserID     int64
	Symbol     string
	Side       domain.Side
	Quantity   decimal.Decimal // unsigned magnitude as reported
	Price      decimal.Decimal
	ExecutedAt time.Time
}

// Expected header: user_id,symbol,side,quantity,price,executed_at
const expectedColumns = 6

// ParseStatement reads a CSV statement export. The first line must be a
// header. Rows are returned in file order; a malformed row aborts the
// parse with its line number.
func ParseStatement(r io.Reader) ([]StatementRow, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = expectedColumns
	reader.TrimLeadingSpace = true

	if _, err := reader.Read(); err != nil {
		return nil, fmt.Errorf("read statement header: %w", err)
	}

	var rows []StatementRow
	for line := 2; ; line++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read statement line %d: %w", line, err)
		}

		row, err := parseRow(record)
		if err != nil {
			return nil, fmt.Errorf("parse statement line %d: %w", line, err)
		}
		rows = append(rows, row)
	}

	return rows, nil
}

func parseRow(record []string) (StatementRow, error) {
	var row StatementRow

	userID, err := strconv.ParseInt(strings.TrimSpace(record[0]), 10, 64)
	if err != nil {
		return row, fmt.Errorf("invalid user_id %q: %w", record[0], err)
	}

	symbol := strings.TrimSpace(record[1])
	if symbol == "" {
		return row, fmt.Errorf("empty symbol")
	}

	side := domain.Side(strings.ToUpper(strings.TrimSpace(record[2])))
	if side != domain.SideBuy && side != domain.SideSell {
		return row, fmt.Errorf("invalid side %q", record[2])
	}

	quantity, err := decimal.NewFromString(strings.TrimSpace(record[3]))
	if err != nil {
		return row, fmt.Errorf("invalid quantity %q: %w", record[3], err)
	}
	if quantity.IsZero() {
		return row, fmt.Errorf("zero quantity")
	}

	price, err := decimal.NewFromString(strings.TrimSpace(record[4]))
	if err != nil {
		return row, fmt.Errorf("invalid price %q: %w", record[4], err)
	}

	executedAt, err := time.Parse(time.RFC3339, strings.TrimSpace(record[5]))
	if err != nil {
		return row, fmt.Errorf("invalid executed_at %q: %w", record[5], err)
	}

	row = StatementRow{
		UserID: userID,
		Symbol: symbol,
		Side:   side,
		// Statements report magnitudes; the sign convention is ours.
		Quantity:   quantity.Abs(),
		Price:      price,
		ExecutedAt: executedAt.UTC(),
	}
	return row, nil
}

// SignedQuantity applies the sign convention: buys positive, sells negative.
func (r StatementRow) SignedQuantity() decimal.Decimal {
	if r.Side == domain.SideSell {
		return r.Quantity.Neg()
	}
	return r.Quantity
}

// ResolveInstrumentKind classifies a symbol as equity or option.
// OCC option symbols end with a 6-digit expiry, a C/P flag and an 8-digit
// strike (e.g. AAPL240119C00190000); everything else is an equity ticker.
func ResolveInstrumentKind(symbol string) domain.InstrumentKind {
	if len(symbol) < 16 {
		return domain.KindEquity
	}

	strike := symbol[len(symbol)-8:]
	flag := symbol[len(symbol)-9]
	expiry := symbol[len(symbol)-15 : len(symbol)-9]

	if (flag == 'C' || flag == 'P') && allDigits(strike) && allDigits(expiry) {
		return domain.KindOption
	}
	return domain.KindEquity
}

func allDigits(s string) bool {
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}
