package ingestion

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"

	"trade-ledger/internal/domain"
	"trade-ledger/internal/storage"
)

// Runner ingests parsed statement rows: resolves or creates instruments
// and bulk-inserts executions.
type Runner struct {
	executions  storage.ExecutionStore
	instruments storage.InstrumentStore
	logger      *log.Logger
	verbose     bool
}

// RunnerOptions for creating Runner.
type RunnerOptions struct {
	Executions  storage.ExecutionStore
	Instruments storage.InstrumentStore
	Logger      *log.Logger
	Verbose     bool
}

// NewRunner creates a new Runner.
func NewRunner(opts RunnerOptions) *Runner {
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		executions:  opts.Executions,
		instruments: opts.Instruments,
		logger:      logger,
		verbose:     opts.Verbose,
	}
}

// IngestStatement parses a statement export and inserts its executions.
// Returns the number of executions inserted.
func (r *Runner) IngestStatement(ctx context.Context, src io.Reader) (int, error) {
	rows, err := ParseStatement(src)
	if err != nil {
		return 0, err
	}
	r.logf("parsed %d statement rows", len(rows))

	if len(rows) == 0 {
		return 0, nil
	}

	// Symbols repeat heavily within a statement, so instruments are
	// resolved once per symbol.
	instruments := make(map[string]*domain.Instrument)
	execs := make([]*domain.Execution, 0, len(rows))

	for _, row := range rows {
		inst, ok := instruments[row.Symbol]
		if !ok {
			inst, err = r.resolveInstrument(ctx, row.Symbol)
			if err != nil {
				return 0, err
			}
			instruments[row.Symbol] = inst
		}

		execs = append(execs, &domain.Execution{
			UserID:         row.UserID,
			InstrumentID:   inst.ID,
			Symbol:         row.Symbol,
			Side:           row.Side,
			SignedQuantity: row.SignedQuantity(),
			Price:          row.Price,
			ExecutedAt:     row.ExecutedAt,
		})
	}

	if err := r.executions.InsertBulk(ctx, execs); err != nil {
		return 0, fmt.Errorf("insert executions: %w", err)
	}
	r.logf("inserted %d executions across %d instruments", len(execs), len(instruments))

	return len(execs), nil
}

// resolveInstrument looks the symbol up and registers it on first sight.
func (r *Runner) resolveInstrument(ctx context.Context, symbol string) (*domain.Instrument, error) {
	inst, err := r.instruments.GetBySymbol(ctx, symbol)
	if err == nil {
		return inst, nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("resolve instrument %s: %w", symbol, err)
	}

	if ResolveInstrumentKind(symbol) == domain.KindOption {
		inst = domain.NewOptionInstrument(symbol)
	} else {
		inst = domain.NewEquityInstrument(symbol)
	}

	if err := r.instruments.Insert(ctx, inst); err != nil {
		// Lost a race with a concurrent ingest; re-read the winner.
		if errors.Is(err, storage.ErrDuplicateKey) {
			return r.instruments.GetBySymbol(ctx, symbol)
		}
		return nil, fmt.Errorf("register instrument %s: %w", symbol, err)
	}
	r.logf("registered instrument %s kind=%s", inst.Symbol, inst.Kind)

	return inst, nil
}

func (r *Runner) logf(format string, args ...any) {
	if r.verbose {
		r.logger.Printf("[ingestion] "+format, args...)
	}
}
