package consolidation

import (
	"context"
	"errors"
	"fmt"
	"log"

	"trade-ledger/internal/domain"
	"trade-ledger/internal/observability"
	"trade-ledger/internal/storage"
)

// Processor consolidates a single user's unconsumed executions into
// trades. It is the one public entry point of the engine: idempotent and
// safe to call repeatedly, because consumed executions are excluded by the
// trade_id IS NULL selector predicate.
type Processor struct {
	runner      storage.BatchTxRunner
	instruments storage.InstrumentStore
	logger      *log.Logger
	verbose     bool
}

// Options contains configuration for creating a Processor.
type Options struct {
	Runner      storage.BatchTxRunner
	Instruments storage.InstrumentStore
	Logger      *log.Logger
	Verbose     bool
}

// NewProcessor creates a new Processor.
func NewProcessor(opts Options) *Processor {
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	return &Processor{
		runner:      opts.Runner,
		instruments: opts.Instruments,
		logger:      logger,
		verbose:     opts.Verbose,
	}
}

// ProcessBatch applies every unconsumed execution for the user, oldest
// first, inside one all-or-nothing transaction. Per-execution errors
// (invalid data, unsupported reversals) are recorded in the result and the
// loop continues; repository and invariant errors abort the batch and roll
// everything back, leaving the full unconsumed set safe to retry.
func (p *Processor) ProcessBatch(ctx context.Context, userID int64) (*domain.BatchResult, error) {
	result := &domain.BatchResult{UserID: userID}

	err := p.runner.WithinBatchTx(ctx, func(s storage.TxStores) error {
		execs, err := s.Executions.GetUnconsumedByUser(ctx, userID)
		if err != nil {
			return fmt.Errorf("select unconsumed executions for user %d: %w", userID, err)
		}
		p.logf("user %d: %d unconsumed executions", userID, len(execs))

		// Open-trade slots touched during this batch. A nil value means
		// the absence is known, so the store is not re-read.
		slots := make(map[int64]*domain.Trade)

		for _, exec := range execs {
			open, cached := slots[exec.InstrumentID]
			if !cached {
				open, err = p.findOpenTrade(ctx, s.Trades, userID, exec.InstrumentID)
				if err != nil {
					return err
				}
			}

			inst, err := p.instruments.GetByID(ctx, exec.InstrumentID)
			if errors.Is(err, storage.ErrNotFound) {
				p.skip(result, exec, fmt.Errorf("%w: unresolved instrument %d", ErrInvalidExecution, exec.InstrumentID))
				continue
			} else if err != nil {
				return fmt.Errorf("resolve instrument %d: %w", exec.InstrumentID, err)
			}

			res, err := Apply(exec, open, inst)
			if err != nil {
				if errors.Is(err, ErrInvalidExecution) || errors.Is(err, ErrReversalNotSupported) {
					p.skip(result, exec, err)
					continue
				}
				// Invariant violations and anything unexpected are fatal
				// for the batch.
				return err
			}

			if err := p.persist(ctx, s.Trades, res, result); err != nil {
				return err
			}

			if err := s.Executions.LinkToTrade(ctx, exec.ID, res.Trade.ID); err != nil {
				return fmt.Errorf("link execution %d to trade %s: %w", exec.ID, res.Trade.ID, err)
			}
			observability.RecordExecutionConsumed()

			if res.Outcome == OutcomeReducedAndClosed {
				slots[exec.InstrumentID] = nil
			} else {
				slots[exec.InstrumentID] = res.Trade
			}
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}

// findOpenTrade reads the open slot for (user, instrument); absence is a
// valid result returned as nil.
func (p *Processor) findOpenTrade(ctx context.Context, trades storage.TradeStore, userID, instrumentID int64) (*domain.Trade, error) {
	t, err := trades.GetOpenByUserInstrument(ctx, userID, instrumentID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find open trade for user %d instrument %d: %w", userID, instrumentID, err)
	}
	return t, nil
}

// persist writes the match result through the trade store and updates the
// batch counters.
func (p *Processor) persist(ctx context.Context, trades storage.TradeStore, res *MatchResult, result *domain.BatchResult) error {
	switch res.Outcome {
	case OutcomeOpenedNew:
		if err := trades.Insert(ctx, res.Trade); err != nil {
			return fmt.Errorf("insert trade %s: %w", res.Trade.ID, err)
		}
		result.TradesOpened++
	case OutcomeExtended:
		if err := trades.Update(ctx, res.Trade); err != nil {
			return fmt.Errorf("update trade %s: %w", res.Trade.ID, err)
		}
		result.TradesExtended++
	case OutcomeReducedOpen:
		if err := trades.Update(ctx, res.Trade); err != nil {
			return fmt.Errorf("update trade %s: %w", res.Trade.ID, err)
		}
		result.TradesReduced++
	case OutcomeReducedAndClosed:
		if err := trades.Update(ctx, res.Trade); err != nil {
			return fmt.Errorf("update trade %s: %w", res.Trade.ID, err)
		}
		result.TradesClosed++
		result.ClosedTrades = append(result.ClosedTrades, res.Trade)
		p.logf("user %d: closed trade %s realized_pnl=%s", result.UserID, res.Trade.ID, res.RealizedPnL)
	default:
		return fmt.Errorf("%w: unknown match outcome %q", ErrInvariantViolation, res.Outcome)
	}
	observability.RecordMatchOutcome(string(res.Outcome))
	return nil
}

// skip records a per-execution error and leaves the execution unconsumed.
func (p *Processor) skip(result *domain.BatchResult, exec *domain.Execution, err error) {
	result.Errors = append(result.Errors, domain.ProcessingError{
		ExecutionID: exec.ID,
		Reason:      err.Error(),
	})
	observability.RecordProcessingError(errorReason(err))
	p.logf("user %d: skipped execution %d: %v", result.UserID, exec.ID, err)
}

func errorReason(err error) string {
	switch {
	case errors.Is(err, ErrReversalNotSupported):
		return "reversal_not_supported"
	case errors.Is(err, ErrInvalidExecution):
		return "invalid_execution"
	default:
		return "other"
	}
}

func (p *Processor) logf(format string, args ...any) {
	if p.verbose {
		p.logger.Printf(format, args...)
	}
}
