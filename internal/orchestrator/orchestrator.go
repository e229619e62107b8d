// Package orchestrator coordinates consolidation runs across users.
// Flow: discover users with unconsumed executions → consolidate each
// user's batch → archive realized P&L of closed trades.
package orchestrator

import (
	"context"
	"fmt"
	"log"
	"sort"
	"sync"
	"time"

	"trade-ledger/internal/consolidation"
	"trade-ledger/internal/domain"
	"trade-ledger/internal/observability"
	"trade-ledger/internal/storage"
)

const defaultWorkers = 4

// Orchestrator runs the consolidation pipeline. Batches for different
// users run in parallel; within a user everything is sequential inside
// one transaction, so worker count never affects matching results.
type Orchestrator struct {
	runner      storage.BatchTxRunner
	executions  storage.ExecutionStore
	instruments storage.InstrumentStore
	pnlHistory  storage.PnLHistoryStore // optional, nil disables archiving

	workers int
	logger  *log.Logger
	verbose bool
}

// Options for creating Orchestrator.
type Options struct {
	Runner      storage.BatchTxRunner
	Executions  storage.ExecutionStore
	Instruments storage.InstrumentStore
	PnLHistory  storage.PnLHistoryStore // nil skips the archive phase

	Workers int // defaults to 4
	Logger  *log.Logger
	Verbose bool
}

// New creates a new Orchestrator.
func New(opts Options) *Orchestrator {
	workers := opts.Workers
	if workers <= 0 {
		workers = defaultWorkers
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	return &Orchestrator{
		runner:      opts.Runner,
		executions:  opts.Executions,
		instruments: opts.Instruments,
		pnlHistory:  opts.PnLHistory,
		workers:     workers,
		logger:      logger,
		verbose:     opts.Verbose,
	}
}

// RunResult contains aggregated results from one orchestrator run.
type RunResult struct {
	UsersProcessed     int
	TradesOpened       int
	TradesExtended     int
	TradesReduced      int
	TradesClosed       int
	SkippedExecutions  int
	PnLRecordsArchived int
	Errors             []string
}

// Run executes one consolidation pass over every user with unconsumed
// executions. A failed user batch is reported in Errors and does not
// stop the remaining users.
func (o *Orchestrator) Run(ctx context.Context) (*RunResult, error) {
	result := &RunResult{}

	o.log("Phase 1: Discovering users with unconsumed executions...")
	userIDs, err := o.executions.ListUsersWithUnconsumed(ctx)
	if err != nil {
		return nil, fmt.Errorf("phase 1 (discover users) failed: %w", err)
	}
	o.log("  Found %d users", len(userIDs))

	if len(userIDs) == 0 {
		return result, nil
	}

	o.log("Phase 2: Consolidating %d user batches (%d workers)...", len(userIDs), o.workers)
	batches := o.runBatches(ctx, userIDs, result)
	o.log("  Processed %d users (%d errors)", result.UsersProcessed, len(result.Errors))

	if o.pnlHistory != nil {
		o.log("Phase 3: Archiving realized P&L...")
		archived := o.archiveClosedTrades(ctx, batches, result)
		result.PnLRecordsArchived = archived
		o.log("  Archived %d records", archived)
	}

	o.log("Run completed: %d users, %d closed trades, %d skipped executions",
		result.UsersProcessed, result.TradesClosed, result.SkippedExecutions)

	return result, nil
}

// runBatches fans user batches out over a bounded worker pool and folds
// the per-user results into the run result.
func (o *Orchestrator) runBatches(ctx context.Context, userIDs []int64, result *RunResult) []*domain.BatchResult {
	processor := consolidation.NewProcessor(consolidation.Options{
		Runner:      o.runner,
		Instruments: o.instruments,
		Logger:      o.logger,
		Verbose:     o.verbose,
	})

	var (
		mu      sync.Mutex
		wg      sync.WaitGroup
		batches []*domain.BatchResult
	)

	jobs := make(chan int64)
	for i := 0; i < o.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for userID := range jobs {
				start := time.Now()
				batch, err := processor.ProcessBatch(ctx, userID)
				observability.RecordBatchRun(time.Since(start).Seconds(), err != nil)

				mu.Lock()
				if err != nil {
					result.Errors = append(result.Errors, fmt.Sprintf("consolidate user %d: %v", userID, err))
					mu.Unlock()
					continue
				}
				result.UsersProcessed++
				result.TradesOpened += batch.TradesOpened
				result.TradesExtended += batch.TradesExtended
				result.TradesReduced += batch.TradesReduced
				result.TradesClosed += batch.TradesClosed
				result.SkippedExecutions += len(batch.Errors)
				batches = append(batches, batch)
				mu.Unlock()
			}
		}()
	}

	for _, userID := range userIDs {
		jobs <- userID
	}
	close(jobs)
	wg.Wait()

	// Deterministic ordering for the archive phase and for callers.
	sort.Slice(batches, func(i, j int) bool { return batches[i].UserID < batches[j].UserID })
	return batches
}

// archiveClosedTrades writes analytics records for every trade closed in
// this run. Archiving is best-effort: the trades are already committed,
// so a failure here is logged and reported but never rolls anything back.
func (o *Orchestrator) archiveClosedTrades(ctx context.Context, batches []*domain.BatchResult, result *RunResult) int {
	var records []*domain.RealizedPnLRecord
	for _, batch := range batches {
		for _, t := range batch.ClosedTrades {
			records = append(records, pnlRecordFromTrade(t))
		}
	}
	if len(records) == 0 {
		return 0
	}

	if err := o.pnlHistory.InsertBulk(ctx, records); err != nil {
		observability.RecordArchiveError()
		result.Errors = append(result.Errors, fmt.Sprintf("archive realized pnl: %v", err))
		o.logger.Printf("[orchestrator] archive realized pnl: %v", err)
		return 0
	}

	observability.RecordArchivedPnL(len(records))
	return len(records)
}

// pnlRecordFromTrade flattens a closed trade into its analytics row.
// The archive is float64 only; the exact decimal stays in the trade row.
func pnlRecordFromTrade(t *domain.Trade) *domain.RealizedPnLRecord {
	avgEntry, _ := consolidation.AverageFillPrice(t.Entries).Float64()
	avgExit, _ := consolidation.AverageFillPrice(t.Exits).Float64()
	entryQty, _ := t.EntryQuantity().Float64()

	var pnl float64
	if t.RealizedPnL != nil {
		pnl, _ = t.RealizedPnL.Float64()
	}

	closedAt := t.ClosedAt()
	if closedAt.IsZero() {
		closedAt = t.OpenedAt
	}

	return &domain.RealizedPnLRecord{
		TradeID:       t.ID,
		UserID:        t.UserID,
		InstrumentID:  t.InstrumentID,
		Symbol:        t.Symbol,
		Direction:     string(t.Direction),
		OpenedAt:      t.OpenedAt.UnixMilli(),
		ClosedAt:      closedAt.UnixMilli(),
		EntryQuantity: entryQty,
		AvgEntryPrice: avgEntry,
		AvgExitPrice:  avgExit,
		RealizedPnL:   pnl,
		FillCount:     len(t.Entries) + len(t.Exits),
	}
}

func (o *Orchestrator) log(format string, args ...interface{}) {
	if o.verbose {
		o.logger.Printf("[orchestrator] "+format, args...)
	}
}
