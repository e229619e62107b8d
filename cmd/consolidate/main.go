// Package main provides the one-shot consolidation entry point.
// Executes: discover users → consolidate batches → archive realized P&L
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"trade-ledger/internal/ingestion"
	"trade-ledger/internal/orchestrator"
	"trade-ledger/internal/storage"
	chstore "trade-ledger/internal/storage/clickhouse"
	"trade-ledger/internal/storage/memory"
	"trade-ledger/internal/storage/migrations"
	pgstore "trade-ledger/internal/storage/postgres"
)

func main() {
	postgresDSN := flag.String("postgres-dsn", os.Getenv("POSTGRES_DSN"), "PostgreSQL connection string")
	clickhouseDSN := flag.String("clickhouse-dsn", os.Getenv("CLICKHOUSE_DSN"), "ClickHouse connection string (optional, enables P&L archiving)")
	useMemory := flag.Bool("use-memory", false, "Use in-memory storage instead of PostgreSQL")
	input := flag.String("input", "", "Statement CSV to ingest before consolidating (required with -use-memory)")
	workers := flag.Int("workers", 4, "Concurrent user batches")
	verbose := flag.Bool("verbose", false, "Verbose output")
	flag.Parse()

	logger := log.New(os.Stdout, "[consolidate] ", log.LstdFlags)

	if !*useMemory && *postgresDSN == "" {
		logger.Fatal("--postgres-dsn is required (use --use-memory for in-memory storage)")
	}
	if *useMemory && *input == "" {
		logger.Fatal("--input is required with --use-memory (nothing to consolidate otherwise)")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		fmt.Printf("\nReceived signal %v, cancelling run...\n", sig)
		cancel()
	}()

	stores, cleanup, err := createStores(ctx, *postgresDSN, *clickhouseDSN, *useMemory)
	if err != nil {
		logger.Fatalf("Failed to create stores: %v", err)
	}
	defer cleanup()

	if *input != "" {
		if err := ingestInput(ctx, stores, *input, logger, *verbose); err != nil {
			logger.Fatalf("Ingest error: %v", err)
		}
	}

	orch := orchestrator.New(orchestrator.Options{
		Runner:      stores.runner,
		Executions:  stores.executions,
		Instruments: stores.instruments,
		PnLHistory:  stores.pnlHistory,
		Workers:     *workers,
		Logger:      logger,
		Verbose:     *verbose,
	})

	result, err := orch.Run(ctx)
	if err != nil {
		logger.Fatalf("Orchestrator error: %v", err)
	}

	fmt.Println("Consolidation completed:")
	fmt.Printf("  Users:    %d\n", result.UsersProcessed)
	fmt.Printf("  Opened:   %d\n", result.TradesOpened)
	fmt.Printf("  Extended: %d\n", result.TradesExtended)
	fmt.Printf("  Reduced:  %d\n", result.TradesReduced)
	fmt.Printf("  Closed:   %d\n", result.TradesClosed)
	fmt.Printf("  Skipped:  %d\n", result.SkippedExecutions)
	if result.PnLRecordsArchived > 0 {
		fmt.Printf("  Archived: %d\n", result.PnLRecordsArchived)
	}
	if len(result.Errors) > 0 {
		fmt.Printf("  Errors:   %d\n", len(result.Errors))
		for _, e := range result.Errors {
			fmt.Printf("    - %s\n", e)
		}
		os.Exit(1)
	}
}

// allStores holds the storage implementations for one run.
type allStores struct {
	runner      storage.BatchTxRunner
	executions  storage.ExecutionStore
	instruments storage.InstrumentStore
	pnlHistory  storage.PnLHistoryStore // nil when no ClickHouse configured
}

// createStores creates stores and applies migrations.
func createStores(ctx context.Context, postgresDSN, clickhouseDSN string, useMemory bool) (*allStores, func(), error) {
	if useMemory {
		executions := memory.NewExecutionStore()
		trades := memory.NewTradeStore()
		return &allStores{
			runner:      memory.NewBatchRunner(executions, trades),
			executions:  executions,
			instruments: memory.NewInstrumentStore(),
			pnlHistory:  memory.NewPnLHistoryStore(),
		}, func() {}, nil
	}

	pool, err := pgstore.NewPool(ctx, postgresDSN)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to postgres: %w", err)
	}
	if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("run postgres migrations: %w", err)
	}

	stores := &allStores{
		runner:      pgstore.NewBatchRunner(pool),
		executions:  pgstore.NewExecutionStore(pool),
		instruments: pgstore.NewInstrumentStore(pool),
	}
	cleanup := func() { pool.Close() }

	if clickhouseDSN != "" {
		chConn, err := chstore.NewConn(ctx, clickhouseDSN)
		if err != nil {
			pool.Close()
			return nil, nil, fmt.Errorf("connect to clickhouse: %w", err)
		}
		if err := migrations.RunClickhouseMigrations(ctx, chConn); err != nil {
			chConn.Close()
			pool.Close()
			return nil, nil, fmt.Errorf("run clickhouse migrations: %w", err)
		}
		stores.pnlHistory = chstore.NewPnLHistoryStore(chConn)
		cleanup = func() {
			chConn.Close()
			pool.Close()
		}
	}

	return stores, cleanup, nil
}

// ingestInput loads a statement CSV before consolidating.
func ingestInput(ctx context.Context, stores *allStores, path string, logger *log.Logger, verbose bool) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open statement %s: %w", path, err)
	}
	defer f.Close()

	runner := ingestion.NewRunner(ingestion.RunnerOptions{
		Executions:  stores.executions,
		Instruments: stores.instruments,
		Logger:      logger,
		Verbose:     verbose,
	})

	n, err := runner.IngestStatement(ctx, f)
	if err != nil {
		return err
	}
	fmt.Printf("Ingested %d executions from %s\n", n, path)
	return nil
}
