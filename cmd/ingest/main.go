// Package main provides the statement ingestion entry point.
// Loads a broker statement CSV into the executions table.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"trade-ledger/internal/ingestion"
	"trade-ledger/internal/storage/migrations"
	pgstore "trade-ledger/internal/storage/postgres"
)

func main() {
	postgresDSN := flag.String("postgres-dsn", os.Getenv("POSTGRES_DSN"), "PostgreSQL connection string")
	input := flag.String("input", "", "Statement CSV path (\"-\" for stdin)")
	verbose := flag.Bool("verbose", false, "Verbose output")
	flag.Parse()

	logger := log.New(os.Stdout, "[ingest] ", log.LstdFlags)

	if *postgresDSN == "" {
		logger.Fatal("--postgres-dsn is required")
	}
	if *input == "" {
		logger.Fatal("--input is required")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		fmt.Printf("\nReceived signal %v, cancelling ingest...\n", sig)
		cancel()
	}()

	pool, err := pgstore.NewPool(ctx, *postgresDSN)
	if err != nil {
		logger.Fatalf("Failed to connect to postgres: %v", err)
	}
	defer pool.Close()

	if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
		logger.Fatalf("Failed to run migrations: %v", err)
	}

	src, err := openInput(*input)
	if err != nil {
		logger.Fatalf("Failed to open input: %v", err)
	}
	defer src.Close()

	runner := ingestion.NewRunner(ingestion.RunnerOptions{
		Executions:  pgstore.NewExecutionStore(pool),
		Instruments: pgstore.NewInstrumentStore(pool),
		Logger:      logger,
		Verbose:     *verbose,
	})

	n, err := runner.IngestStatement(ctx, src)
	if err != nil {
		logger.Fatalf("Ingest error: %v", err)
	}

	fmt.Printf("Ingested %d executions\n", n)
}

func openInput(path string) (io.ReadCloser, error) {
	if path == "-" {
		return io.NopCloser(os.Stdin), nil
	}
	return os.Open(path)
}
