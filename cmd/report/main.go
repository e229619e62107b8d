// Package main provides the report generation entry point.
// Produces per-user realized P&L reports as Markdown and CSV.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"trade-ledger/internal/reporting"
	pgstore "trade-ledger/internal/storage/postgres"
)

func main() {
	postgresDSN := flag.String("postgres-dsn", os.Getenv("POSTGRES_DSN"), "PostgreSQL connection string")
	userID := flag.Int64("user", 0, "User ID to report on")
	outputDir := flag.String("output-dir", "output", "Output directory for generated files")
	flag.Parse()

	logger := log.New(os.Stdout, "[report] ", log.LstdFlags)

	if *postgresDSN == "" {
		logger.Fatal("--postgres-dsn is required")
	}
	if *userID == 0 {
		logger.Fatal("--user is required")
	}

	ctx := context.Background()

	pool, err := pgstore.NewPool(ctx, *postgresDSN)
	if err != nil {
		logger.Fatalf("Failed to connect to postgres: %v", err)
	}
	defer pool.Close()

	generator := reporting.NewGenerator(pgstore.NewTradeStore(pool))
	report, err := generator.GenerateForUser(ctx, *userID)
	if err != nil {
		logger.Fatalf("Generate report: %v", err)
	}

	if err := os.MkdirAll(*outputDir, 0755); err != nil {
		logger.Fatalf("Create output directory: %v", err)
	}

	mdPath := filepath.Join(*outputDir, fmt.Sprintf("report_user_%d.md", *userID))
	if err := os.WriteFile(mdPath, []byte(reporting.RenderMarkdown(report)), 0644); err != nil {
		logger.Fatalf("Write %s: %v", mdPath, err)
	}

	csvPath := filepath.Join(*outputDir, fmt.Sprintf("trades_user_%d.csv", *userID))
	if err := os.WriteFile(csvPath, []byte(reporting.RenderCSV(report.Trades)), 0644); err != nil {
		logger.Fatalf("Write %s: %v", csvPath, err)
	}

	fmt.Println("Report generated:")
	fmt.Printf("  - %s\n", mdPath)
	fmt.Printf("  - %s\n", csvPath)
	fmt.Printf("  Closed trades: %d, total realized P&L: %s\n",
		report.Summary.ClosedTrades, report.Summary.TotalRealizedPnL)
}
