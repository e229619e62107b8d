// Package main provides the long-running consolidation service:
// - Consolidation (scheduled): discover users → consolidate → archive P&L
// - HTTP: /health, /metrics, /status
package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"trade-ledger/internal/observability"
	"trade-ledger/internal/orchestrator"
	"trade-ledger/internal/storage"
	chstore "trade-ledger/internal/storage/clickhouse"
	"trade-ledger/internal/storage/migrations"
	pgstore "trade-ledger/internal/storage/postgres"
)

// Server holds the scheduled consolidation service.
type Server struct {
	orch     *orchestrator.Orchestrator
	interval time.Duration
	logger   *log.Logger

	// State
	mu          sync.Mutex
	startedAt   time.Time
	lastRun     time.Time
	runRunning  bool
	runs        int
	lastClosed  int
	lastSkipped int
}

func main() {
	postgresDSN := flag.String("postgres-dsn", os.Getenv("POSTGRES_DSN"), "PostgreSQL connection string")
	clickhouseDSN := flag.String("clickhouse-dsn", os.Getenv("CLICKHOUSE_DSN"), "ClickHouse connection string (optional, enables P&L archiving)")
	interval := flag.Duration("interval", 1*time.Minute, "Consolidation run interval")
	workers := flag.Int("workers", 4, "Concurrent user batches")
	httpAddr := flag.String("http-addr", ":9090", "HTTP address for health/metrics/status")
	verbose := flag.Bool("verbose", false, "Verbose output")
	flag.Parse()

	logger := log.New(os.Stdout, "[server] ", log.LstdFlags|log.Lshortfile)

	if *postgresDSN == "" {
		logger.Fatal("--postgres-dsn is required")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool, err := pgstore.NewPool(ctx, *postgresDSN)
	if err != nil {
		logger.Fatalf("Failed to connect to postgres: %v", err)
	}
	defer pool.Close()

	if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
		logger.Fatalf("Failed to run postgres migrations: %v", err)
	}

	var pnlHistory storage.PnLHistoryStore
	if *clickhouseDSN != "" {
		chConn, err := chstore.NewConn(ctx, *clickhouseDSN)
		if err != nil {
			logger.Fatalf("Failed to connect to clickhouse: %v", err)
		}
		defer chConn.Close()
		if err := migrations.RunClickhouseMigrations(ctx, chConn); err != nil {
			logger.Fatalf("Failed to run clickhouse migrations: %v", err)
		}
		pnlHistory = chstore.NewPnLHistoryStore(chConn)
	}

	server := &Server{
		orch: orchestrator.New(orchestrator.Options{
			Runner:      pgstore.NewBatchRunner(pool),
			Executions:  pgstore.NewExecutionStore(pool),
			Instruments: pgstore.NewInstrumentStore(pool),
			PnLHistory:  pnlHistory,
			Workers:     *workers,
			Logger:      logger,
			Verbose:     *verbose,
		}),
		interval:  *interval,
		logger:    logger,
		startedAt: time.Now(),
	}

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Printf("Received signal %v, initiating graceful shutdown...", sig)
		cancel()

		select {
		case sig := <-sigCh:
			logger.Printf("Received second signal %v, forcing immediate shutdown", sig)
			os.Exit(1)
		case <-time.After(30 * time.Second):
			logger.Println("Graceful shutdown timed out after 30s, forcing exit")
			os.Exit(1)
		}
	}()

	go server.startHTTPServer(*httpAddr)

	if err := server.Run(ctx); err != nil && err != context.Canceled {
		logger.Fatalf("Server error: %v", err)
	}

	logger.Println("Shutdown complete")
}

// Run executes consolidation on schedule until the context is cancelled.
func (s *Server) Run(ctx context.Context) error {
	s.logger.Printf("Starting consolidation scheduler (interval: %v)...", s.interval)

	// Run immediately on start
	s.runOnce(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.runOnce(ctx)
		}
	}
}

// runOnce executes a single consolidation pass.
func (s *Server) runOnce(ctx context.Context) {
	s.mu.Lock()
	if s.runRunning {
		s.mu.Unlock()
		s.logger.Println("Consolidation already running, skipping...")
		return
	}
	s.runRunning = true
	s.mu.Unlock()

	start := time.Now()
	result, err := s.orch.Run(ctx)

	s.mu.Lock()
	s.runRunning = false
	s.lastRun = time.Now()
	s.runs++
	if result != nil {
		s.lastClosed = result.TradesClosed
		s.lastSkipped = result.SkippedExecutions
	}
	s.mu.Unlock()

	if err != nil {
		s.logger.Printf("Consolidation error: %v", err)
		return
	}

	if result.UsersProcessed > 0 || len(result.Errors) > 0 {
		s.logger.Printf("Consolidation completed in %v: %d users, %d closed, %d skipped, %d errors",
			time.Since(start), result.UsersProcessed, result.TradesClosed,
			result.SkippedExecutions, len(result.Errors))
	}
	for _, e := range result.Errors {
		s.logger.Printf("  error: %s", e)
	}
}

// startHTTPServer starts the HTTP server for health/metrics/status.
func (s *Server) startHTTPServer(addr string) {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	mux.Handle("/metrics", observability.Handler())

	mux.HandleFunc("/status", s.handleStatus)

	s.logger.Printf("Starting HTTP server on %s", addr)
	if err := http.ListenAndServe(addr, mux); err != nil && err != http.ErrServerClosed {
		s.logger.Printf("HTTP server error: %v", err)
	}
}

// StatusResponse is the JSON response for /status endpoint.
type StatusResponse struct {
	Status      string    `json:"status"`
	Uptime      string    `json:"uptime"`
	LastRun     time.Time `json:"last_run,omitempty"`
	Runs        int       `json:"runs"`
	RunRunning  bool      `json:"run_running"`
	LastClosed  int       `json:"last_closed"`
	LastSkipped int       `json:"last_skipped"`
}

// handleStatus returns server status as JSON.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	resp := StatusResponse{
		Status:      "running",
		Uptime:      time.Since(s.startedAt).String(),
		LastRun:     s.lastRun,
		Runs:        s.runs,
		RunRunning:  s.runRunning,
		LastClosed:  s.lastClosed,
		LastSkipped: s.lastSkipped,
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}
