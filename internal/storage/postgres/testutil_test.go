package postgres

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"trade-ledger/internal/domain"
)

// setupTestDB creates a PostgreSQL container for testing and applies migrations.
// Returns a cleanup function that must be called after tests complete.
func setupTestDB(t *testing.T) (*Pool, func()) {
	t.Helper()

	ctx := context.Background()

	container, err := postgres.Run(ctx, "postgres:15-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("test"),
		postgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	require.NoError(t, err, "failed to start postgres container")

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err, "failed to get connection string")

	pool, err := NewPool(ctx, dsn)
	require.NoError(t, err, "failed to create pool")

	runMigrations(t, ctx, pool)

	cleanup := func() {
		pool.Close()
		if err := container.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	}

	return pool, cleanup
}

// runMigrations applies the SQL migrations shipped with the migrations
// package. They are read from disk here because importing the migrations
// package from these in-package tests would be an import cycle.
func runMigrations(t *testing.T, ctx context.Context, pool *Pool) {
	t.Helper()

	projectRoot := findProjectRoot(t)
	migrationsDir := filepath.Join(projectRoot, "internal", "storage", "migrations", "postgres")

	entries, err := os.ReadDir(migrationsDir)
	require.NoError(t, err, "failed to read migrations directory")

	var files []string
	for _, entry := range entries {
		if !entry.IsDir() && filepath.Ext(entry.Name()) == ".sql" {
			files = append(files, entry.Name())
		}
	}
	sort.Strings(files)

	for _, file := range files {
		sql, err := os.ReadFile(filepath.Join(migrationsDir, file))
		require.NoError(t, err, "failed to read migration file: %s", file)

		_, err = pool.Exec(ctx, string(sql))
		require.NoError(t, err, "failed to execute migration: %s", file)

		t.Logf("Applied migration: %s", file)
	}
}

// findProjectRoot walks up from current directory to find go.mod.
func findProjectRoot(t *testing.T) string {
	t.Helper()

	dir, err := os.Getwd()
	require.NoError(t, err, "failed to get working directory")

	for {
		goModPath := filepath.Join(dir, "go.mod")
		if _, err := os.Stat(goModPath); err == nil {
			return dir
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			t.Fatal("could not find project root (go.mod)")
		}
		dir = parent
	}
}

var testExecutedAt = time.Date(2024, 1, 15, 14, 30, 0, 0, time.UTC)

// insertTestInstrument registers an equity instrument and returns it.
func insertTestInstrument(t *testing.T, ctx context.Context, pool *Pool, symbol string) *domain.Instrument {
	t.Helper()

	inst := domain.NewEquityInstrument(symbol)
	require.NoError(t, NewInstrumentStore(pool).Insert(ctx, inst))
	return inst
}

// makeTestExecution builds a buy execution on the given instrument.
func makeTestExecution(userID int64, inst *domain.Instrument, offset time.Duration) *domain.Execution {
	return &domain.Execution{
		UserID:         userID,
		InstrumentID:   inst.ID,
		Symbol:         inst.Symbol,
		Side:           domain.SideBuy,
		SignedQuantity: decimal.RequireFromString("100"),
		Price:          decimal.RequireFromString("10.00"),
		ExecutedAt:     testExecutedAt.Add(offset),
	}
}

// makeTestTrade builds an open trade on the given instrument.
func makeTestTrade(id string, userID int64, inst *domain.Instrument) *domain.Trade {
	return &domain.Trade{
		ID:           id,
		UserID:       userID,
		InstrumentID: inst.ID,
		Symbol:       inst.Symbol,
		Direction:    domain.DirectionLong,
		Status:       domain.StatusOpen,
		OpenedAt:     testExecutedAt,
		OpenQuantity: decimal.RequireFromString("100"),
		Entries: []domain.Fill{
			{Time: testExecutedAt, Price: decimal.RequireFromString("10.00"), Quantity: decimal.RequireFromString("100")},
		},
		Exits: []domain.Fill{},
	}
}
