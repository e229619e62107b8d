package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"trade-ledger/internal/domain"
	"trade-ledger/internal/storage"
)

var testTime = time.Date(2024, 1, 15, 14, 30, 0, 0, time.UTC)

func makeExecution(userID int64, offset time.Duration) *domain.Execution {
	return &domain.Execution{
		UserID:         userID,
		InstrumentID:   1,
		Symbol:         "AAPL",
		Side:           domain.SideBuy,
		SignedQuantity: decimal.RequireFromString("100"),
		Price:          decimal.RequireFromString("10.00"),
		ExecutedAt:     testTime.Add(offset),
	}
}

func TestExecutionStore_InsertAssignsID(t *testing.T) {
	store := NewExecutionStore()
	ctx := context.Background()

	first := makeExecution(1, 0)
	second := makeExecution(1, time.Minute)

	if err := store.Insert(ctx, first); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}
	if err := store.Insert(ctx, second); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	if first.ID == 0 || second.ID == 0 {
		t.Error("expected assigned ids")
	}
	if first.ID == second.ID {
		t.Errorf("expected distinct ids, got %d twice", first.ID)
	}
}

func TestExecutionStore_InsertInvalid(t *testing.T) {
	store := NewExecutionStore()
	ctx := context.Background()

	err := store.Insert(ctx, &domain.Execution{})
	if !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput for missing user, got %v", err)
	}
}

func TestExecutionStore_GetUnconsumedByUserOrdering(t *testing.T) {
	store := NewExecutionStore()
	ctx := context.Background()

	// Insert out of timestamp order.
	late := makeExecution(1, 2*time.Minute)
	early := makeExecution(1, 0)
	other := makeExecution(2, time.Minute)

	for _, e := range []*domain.Execution{late, early, other} {
		if err := store.Insert(ctx, e); err != nil {
			t.Fatalf("Insert failed: %v", err)
		}
	}

	execs, err := store.GetUnconsumedByUser(ctx, 1)
	if err != nil {
		t.Fatalf("GetUnconsumedByUser failed: %v", err)
	}
	if len(execs) != 2 {
		t.Fatalf("expected 2 executions for user 1, got %d", len(execs))
	}
	if execs[0].ID != early.ID || execs[1].ID != late.ID {
		t.Errorf("expected timestamp order %d,%d got %d,%d", early.ID, late.ID, execs[0].ID, execs[1].ID)
	}
}

func TestExecutionStore_TimestampTieBrokenByID(t *testing.T) {
	store := NewExecutionStore()
	ctx := context.Background()

	first := makeExecution(1, 0)
	second := makeExecution(1, 0) // same instant

	if err := store.InsertBulk(ctx, []*domain.Execution{first, second}); err != nil {
		t.Fatalf("InsertBulk failed: %v", err)
	}

	execs, err := store.GetUnconsumedByUser(ctx, 1)
	if err != nil {
		t.Fatalf("GetUnconsumedByUser failed: %v", err)
	}
	if execs[0].ID >= execs[1].ID {
		t.Errorf("expected id order on timestamp tie, got %d before %d", execs[0].ID, execs[1].ID)
	}
}

func TestExecutionStore_LinkToTrade(t *testing.T) {
	store := NewExecutionStore()
	ctx := context.Background()

	exec := makeExecution(1, 0)
	if err := store.Insert(ctx, exec); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	if err := store.LinkToTrade(ctx, exec.ID, "trade-1"); err != nil {
		t.Fatalf("LinkToTrade failed: %v", err)
	}

	// Linked executions disappear from the unconsumed set.
	unconsumed, err := store.GetUnconsumedByUser(ctx, 1)
	if err != nil {
		t.Fatalf("GetUnconsumedByUser failed: %v", err)
	}
	if len(unconsumed) != 0 {
		t.Errorf("expected no unconsumed executions, got %d", len(unconsumed))
	}

	linked, err := store.GetByTradeID(ctx, "trade-1")
	if err != nil {
		t.Fatalf("GetByTradeID failed: %v", err)
	}
	if len(linked) != 1 || linked[0].ID != exec.ID {
		t.Errorf("expected execution linked to trade-1, got %v", linked)
	}
}

func TestExecutionStore_LinkToTradeAlreadyConsumed(t *testing.T) {
	store := NewExecutionStore()
	ctx := context.Background()

	exec := makeExecution(1, 0)
	if err := store.Insert(ctx, exec); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}
	if err := store.LinkToTrade(ctx, exec.ID, "trade-1"); err != nil {
		t.Fatalf("LinkToTrade failed: %v", err)
	}

	err := store.LinkToTrade(ctx, exec.ID, "trade-2")
	if !errors.Is(err, storage.ErrAlreadyConsumed) {
		t.Errorf("expected ErrAlreadyConsumed, got %v", err)
	}
}

func TestExecutionStore_LinkToTradeNotFound(t *testing.T) {
	store := NewExecutionStore()

	err := store.LinkToTrade(context.Background(), 999, "trade-1")
	if !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestExecutionStore_ListUsersWithUnconsumed(t *testing.T) {
	store := NewExecutionStore()
	ctx := context.Background()

	consumed := makeExecution(3, 0)
	execs := []*domain.Execution{makeExecution(2, 0), makeExecution(1, 0), consumed}
	if err := store.InsertBulk(ctx, execs); err != nil {
		t.Fatalf("InsertBulk failed: %v", err)
	}
	if err := store.LinkToTrade(ctx, consumed.ID, "trade-1"); err != nil {
		t.Fatalf("LinkToTrade failed: %v", err)
	}

	users, err := store.ListUsersWithUnconsumed(ctx)
	if err != nil {
		t.Fatalf("ListUsersWithUnconsumed failed: %v", err)
	}
	if len(users) != 2 || users[0] != 1 || users[1] != 2 {
		t.Errorf("expected sorted users [1 2], got %v", users)
	}
}

func TestExecutionStore_DefensiveCopies(t *testing.T) {
	store := NewExecutionStore()
	ctx := context.Background()

	exec := makeExecution(1, 0)
	if err := store.Insert(ctx, exec); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	got, err := store.GetUnconsumedByUser(ctx, 1)
	if err != nil {
		t.Fatalf("GetUnconsumedByUser failed: %v", err)
	}

	// Mutating the returned copy must not leak into the store.
	tradeID := "mutated"
	got[0].TradeID = &tradeID

	again, err := store.GetUnconsumedByUser(ctx, 1)
	if err != nil {
		t.Fatalf("GetUnconsumedByUser failed: %v", err)
	}
	if len(again) != 1 {
		t.Fatalf("expected the execution still unconsumed, got %d", len(again))
	}
}
