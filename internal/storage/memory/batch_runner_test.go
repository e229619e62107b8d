package memory

import (
	"context"
	"errors"
	"testing"

	"trade-ledger/internal/storage"
)

func TestBatchRunner_CommitPersists(t *testing.T) {
	executions := NewExecutionStore()
	trades := NewTradeStore()
	runner := NewBatchRunner(executions, trades)
	ctx := context.Background()

	exec := makeExecution(1, 0)
	if err := executions.Insert(ctx, exec); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	err := runner.WithinBatchTx(ctx, func(s storage.TxStores) error {
		if err := s.Trades.Insert(ctx, makeOpenTrade("t1", 1, 1)); err != nil {
			return err
		}
		return s.Executions.LinkToTrade(ctx, exec.ID, "t1")
	})
	if err != nil {
		t.Fatalf("WithinBatchTx failed: %v", err)
	}

	if _, err := trades.GetByID(ctx, "t1"); err != nil {
		t.Errorf("expected trade committed: %v", err)
	}
	unconsumed, _ := executions.GetUnconsumedByUser(ctx, 1)
	if len(unconsumed) != 0 {
		t.Errorf("expected execution consumed, got %d unconsumed", len(unconsumed))
	}
}

func TestBatchRunner_ErrorRollsBackBothStores(t *testing.T) {
	executions := NewExecutionStore()
	trades := NewTradeStore()
	runner := NewBatchRunner(executions, trades)
	ctx := context.Background()

	exec := makeExecution(1, 0)
	if err := executions.Insert(ctx, exec); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	boom := errors.New("boom")
	err := runner.WithinBatchTx(ctx, func(s storage.TxStores) error {
		if err := s.Trades.Insert(ctx, makeOpenTrade("t1", 1, 1)); err != nil {
			return err
		}
		if err := s.Executions.LinkToTrade(ctx, exec.ID, "t1"); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected the batch error returned, got %v", err)
	}

	// Everything written inside the batch is gone.
	if _, err := trades.GetByID(ctx, "t1"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("expected trade rolled back, got %v", err)
	}
	unconsumed, _ := executions.GetUnconsumedByUser(ctx, 1)
	if len(unconsumed) != 1 {
		t.Errorf("expected execution unconsumed after rollback, got %d", len(unconsumed))
	}
}

func TestBatchRunner_CancelledContext(t *testing.T) {
	runner := NewBatchRunner(NewExecutionStore(), NewTradeStore())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	err := runner.WithinBatchTx(ctx, func(storage.TxStores) error {
		called = true
		return nil
	})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	if called {
		t.Error("expected fn not called after cancellation")
	}
}
