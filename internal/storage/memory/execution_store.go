package memory

import (
	"context"
	"sort"
	"sync"

	"trade-ledger/internal/domain"
	"trade-ledger/internal/storage"
)

// ExecutionStore is an in-memory implementation of storage.ExecutionStore.
type ExecutionStore struct {
	mu     sync.RWMutex
	data   map[int64]*domain.Execution // keyed by id
	nextID int64
}

// NewExecutionStore creates a new in-memory execution store.
func NewExecutionStore() *ExecutionStore {
	return &ExecutionStore{
		data:   make(map[int64]*domain.Execution),
		nextID: 1,
	}
}

// Insert adds a new execution and assigns its ID.
func (s *ExecutionStore) Insert(_ context.Context, e *domain.Execution) error {
	if e == nil || e.UserID == 0 {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.insertLocked(e)
	return nil
}

// InsertBulk adds multiple executions atomically.
func (s *ExecutionStore) InsertBulk(_ context.Context, execs []*domain.Execution) error {
	if len(execs) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, e := range execs {
		if e == nil || e.UserID == 0 {
			return storage.ErrInvalidInput
		}
	}
	for _, e := range execs {
		s.insertLocked(e)
	}
	return nil
}

func (s *ExecutionStore) insertLocked(e *domain.Execution) {
	if e.ID == 0 {
		e.ID = s.nextID
		s.nextID++
	} else if e.ID >= s.nextID {
		s.nextID = e.ID + 1
	}
	copy := *e
	s.data[e.ID] = &copy
}

// GetUnconsumedByUser retrieves unconsumed executions for a user, ordered
// by executed_at ASC, id ASC.
func (s *ExecutionStore) GetUnconsumedByUser(_ context.Context, userID int64) ([]*domain.Execution, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.Execution
	for _, e := range s.data {
		if e.UserID == userID && e.TradeID == nil {
			copy := *e
			result = append(result, &copy)
		}
	}

	sortExecutions(result)
	return result, nil
}

// GetByTradeID retrieves the executions linked to a trade.
func (s *ExecutionStore) GetByTradeID(_ context.Context, tradeID string) ([]*domain.Execution, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.Execution
	for _, e := range s.data {
		if e.TradeID != nil && *e.TradeID == tradeID {
			copy := *e
			result = append(result, &copy)
		}
	}

	sortExecutions(result)
	return result, nil
}

// LinkToTrade sets trade_id on an unconsumed execution.
func (s *ExecutionStore) LinkToTrade(_ context.Context, executionID int64, tradeID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, exists := s.data[executionID]
	if !exists {
		return storage.ErrNotFound
	}
	if e.TradeID != nil {
		return storage.ErrAlreadyConsumed
	}

	e.TradeID = &tradeID
	return nil
}

// ListUsersWithUnconsumed returns distinct user ids with unconsumed
// executions, sorted ascending.
func (s *ExecutionStore) ListUsersWithUnconsumed(_ context.Context) ([]int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	seen := make(map[int64]struct{})
	for _, e := range s.data {
		if e.TradeID == nil {
			seen[e.UserID] = struct{}{}
		}
	}

	users := make([]int64, 0, len(seen))
	for id := range seen {
		users = append(users, id)
	}
	sort.Slice(users, func(i, j int) bool { return users[i] < users[j] })

	return users, nil
}

// snapshot returns a deep copy of the store contents for rollback.
func (s *ExecutionStore) snapshot() map[int64]*domain.Execution {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := make(map[int64]*domain.Execution, len(s.data))
	for id, e := range s.data {
		copy := *e
		snap[id] = &copy
	}
	return snap
}

// restore replaces the store contents with a previous snapshot.
func (s *ExecutionStore) restore(snap map[int64]*domain.Execution) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.data = snap
}

func sortExecutions(execs []*domain.Execution) {
	sort.Slice(execs, func(i, j int) bool {
		if execs[i].ExecutedAt.Equal(execs[j].ExecutedAt) {
			return execs[i].ID < execs[j].ID
		}
		return execs[i].ExecutedAt.Before(execs[j].ExecutedAt)
	})
}

var _ storage.ExecutionStore = (*ExecutionStore)(nil)
