package memory

import (
	"context"
	"sort"
	"sync"

	"trade-ledger/internal/domain"
	"trade-ledger/internal/storage"
)

// TradeStore is an in-memory implementation of storage.TradeStore.
type TradeStore struct {
	mu   sync.RWMutex
	data map[string]*domain.Trade // keyed by trade id
}

// NewTradeStore creates a new in-memory trade store.
func NewTradeStore() *TradeStore {
	return &TradeStore{
		data: make(map[string]*domain.Trade),
	}
}

// Insert adds a new trade. Returns ErrDuplicateKey if the trade id or the
// open slot for (user_id, instrument_id) is already taken.
func (s *TradeStore) Insert(_ context.Context, t *domain.Trade) error {
	if t == nil || t.ID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[t.ID]; exists {
		return storage.ErrDuplicateKey
	}
	if t.Status == domain.StatusOpen {
		for _, existing := range s.data {
			if existing.Status == domain.StatusOpen &&
				existing.UserID == t.UserID &&
				existing.InstrumentID == t.InstrumentID {
				return storage.ErrDuplicateKey
			}
		}
	}

	s.data[t.ID] = copyTrade(t)
	return nil
}

// Update rewrites the mutable fields of a trade.
func (s *TradeStore) Update(_ context.Context, t *domain.Trade) error {
	if t == nil || t.ID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[t.ID]; !exists {
		return storage.ErrNotFound
	}

	s.data[t.ID] = copyTrade(t)
	return nil
}

// GetByID retrieves a trade by its id. Returns ErrNotFound if not exists.
func (s *TradeStore) GetByID(_ context.Context, tradeID string) (*domain.Trade, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, exists := s.data[tradeID]
	if !exists {
		return nil, storage.ErrNotFound
	}

	return copyTrade(t), nil
}

// GetOpenByUserInstrument retrieves the single open trade for a
// (user, instrument) pair. Returns ErrNotFound when no position is open.
func (s *TradeStore) GetOpenByUserInstrument(_ context.Context, userID, instrumentID int64) (*domain.Trade, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, t := range s.data {
		if t.Status == domain.StatusOpen && t.UserID == userID && t.InstrumentID == instrumentID {
			return copyTrade(t), nil
		}
	}

	return nil, storage.ErrNotFound
}

// GetByUser retrieves all trades for a user, ordered by opened_at ASC.
func (s *TradeStore) GetByUser(_ context.Context, userID int64) ([]*domain.Trade, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.Trade
	for _, t := range s.data {
		if t.UserID == userID {
			result = append(result, copyTrade(t))
		}
	}

	sortTrades(result)
	return result, nil
}

// GetClosedByUser retrieves the closed trades for a user, ordered by
// opened_at ASC.
func (s *TradeStore) GetClosedByUser(_ context.Context, userID int64) ([]*domain.Trade, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.Trade
	for _, t := range s.data {
		if t.UserID == userID && t.Status == domain.StatusClosed {
			result = append(result, copyTrade(t))
		}
	}

	sortTrades(result)
	return result, nil
}

// snapshot returns a deep copy of the store contents for rollback.
func (s *TradeStore) snapshot() map[string]*domain.Trade {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := make(map[string]*domain.Trade, len(s.data))
	for id, t := range s.data {
		snap[id] = copyTrade(t)
	}
	return snap
}

// restore replaces the store contents with a previous snapshot.
func (s *TradeStore) restore(snap map[string]*domain.Trade) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.data = snap
}

// copyTrade deep-copies a trade, including its fill slices.
func copyTrade(t *domain.Trade) *domain.Trade {
	copy := *t
	copy.Entries = append([]domain.Fill(nil), t.Entries...)
	copy.Exits = append([]domain.Fill(nil), t.Exits...)
	if t.RealizedPnL != nil {
		pnl := *t.RealizedPnL
		copy.RealizedPnL = &pnl
	}
	return &copy
}

func sortTrades(trades []*domain.Trade) {
	sort.Slice(trades, func(i, j int) bool {
		if trades[i].OpenedAt.Equal(trades[j].OpenedAt) {
			return trades[i].ID < trades[j].ID
		}
		return trades[i].OpenedAt.Before(trades[j].OpenedAt)
	})
}

var _ storage.TradeStore = (*TradeStore)(nil)
