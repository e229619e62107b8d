package memory

import (
	"context"
	"sort"
	"sync"

	"trade-ledger/internal/domain"
	"trade-ledger/internal/storage"
)

// PnLHistoryStore is an in-memory implementation of storage.PnLHistoryStore.
type PnLHistoryStore struct {
	mu   sync.RWMutex
	data []*domain.RealizedPnLRecord
}

// NewPnLHistoryStore creates a new in-memory realized P&L archive.
func NewPnLHistoryStore() *PnLHistoryStore {
	return &PnLHistoryStore{}
}

// InsertBulk appends realized P&L records.
func (s *PnLHistoryStore) InsertBulk(_ context.Context, records []*domain.RealizedPnLRecord) error {
	if len(records) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, r := range records {
		if r == nil || r.TradeID == "" {
			return storage.ErrInvalidInput
		}
		copy := *r
		s.data = append(s.data, &copy)
	}
	return nil
}

// GetByUser retrieves archived records for a user, ordered by closed_at ASC.
func (s *PnLHistoryStore) GetByUser(_ context.Context, userID int64) ([]*domain.RealizedPnLRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.RealizedPnLRecord
	for _, r := range s.data {
		if r.UserID == userID {
			copy := *r
			result = append(result, &copy)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].ClosedAt < result[j].ClosedAt
	})

	return result, nil
}

var _ storage.PnLHistoryStore = (*PnLHistoryStore)(nil)
