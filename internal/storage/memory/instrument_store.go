package memory

import (
	"context"
	"sync"

	"trade-ledger/internal/domain"
	"trade-ledger/internal/storage"
)

// InstrumentStore is an in-memory implementation of storage.InstrumentStore.
type InstrumentStore struct {
	mu       sync.RWMutex
	data     map[int64]*domain.Instrument // keyed by id
	bySymbol map[string]int64
	nextID   int64
}

// NewInstrumentStore creates a new in-memory instrument store.
func NewInstrumentStore() *InstrumentStore {
	return &InstrumentStore{
		data:     make(map[int64]*domain.Instrument),
		bySymbol: make(map[string]int64),
		nextID:   1,
	}
}

// Insert adds a new instrument and assigns its ID. Returns ErrDuplicateKey
// if the symbol exists.
func (s *InstrumentStore) Insert(_ context.Context, inst *domain.Instrument) error {
	if inst == nil || inst.Symbol == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.bySymbol[inst.Symbol]; exists {
		return storage.ErrDuplicateKey
	}

	if inst.ID == 0 {
		inst.ID = s.nextID
		s.nextID++
	} else if inst.ID >= s.nextID {
		s.nextID = inst.ID + 1
	}

	copy := *inst
	s.data[inst.ID] = &copy
	s.bySymbol[inst.Symbol] = inst.ID
	return nil
}

// GetByID retrieves an instrument by id. Returns ErrNotFound if not exists.
func (s *InstrumentStore) GetByID(_ context.Context, id int64) (*domain.Instrument, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	inst, exists := s.data[id]
	if !exists {
		return nil, storage.ErrNotFound
	}

	copy := *inst
	return &copy, nil
}

// GetBySymbol retrieves an instrument by symbol. Returns ErrNotFound if
// not exists.
func (s *InstrumentStore) GetBySymbol(_ context.Context, symbol string) (*domain.Instrument, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, exists := s.bySymbol[symbol]
	if !exists {
		return nil, storage.ErrNotFound
	}

	copy := *s.data[id]
	return &copy, nil
}

var _ storage.InstrumentStore = (*InstrumentStore)(nil)
