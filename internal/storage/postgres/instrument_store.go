package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"trade-ledger/internal/domain"
	"trade-ledger/internal/storage"
)

// InstrumentStore implements storage.InstrumentStore using PostgreSQL.
type InstrumentStore struct {
	db querier
}

// NewInstrumentStore creates a new InstrumentStore.
func NewInstrumentStore(pool *Pool) *InstrumentStore {
	return &InstrumentStore{db: pool}
}

// Compile-time interface check.
var _ storage.InstrumentStore = (*InstrumentStore)(nil)

// Insert adds a new instrument and assigns its ID. Returns ErrDuplicateKey
// if the symbol exists.
func (s *InstrumentStore) Insert(ctx context.Context, inst *domain.Instrument) error {
	query := `
		INSERT INTO instruments (symbol, kind, multiplier, commission_per_contract)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`

	err := s.db.QueryRow(ctx, query,
		inst.Symbol, string(inst.Kind), inst.Multiplier, inst.CommissionPerContract,
	).Scan(&inst.ID)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert instrument: %w", err)
	}
	return nil
}

// GetByID retrieves an instrument by id. Returns ErrNotFound if not exists.
func (s *InstrumentStore) GetByID(ctx context.Context, id int64) (*domain.Instrument, error) {
	query := `
		SELECT id, symbol, kind, multiplier, commission_per_contract
		FROM instruments
		WHERE id = $1
	`

	inst, err := scanInstrument(s.db.QueryRow(ctx, query, id))
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get instrument by id: %w", err)
	}
	return inst, nil
}

// GetBySymbol retrieves an instrument by symbol. Returns ErrNotFound if
// not exists.
func (s *InstrumentStore) GetBySymbol(ctx context.Context, symbol string) (*domain.Instrument, error) {
	query := `
		SELECT id, symbol, kind, multiplier, commission_per_contract
		FROM instruments
		WHERE symbol = $1
	`

	inst, err := scanInstrument(s.db.QueryRow(ctx, query, symbol))
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get instrument by symbol: %w", err)
	}
	return inst, nil
}

// scanInstrument scans a single row into an Instrument.
func scanInstrument(row pgx.Row) (*domain.Instrument, error) {
	var inst domain.Instrument
	var kind string

	err := row.Scan(&inst.ID, &inst.Symbol, &kind, &inst.Multiplier, &inst.CommissionPerContract)
	if err != nil {
		return nil, err
	}

	inst.Kind = domain.InstrumentKind(kind)
	return &inst, nil
}
