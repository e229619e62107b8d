package postgres

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trade-ledger/internal/domain"
	"trade-ledger/internal/storage"
)

func TestInstrumentStore_InsertAndGet(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewInstrumentStore(pool)
	ctx := context.Background()

	inst := domain.NewOptionInstrument("AAPL240119C00190000")
	require.NoError(t, store.Insert(ctx, inst))
	require.NotZero(t, inst.ID)

	byID, err := store.GetByID(ctx, inst.ID)
	require.NoError(t, err)
	assert.Equal(t, inst.Symbol, byID.Symbol)
	assert.Equal(t, domain.KindOption, byID.Kind)
	assert.True(t, byID.Multiplier.Equal(domain.OptionMultiplier))
	assert.True(t, byID.CommissionPerContract.Equal(domain.DefaultOptionCommission))

	bySymbol, err := store.GetBySymbol(ctx, inst.Symbol)
	require.NoError(t, err)
	assert.Equal(t, inst.ID, bySymbol.ID)
}

func TestInstrumentStore_DuplicateSymbol(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewInstrumentStore(pool)
	ctx := context.Background()

	require.NoError(t, store.Insert(ctx, domain.NewEquityInstrument("AAPL")))

	err := store.Insert(ctx, domain.NewEquityInstrument("AAPL"))
	assert.ErrorIs(t, err, storage.ErrDuplicateKey)
}

func TestInstrumentStore_NotFound(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewInstrumentStore(pool)
	ctx := context.Background()

	_, err := store.GetByID(ctx, 999)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	_, err = store.GetBySymbol(ctx, "GHOST")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}
