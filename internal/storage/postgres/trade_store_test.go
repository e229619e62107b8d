package postgres

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trade-ledger/internal/domain"
	"trade-ledger/internal/storage"
)

func TestTradeStore_InsertAndGet(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	inst := insertTestInstrument(t, ctx, pool, "AAPL")
	store := NewTradeStore(pool)

	trade := makeTestTrade("trade-1", 1, inst)
	require.NoError(t, store.Insert(ctx, trade))

	got, err := store.GetByID(ctx, "trade-1")
	require.NoError(t, err)

	assert.Equal(t, trade.ID, got.ID)
	assert.Equal(t, trade.UserID, got.UserID)
	assert.Equal(t, domain.DirectionLong, got.Direction)
	assert.Equal(t, domain.StatusOpen, got.Status)
	assert.True(t, got.OpenQuantity.Equal(decimal.RequireFromString("100")))
	assert.Nil(t, got.RealizedPnL)

	// Fill lists survive the JSONB round trip with exact decimals.
	require.Len(t, got.Entries, 1)
	assert.True(t, got.Entries[0].Price.Equal(decimal.RequireFromString("10.00")), "entry price: %s", got.Entries[0].Price)
	assert.True(t, got.Entries[0].Quantity.Equal(decimal.RequireFromString("100")))
	assert.True(t, got.Entries[0].Time.Equal(testExecutedAt))
	assert.Empty(t, got.Exits)
}

func TestTradeStore_OpenSlotUnique(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	inst := insertTestInstrument(t, ctx, pool, "AAPL")
	other := insertTestInstrument(t, ctx, pool, "TSLA")
	store := NewTradeStore(pool)

	require.NoError(t, store.Insert(ctx, makeTestTrade("trade-1", 1, inst)))

	// The partial unique index rejects a second open trade for the same
	// (user, instrument).
	err := store.Insert(ctx, makeTestTrade("trade-2", 1, inst))
	assert.ErrorIs(t, err, storage.ErrDuplicateKey)

	// Other users and instruments are unaffected.
	require.NoError(t, store.Insert(ctx, makeTestTrade("trade-3", 2, inst)))
	require.NoError(t, store.Insert(ctx, makeTestTrade("trade-4", 1, other)))
}

func TestTradeStore_UpdateClosesAndFreesSlot(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	inst := insertTestInstrument(t, ctx, pool, "AAPL")
	store := NewTradeStore(pool)

	trade := makeTestTrade("trade-1", 1, inst)
	require.NoError(t, store.Insert(ctx, trade))

	pnl := decimal.RequireFromString("200.00")
	trade.Status = domain.StatusClosed
	trade.OpenQuantity = decimal.Zero
	trade.Exits = []domain.Fill{
		{Time: testExecutedAt.Add(1), Price: decimal.RequireFromString("12.00"), Quantity: decimal.RequireFromString("100")},
	}
	trade.RealizedPnL = &pnl
	require.NoError(t, store.Update(ctx, trade))

	got, err := store.GetByID(ctx, "trade-1")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusClosed, got.Status)
	assert.True(t, got.OpenQuantity.IsZero())
	require.NotNil(t, got.RealizedPnL)
	assert.True(t, got.RealizedPnL.Equal(pnl), "realized pnl: %s", got.RealizedPnL)
	require.Len(t, got.Exits, 1)

	// No open trade remains and the slot accepts a fresh position.
	_, err = store.GetOpenByUserInstrument(ctx, 1, inst.ID)
	assert.ErrorIs(t, err, storage.ErrNotFound)
	require.NoError(t, store.Insert(ctx, makeTestTrade("trade-2", 1, inst)))
}

func TestTradeStore_UpdateNotFound(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	inst := insertTestInstrument(t, ctx, pool, "AAPL")

	err := NewTradeStore(pool).Update(ctx, makeTestTrade("ghost", 1, inst))
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestTradeStore_GetByUserAndClosed(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	inst := insertTestInstrument(t, ctx, pool, "AAPL")
	other := insertTestInstrument(t, ctx, pool, "TSLA")
	store := NewTradeStore(pool)

	open := makeTestTrade("trade-1", 1, inst)
	require.NoError(t, store.Insert(ctx, open))

	closed := makeTestTrade("trade-2", 1, other)
	closed.Status = domain.StatusClosed
	closed.OpenQuantity = decimal.Zero
	require.NoError(t, store.Insert(ctx, closed))

	require.NoError(t, store.Insert(ctx, makeTestTrade("trade-3", 2, inst)))

	all, err := store.GetByUser(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	closedOnly, err := store.GetClosedByUser(ctx, 1)
	require.NoError(t, err)
	require.Len(t, closedOnly, 1)
	assert.Equal(t, "trade-2", closedOnly[0].ID)
}
