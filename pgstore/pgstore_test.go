package pgstore_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scratchspace/slotpool"
	"github.com/scratchspace/slotpool/internal"
	"github.com/scratchspace/slotpool/pgstore"
)

func setupStore(t *testing.T) *pgstore.Store {
	t.Helper()
	ctx := context.Background()
	pool := internal.MustGetPoolOrSkip(t)
	require.NoError(t, pgstore.Setup(ctx, pool), "Setup should not return an error")
	return pgstore.New(pool)
}

func TestSetup(t *testing.T) {
	ctx := context.Background()
	pool := internal.MustGetPoolOrSkip(t)

	require.NoError(t, pgstore.Setup(ctx, pool))
	require.NoError(t, pgstore.Setup(ctx, pool), "Setup should be idempotent")
}

func TestStore_ReserveIdentifiers(t *testing.T) {
	ctx := context.Background()
	store := setupStore(t)

	first, err := store.ReserveIdentifiers(ctx, 4)
	require.NoError(t, err)
	require.Len(t, first, 4)

	second, err := store.ReserveIdentifiers(ctx, 4)
	require.NoError(t, err)

	seen := make(map[slotpool.SlotID]bool)
	for _, id := range append(first, second...) {
		require.False(t, seen[id], "identifier %d reserved twice", id)
		seen[id] = true
	}

	_, err = store.ReserveIdentifiers(ctx, 0)
	require.Error(t, err)
}

func TestStore_ClearSlot(t *testing.T) {
	ctx := context.Background()
	store := setupStore(t)

	ids, err := store.ReserveIdentifiers(ctx, 1)
	require.NoError(t, err)
	id := ids[0]

	require.NoError(t, store.SetData(ctx, id, map[string]any{"marker": "occupied"}))
	require.NoError(t, store.ClearSlot(ctx, id))

	data, err := store.Data(ctx, id)
	require.NoError(t, err)
	assert.Empty(t, data, "clearing should reset the payload")

	require.NoError(t, store.ClearSlot(ctx, id), "clearing an empty slot is a no-op")

	ok, err := store.Contains(ctx, id)
	require.NoError(t, err)
	assert.True(t, ok, "clearing resets data, it does not unreserve")

	require.Error(t, store.ClearSlot(ctx, 0), "unknown identifier should error")
}

func TestStore_Data(t *testing.T) {
	ctx := context.Background()
	store := setupStore(t)

	ids, err := store.ReserveIdentifiers(ctx, 2)
	require.NoError(t, err)

	require.NoError(t, store.SetData(ctx, ids[0], map[string]any{"n": float64(7)}))

	data, err := store.Data(ctx, ids[0])
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"n": float64(7)}, data)

	other, err := store.Data(ctx, ids[1])
	require.NoError(t, err)
	assert.Empty(t, other, "slots are independent")

	require.Error(t, store.SetData(ctx, 0, map[string]any{"k": "v"}))
	_, err = store.Data(ctx, 0)
	require.Error(t, err)
}

func TestStore_Stats(t *testing.T) {
	ctx := context.Background()
	store := setupStore(t)

	before, err := store.Stats(ctx)
	require.NoError(t, err)

	ids, err := store.ReserveIdentifiers(ctx, 2)
	require.NoError(t, err)
	require.NoError(t, store.SetData(ctx, ids[0], map[string]any{"dirty": true}))

	after, err := store.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, before.Reserved+2, after.Reserved)
	assert.Equal(t, before.Dirty+1, after.Dirty)

	require.NoError(t, store.ClearSlot(ctx, ids[0]))
	final, err := store.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, before.Dirty, final.Dirty)
}

func TestPoolOverPgstore(t *testing.T) {
	ctx := context.Background()
	store := setupStore(t)

	pool, err := slotpool.New(ctx, slotpool.Config{Store: store, Capacity: 3})
	require.NoError(t, err)

	h, err := pool.Allocate()
	require.NoError(t, err)
	id, err := h.Slot()
	require.NoError(t, err)
	require.NoError(t, store.SetData(ctx, id, map[string]any{"marker": "first occupant"}))

	require.NoError(t, h.Release(ctx))

	// The lowest-index policy reuses the same slot; its payload must be gone.
	h2, err := pool.Allocate()
	require.NoError(t, err)
	id2, err := h2.Slot()
	require.NoError(t, err)
	require.Equal(t, id, id2)

	data, err := store.Data(ctx, id2)
	require.NoError(t, err)
	assert.Empty(t, data, "reused slot must be clean")

	require.NoError(t, pool.FreeAll(ctx))
	require.NoError(t, pool.Close())
}
