package memstore_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scratchspace/slotpool/memstore"
)

func TestStore_ReserveIdentifiers(t *testing.T) {
	ctx := context.Background()

	t.Run("identifiers are unique across reservations", func(t *testing.T) {
		store := memstore.New()

		first, err := store.ReserveIdentifiers(ctx, 3)
		require.NoError(t, err)
		second, err := store.ReserveIdentifiers(ctx, 3)
		require.NoError(t, err)

		seen := make(map[uint64]bool)
		for _, id := range append(first, second...) {
			require.False(t, seen[uint64(id)], "identifier %d reserved twice", id)
			seen[uint64(id)] = true
		}
		assert.Equal(t, 6, store.Reserved())
	})

	t.Run("rejects non-positive counts", func(t *testing.T) {
		store := memstore.New()
		_, err := store.ReserveIdentifiers(ctx, 0)
		require.Error(t, err)
	})

	t.Run("fails beyond the identifier limit without partial reservation", func(t *testing.T) {
		store := memstore.New(memstore.WithIdentifierLimit(4))

		_, err := store.ReserveIdentifiers(ctx, 3)
		require.NoError(t, err)
		_, err = store.ReserveIdentifiers(ctx, 2)
		require.Error(t, err)
		assert.Equal(t, 3, store.Reserved(), "failed reservation must not reserve anything")

		_, err = store.ReserveIdentifiers(ctx, 1)
		require.NoError(t, err)
	})
}

func TestStore_ClearSlot(t *testing.T) {
	ctx := context.Background()

	t.Run("removes attached data and is idempotent", func(t *testing.T) {
		store := memstore.New()
		ids, err := store.ReserveIdentifiers(ctx, 1)
		require.NoError(t, err)

		require.NoError(t, store.SetData(ctx, ids[0], "key", "value"))
		require.NoError(t, store.ClearSlot(ctx, ids[0]))

		data, err := store.Data(ctx, ids[0])
		require.NoError(t, err)
		assert.Empty(t, data)

		require.NoError(t, store.ClearSlot(ctx, ids[0]), "clearing an empty slot is a no-op")
	})

	t.Run("unknown identifier is an error", func(t *testing.T) {
		store := memstore.New()
		require.Error(t, store.ClearSlot(ctx, 99))
	})

	t.Run("identifier stays valid after clearing", func(t *testing.T) {
		store := memstore.New()
		ids, err := store.ReserveIdentifiers(ctx, 1)
		require.NoError(t, err)
		require.NoError(t, store.ClearSlot(ctx, ids[0]))

		ok, err := store.Contains(ctx, ids[0])
		require.NoError(t, err)
		assert.True(t, ok, "clearing resets data, it does not unreserve")
	})
}

func TestStore_Data(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()
	ids, err := store.ReserveIdentifiers(ctx, 2)
	require.NoError(t, err)

	require.NoError(t, store.SetData(ctx, ids[0], "a", 1))
	require.NoError(t, store.SetData(ctx, ids[0], "b", 2))

	data, err := store.Data(ctx, ids[0])
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"a": 1, "b": 2}, data)

	// Returned map is a copy; mutating it does not affect the store.
	data["a"] = 99
	fresh, err := store.Data(ctx, ids[0])
	require.NoError(t, err)
	assert.Equal(t, 1, fresh["a"])

	// Slots are independent.
	other, err := store.Data(ctx, ids[1])
	require.NoError(t, err)
	assert.Empty(t, other)

	require.Error(t, store.SetData(ctx, 99, "k", "v"))
	_, err = store.Data(ctx, 99)
	require.Error(t, err)
}

func TestStore_Contains(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()
	ids, err := store.ReserveIdentifiers(ctx, 1)
	require.NoError(t, err)

	ok, err := store.Contains(ctx, ids[0])
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = store.Contains(ctx, ids[0]+1)
	require.NoError(t, err)
	assert.False(t, ok)
}
