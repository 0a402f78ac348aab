package pgstore_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestWaitCleared(t *testing.T) {
	ctx := context.Background()
	store := setupStore(t)

	t.Run("returns immediately for a slot that is already clean", func(t *testing.T) {
		ids, err := store.ReserveIdentifiers(ctx, 1)
		require.NoError(t, err)

		waitCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		require.NoError(t, store.WaitCleared(waitCtx, ids[0]))
	})

	t.Run("wakes up when another holder clears the slot", func(t *testing.T) {
		ids, err := store.ReserveIdentifiers(ctx, 1)
		require.NoError(t, err)
		id := ids[0]
		require.NoError(t, store.SetData(ctx, id, map[string]any{"state": "working"}))

		listenCtx, stopListen := context.WithCancel(ctx)
		defer stopListen()
		listenErr := make(chan error, 1)
		go func() { listenErr <- store.Listen(listenCtx) }()

		// Give the listener connection time to come up before clearing.
		time.Sleep(time.Second)

		waitCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
		defer cancel()
		done := make(chan error, 1)
		go func() { done <- store.WaitCleared(waitCtx, id) }()

		time.Sleep(500 * time.Millisecond)
		require.NoError(t, store.ClearSlot(ctx, id))

		select {
		case err := <-done:
			require.NoError(t, err)
		case <-time.After(15 * time.Second):
			t.Fatal("WaitCleared did not wake up after the slot was cleared")
		}

		stopListen()
		select {
		case err := <-listenErr:
			require.NoError(t, err)
		case <-time.After(5 * time.Second):
			t.Fatal("listener did not stop")
		}
	})

	t.Run("respects context cancellation while waiting", func(t *testing.T) {
		ids, err := store.ReserveIdentifiers(ctx, 1)
		require.NoError(t, err)
		require.NoError(t, store.SetData(ctx, ids[0], map[string]any{"state": "working"}))

		waitCtx, cancel := context.WithTimeout(ctx, 100*time.Millisecond)
		defer cancel()
		err = store.WaitCleared(waitCtx, ids[0])
		require.ErrorIs(t, err, context.DeadlineExceeded)
	})
}
