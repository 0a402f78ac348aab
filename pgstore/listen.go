package pgstore

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgxlisten"

	"github.com/scratchspace/slotpool"
	"github.com/scratchspace/slotpool/internal/waitqueue"
)

// Listen runs a LISTEN loop for cleared-slot notifications, feeding waiters
// registered through WaitCleared. It blocks until ctx is done or the
// listener fails; run it in its own goroutine. Without a running listener,
// WaitCleared blocks until its context expires.
func (s *Store) Listen(ctx context.Context) error {
	listener := &pgxlisten.Listener{
		Connect: func(ctx context.Context) (*pgx.Conn, error) {
			config := s.pool.Config().ConnConfig.Copy()
			return pgx.ConnectConfig(ctx, config)
		},
		LogError: func(ctx context.Context, err error) {
			s.logger.WithError(err).Warn("pgstore: listener error")
		},
	}
	listener.Handle(clearedChannel, s.handler)

	if err := listener.Listen(ctx); err != nil && ctx.Err() == nil {
		return fmt.Errorf("pgstore: listener failed: %w", err)
	}
	return nil
}

var errAlreadyCleared = errors.New("slot already cleared")

// WaitCleared blocks until the given slot identifier is cleared by some
// holder of the store, or ctx is done. A slot whose payload is already empty
// counts as cleared: the state is re-checked after the waiter is registered,
// so a clear that lands between the check and the wait is not lost.
func (s *Store) WaitCleared(ctx context.Context, id slotpool.SlotID) error {
	key := strconv.FormatUint(uint64(id), 10)
	err := waitqueue.Wait(ctx, s.handler, key, waitqueue.WithAfterRegister(func() error {
		data, err := s.Data(ctx, id)
		if err != nil {
			return err
		}
		if len(data) == 0 {
			return errAlreadyCleared
		}
		return nil
	}))
	if errors.Is(err, errAlreadyCleared) {
		return nil
	}
	return err
}
