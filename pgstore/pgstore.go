// Package pgstore provides a PostgreSQL-backed resource store. Slot
// identifiers are rows in the slotpool_slots table, attached data is a jsonb
// payload per row, and clearing a slot resets the payload and notifies
// listeners so other processes can react to freed slots.
package pgstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"

	"github.com/scratchspace/slotpool"
	"github.com/scratchspace/slotpool/internal/waitqueue"
)

// clearedChannel is the NOTIFY channel clear events are published on.
// PostgreSQL channel names are global per database, so it is fixed.
const clearedChannel = "slotpool_cleared"

// Store is a PostgreSQL-backed resource store. It is safe for concurrent
// use; the pgxpool connection pool is expected to be managed by the caller.
type Store struct {
	pool    *pgxpool.Pool
	logger  logrus.FieldLogger
	handler *waitqueue.ClearedHandler
}

var _ slotpool.Store = (*Store)(nil)

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger used for listener diagnostics.
func WithLogger(logger logrus.FieldLogger) Option {
	return func(s *Store) { s.logger = logger }
}

// New creates a store on top of an existing connection pool. The table must
// already exist; see Setup.
func New(pool *pgxpool.Pool, opts ...Option) *Store {
	s := &Store{
		pool:    pool,
		logger:  logrus.StandardLogger(),
		handler: &waitqueue.ClearedHandler{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ReserveIdentifiers implements slotpool.Store. Identifiers are fresh rows;
// they are never handed out twice even across process restarts.
func (s *Store) ReserveIdentifiers(ctx context.Context, n int) ([]slotpool.SlotID, error) {
	if n <= 0 {
		return nil, fmt.Errorf("pgstore: reservation count must be positive: given %d", n)
	}

	rows, err := s.pool.Query(ctx,
		`INSERT INTO slotpool_slots (data)
		 SELECT '{}'::jsonb FROM generate_series(1, $1)
		 RETURNING id`,
		n,
	)
	if err != nil {
		return nil, fmt.Errorf("pgstore: failed to reserve identifiers: %w", err)
	}

	ids, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (slotpool.SlotID, error) {
		var id int64
		err := row.Scan(&id)
		return slotpool.SlotID(id), err
	})
	if err != nil {
		return nil, fmt.Errorf("pgstore: failed to collect reserved identifiers: %w", err)
	}
	if len(ids) != n {
		return nil, fmt.Errorf("pgstore: reserved %d identifiers, expected %d", len(ids), n)
	}
	return ids, nil
}

// ClearSlot implements slotpool.Store. The slot's payload is reset to an
// empty object and a cleared notification is published in the same
// transaction, so listeners never observe a notification for a slot that
// still has residue.
func (s *Store) ClearSlot(ctx context.Context, id slotpool.SlotID) error {
	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx,
			"UPDATE slotpool_slots SET data = '{}'::jsonb WHERE id = $1",
			int64(id),
		)
		if err != nil {
			return fmt.Errorf("pgstore: failed to clear slot %d: %w", id, err)
		}
		if tag.RowsAffected() == 0 {
			return fmt.Errorf("pgstore: unknown slot identifier %d", id)
		}

		if _, err := tx.Exec(ctx, "SELECT pg_notify($1, $2)",
			clearedChannel, fmt.Sprintf("%d", id),
		); err != nil {
			return fmt.Errorf("pgstore: failed to notify cleared slot %d: %w", id, err)
		}
		return nil
	})
}

// Contains implements slotpool.Store.
func (s *Store) Contains(ctx context.Context, id slotpool.SlotID) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx,
		"SELECT EXISTS (SELECT 1 FROM slotpool_slots WHERE id = $1)",
		int64(id),
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("pgstore: failed to check slot %d: %w", id, err)
	}
	return exists, nil
}

// SetData replaces the payload attached to a reserved slot.
func (s *Store) SetData(ctx context.Context, id slotpool.SlotID, data map[string]any) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("pgstore: failed to marshal slot data: %w", err)
	}

	tag, err := s.pool.Exec(ctx,
		"UPDATE slotpool_slots SET data = $2 WHERE id = $1",
		int64(id), payload,
	)
	if err != nil {
		return fmt.Errorf("pgstore: failed to set data for slot %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("pgstore: unknown slot identifier %d", id)
	}
	return nil
}

// Data returns the payload attached to a reserved slot.
func (s *Store) Data(ctx context.Context, id slotpool.SlotID) (map[string]any, error) {
	var data map[string]any
	err := s.pool.QueryRow(ctx,
		"SELECT data FROM slotpool_slots WHERE id = $1",
		int64(id),
	).Scan(&data)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("pgstore: unknown slot identifier %d", id)
		}
		return nil, fmt.Errorf("pgstore: failed to read data for slot %d: %w", id, err)
	}
	return data, nil
}

// Stats describes the store's identifier space.
type Stats struct {
	// Reserved is the total number of identifiers ever reserved.
	Reserved int
	// Dirty is the number of slots whose payload is not empty.
	Dirty int
}

// Stats reports identifier and payload counts, for operational visibility.
func (s *Store) Stats(ctx context.Context) (Stats, error) {
	var st Stats
	err := s.pool.QueryRow(ctx,
		`SELECT count(*), count(*) FILTER (WHERE data <> '{}'::jsonb)
		 FROM slotpool_slots`,
	).Scan(&st.Reserved, &st.Dirty)
	if err != nil {
		return Stats{}, fmt.Errorf("pgstore: failed to read stats: %w", err)
	}
	return st, nil
}
