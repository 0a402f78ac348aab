// Package redisstore provides a Redis-backed resource store. Slot
// identifiers come from a monotonic counter, membership lives in a set, and
// each slot's attached data is a hash that clearing deletes.
package redisstore

import (
	"context"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"

	"github.com/scratchspace/slotpool"
)

// Store is a Redis-backed resource store. It is safe for concurrent use; the
// redis client is expected to be managed by the caller.
type Store struct {
	rdb    *redis.Client
	prefix string
}

var _ slotpool.Store = (*Store)(nil)

// Option configures a Store.
type Option func(*Store)

// WithPrefix sets the key prefix, allowing several stores to share one Redis
// database. Defaults to "slotpool".
func WithPrefix(prefix string) Option {
	return func(s *Store) { s.prefix = strings.Trim(prefix, ":") }
}

// New creates a store on top of an existing Redis client.
func New(rdb *redis.Client, opts ...Option) *Store {
	s := &Store{
		rdb:    rdb,
		prefix: "slotpool",
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) counterKey() string { return s.prefix + ":next_id" }
func (s *Store) idsKey() string     { return s.prefix + ":ids" }

func (s *Store) slotKey(id slotpool.SlotID) string {
	return fmt.Sprintf("%s:slot:%d", s.prefix, id)
}

// ReserveIdentifiers implements slotpool.Store. The counter only ever moves
// forward, so identifiers stay unique across processes and restarts.
func (s *Store) ReserveIdentifiers(ctx context.Context, n int) ([]slotpool.SlotID, error) {
	if n <= 0 {
		return nil, fmt.Errorf("redisstore: reservation count must be positive: given %d", n)
	}

	end, err := s.rdb.IncrBy(ctx, s.counterKey(), int64(n)).Result()
	if err != nil {
		return nil, fmt.Errorf("redisstore: failed to advance identifier counter: %w", err)
	}

	ids := make([]slotpool.SlotID, n)
	members := make([]any, n)
	for i := range ids {
		id := slotpool.SlotID(end - int64(n) + int64(i) + 1)
		ids[i] = id
		members[i] = uint64(id)
	}
	if err := s.rdb.SAdd(ctx, s.idsKey(), members...).Err(); err != nil {
		return nil, fmt.Errorf("redisstore: failed to record reserved identifiers: %w", err)
	}
	return ids, nil
}

// ClearSlot implements slotpool.Store. Deleting a slot hash that does not
// exist is a no-op, which gives the required idempotency for free.
func (s *Store) ClearSlot(ctx context.Context, id slotpool.SlotID) error {
	known, err := s.Contains(ctx, id)
	if err != nil {
		return err
	}
	if !known {
		return fmt.Errorf("redisstore: unknown slot identifier %d", id)
	}
	if err := s.rdb.Del(ctx, s.slotKey(id)).Err(); err != nil {
		return fmt.Errorf("redisstore: failed to clear slot %d: %w", id, err)
	}
	return nil
}

// Contains implements slotpool.Store.
func (s *Store) Contains(ctx context.Context, id slotpool.SlotID) (bool, error) {
	known, err := s.rdb.SIsMember(ctx, s.idsKey(), uint64(id)).Result()
	if err != nil {
		return false, fmt.Errorf("redisstore: failed to check slot %d: %w", id, err)
	}
	return known, nil
}

// SetData attaches a field/value pair to a reserved slot.
func (s *Store) SetData(ctx context.Context, id slotpool.SlotID, field, value string) error {
	known, err := s.Contains(ctx, id)
	if err != nil {
		return err
	}
	if !known {
		return fmt.Errorf("redisstore: unknown slot identifier %d", id)
	}
	if err := s.rdb.HSet(ctx, s.slotKey(id), field, value).Err(); err != nil {
		return fmt.Errorf("redisstore: failed to set data for slot %d: %w", id, err)
	}
	return nil
}

// Data returns the fields attached to a reserved slot. A cleared slot has no
// fields.
func (s *Store) Data(ctx context.Context, id slotpool.SlotID) (map[string]string, error) {
	known, err := s.Contains(ctx, id)
	if err != nil {
		return nil, err
	}
	if !known {
		return nil, fmt.Errorf("redisstore: unknown slot identifier %d", id)
	}
	data, err := s.rdb.HGetAll(ctx, s.slotKey(id)).Result()
	if err != nil {
		return nil, fmt.Errorf("redisstore: failed to read data for slot %d: %w", id, err)
	}
	return data, nil
}
