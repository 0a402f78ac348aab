// Package memstore provides an in-memory, array-backed resource store. It is
// the simplest store a pool can run against and is what the package tests
// use, but nothing about it is test-only: any single-process scratch space
// works the same way.
package memstore

import (
	"context"
	"fmt"
	"maps"
	"sync"

	"github.com/scratchspace/slotpool"
)

// Store is an in-memory resource store. Each reserved identifier owns a
// key/value bag of attached data; clearing a slot empties the bag. The zero
// identifier is never handed out.
//
// Unlike a pool, a Store may be shared, so it guards its state with a mutex.
type Store struct {
	mu    sync.Mutex
	next  uint64
	limit uint64
	slots map[slotpool.SlotID]map[string]any
}

var _ slotpool.Store = (*Store)(nil)

// Option configures a Store.
type Option func(*Store)

// WithIdentifierLimit caps the total number of identifiers the store will
// ever reserve. Reservations beyond the cap fail, which is how a bounded
// address space behaves.
func WithIdentifierLimit(n int) Option {
	return func(s *Store) { s.limit = uint64(n) }
}

// New creates an empty store.
func New(opts ...Option) *Store {
	s := &Store{slots: make(map[slotpool.SlotID]map[string]any)}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ReserveIdentifiers implements slotpool.Store.
func (s *Store) ReserveIdentifiers(_ context.Context, n int) ([]slotpool.SlotID, error) {
	if n <= 0 {
		return nil, fmt.Errorf("memstore: reservation count must be positive: given %d", n)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.limit > 0 && s.next+uint64(n) > s.limit {
		return nil, fmt.Errorf("memstore: identifier space exhausted: %d reserved, %d requested, limit %d",
			s.next, n, s.limit,
		)
	}

	ids := make([]slotpool.SlotID, n)
	for i := range ids {
		s.next++
		id := slotpool.SlotID(s.next)
		s.slots[id] = make(map[string]any)
		ids[i] = id
	}
	return ids, nil
}

// ClearSlot implements slotpool.Store. Clearing an already empty slot is a
// no-op.
func (s *Store) ClearSlot(_ context.Context, id slotpool.SlotID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.slots[id]; !ok {
		return fmt.Errorf("memstore: unknown slot identifier %d", id)
	}
	s.slots[id] = make(map[string]any)
	return nil
}

// Contains implements slotpool.Store.
func (s *Store) Contains(_ context.Context, id slotpool.SlotID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.slots[id]
	return ok, nil
}

// SetData attaches a key/value pair to a reserved slot.
func (s *Store) SetData(_ context.Context, id slotpool.SlotID, key string, value any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, ok := s.slots[id]
	if !ok {
		return fmt.Errorf("memstore: unknown slot identifier %d", id)
	}
	data[key] = value
	return nil
}

// Data returns a copy of the data attached to a reserved slot.
func (s *Store) Data(_ context.Context, id slotpool.SlotID) (map[string]any, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, ok := s.slots[id]
	if !ok {
		return nil, fmt.Errorf("memstore: unknown slot identifier %d", id)
	}
	return maps.Clone(data), nil
}

// Reserved returns the total number of identifiers reserved so far.
func (s *Store) Reserved() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return int(s.next)
}
