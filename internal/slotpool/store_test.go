package slotpool

import (
	"context"
	"fmt"
)

// fakeStore is a minimal array-backed store that records clear operations so
// tests can assert exactly one clear happens per occupancy cycle.
type fakeStore struct {
	next       uint64
	data       map[SlotID]string
	clears     map[SlotID]int
	reserveErr error
	clearErr   error
	short      bool // return fewer identifiers than requested
}

var _ Store = (*fakeStore)(nil)

func newFakeStore() *fakeStore {
	return &fakeStore{
		data:   make(map[SlotID]string),
		clears: make(map[SlotID]int),
	}
}

func (s *fakeStore) ReserveIdentifiers(_ context.Context, n int) ([]SlotID, error) {
	if s.reserveErr != nil {
		return nil, s.reserveErr
	}
	if s.short {
		n--
	}
	ids := make([]SlotID, n)
	for i := range ids {
		s.next++
		ids[i] = SlotID(s.next)
		s.data[ids[i]] = ""
	}
	return ids, nil
}

func (s *fakeStore) ClearSlot(_ context.Context, id SlotID) error {
	if s.clearErr != nil {
		return s.clearErr
	}
	if _, ok := s.data[id]; !ok {
		return fmt.Errorf("unknown slot identifier %d", id)
	}
	s.data[id] = ""
	s.clears[id]++
	return nil
}

func (s *fakeStore) Contains(_ context.Context, id SlotID) (bool, error) {
	_, ok := s.data[id]
	return ok, nil
}
