package slotpool

import "context"

// SlotID is an opaque identifier addressing one reserved unit of space in an
// external resource store. Identifiers are produced once, at pool
// construction, and are recycled sequentially afterwards; they are never
// created or destroyed during the pool's lifetime.
type SlotID uint64

// Store is the capability a resource store must provide for a pool to manage
// slots inside it. The pool never touches the data attached to a slot except
// through ClearSlot; everything else the caller does with a slot identifier
// is outside the pool's control.
type Store interface {
	// ReserveIdentifiers returns n fresh, store-unique slot identifiers.
	// A pool calls this exactly once, at construction. Implementations must
	// either reserve all n identifiers or fail without reserving any.
	ReserveIdentifiers(ctx context.Context, n int) ([]SlotID, error)

	// ClearSlot removes all data attached to id, resetting the slot to its
	// empty state. It must be idempotent: clearing an already empty slot is
	// a no-op.
	ClearSlot(ctx context.Context, id SlotID) error

	// Contains reports whether id is a valid, addressable identifier in
	// this store.
	Contains(ctx context.Context, id SlotID) (bool, error)
}
