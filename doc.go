// Package slotpool provides a fixed-capacity handle pool over an external
// resource store. The pool pre-reserves a bounded set of slot identifiers in
// the store at construction, hands them out one at a time as exclusive-use
// handles, and reclaims them for reuse once released. Releasing a handle
// clears the slot's attached data in the store, so a free slot is always
// clean for its next occupant.
//
// The pool is built for single exclusive ownership: one logical owner
// performs allocate/use/release in sequence, and no operation blocks. Slots
// are recycled in deterministic lowest-free-index order. Exhaustion is a
// typed, recoverable error, and lifecycle violations (use after release,
// releasing against the wrong pool, discarding an active handle) are
// detected rather than left undefined.
//
// Basic usage:
//
//	store := memstore.New()
//	pool, err := slotpool.New(ctx, slotpool.Config{
//		Store:    store,
//		Capacity: 16,
//	})
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	handle, err := pool.Allocate()
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer handle.Close() // or defer handle.Release(ctx)
//
//	// Address the store through the handle's slot identifier.
//	id, err := handle.Slot()
//	if err != nil {
//		log.Fatal(err)
//	}
//	store.SetData(ctx, id, "key", "value")
//
// Any store satisfying the Store interface works: the memstore package
// provides an in-memory array-backed store, pgstore a PostgreSQL-backed one,
// and redisstore a Redis-backed one.
package slotpool
