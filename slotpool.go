package slotpool

import (
	"context"

	"github.com/scratchspace/slotpool/internal/slotpool"
)

// SlotID is an opaque identifier addressing one reserved unit of space in an
// external resource store.
type SlotID = slotpool.SlotID

// Store is the capability interface a resource store must satisfy for a pool
// to manage slots inside it.
type Store = slotpool.Store

// Pool is a fixed-capacity pool of slot identifiers reserved in an external
// store. This is a wrapper around the internal implementation.
type Pool = slotpool.Pool

// Handle is a single-owner capability wrapping one checked-out slot.
// This is a wrapper around the internal implementation.
type Handle = slotpool.Handle

// Config holds the configuration for constructing a pool.
type Config = slotpool.Config

// LeakInfo describes a handle that was garbage collected while still active.
type LeakInfo = slotpool.LeakInfo

// New constructs a pool by reserving conf.Capacity fresh identifiers from
// the store in a single batch. It fails with *ReservationError if the store
// cannot supply them.
func New(ctx context.Context, conf Config) (*Pool, error) {
	return slotpool.New(ctx, conf)
}

// SetLeakHandler replaces the function invoked when a handle is collected
// without having been released. Passing nil restores the default, which logs
// an error.
func SetLeakHandler(fn func(LeakInfo)) {
	slotpool.SetLeakHandler(fn)
}
