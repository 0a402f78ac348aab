package slotpool

import (
	"context"
	"errors"
	"fmt"
	"weak"

	"github.com/bits-and-blooms/bitset"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// ErrClosed is returned by Allocate after the pool has been closed.
var ErrClosed = errors.New("slotpool: pool is closed")

// Pool is a fixed-capacity pool of slot identifiers reserved in an external
// store. Slots are handed out one at a time as exclusive-use handles and
// reclaimed for reuse once released.
//
// A Pool is designed for a single exclusive owner and performs no internal
// locking. If multiple goroutines need access, the entire pool must sit
// behind an external mutual-exclusion boundary.
type Pool struct {
	id    uuid.UUID
	store Store

	// slots is fixed at construction and never changes afterwards. Slot
	// identifiers are only ever recycled, never created or destroyed.
	slots []SlotID

	// inUse marks which indices into slots are currently checked out.
	// A bit is set if and only if exactly one active handle references
	// that slot.
	inUse *bitset.BitSet

	// handles tracks the handle occupying each slot, weakly, so FreeAll can
	// invalidate outstanding handles without keeping them reachable. A
	// forgotten handle must stay collectable for leak detection to fire.
	handles []weak.Pointer[Handle]

	logger logrus.FieldLogger
	closed bool
}

// Config holds the configuration for constructing a pool.
type Config struct {
	// Store is the external resource store to reserve slot identifiers in.
	// Required.
	Store Store

	// Capacity is the number of slots to reserve. Fixed for the pool's
	// lifetime. Must be positive.
	Capacity int

	// Logger receives leak reports and debug output. Defaults to the
	// standard logrus logger.
	Logger logrus.FieldLogger
}

func (c Config) Validate() error {
	if c.Store == nil {
		return fmt.Errorf("store cannot be nil")
	}
	if c.Capacity <= 0 {
		return fmt.Errorf("capacity must be positive: given %d", c.Capacity)
	}
	return nil
}

// New constructs a pool by reserving conf.Capacity fresh identifiers from the
// store in a single batch. It fails with *ReservationError if the store
// cannot supply them; there is no partial pool.
func New(ctx context.Context, conf Config) (*Pool, error) {
	if err := conf.Validate(); err != nil {
		return nil, fmt.Errorf("invalid pool configuration: %w", err)
	}

	logger := conf.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	ids, err := conf.Store.ReserveIdentifiers(ctx, conf.Capacity)
	if err != nil {
		return nil, &ReservationError{Requested: conf.Capacity, Err: err}
	}
	if len(ids) != conf.Capacity {
		return nil, &ReservationError{
			Requested: conf.Capacity,
			Err:       fmt.Errorf("store returned %d identifiers", len(ids)),
		}
	}

	p := &Pool{
		id:      uuid.New(),
		store:   conf.Store,
		slots:   ids,
		inUse:   bitset.New(uint(conf.Capacity)),
		handles: make([]weak.Pointer[Handle], conf.Capacity),
		logger:  logger,
	}
	logger.WithFields(logrus.Fields{
		"pool":     p.id,
		"capacity": conf.Capacity,
	}).Debug("slotpool: reserved slot identifiers")
	return p, nil
}

// ID returns the pool's identity token. Handles carry it so that releasing a
// handle against the wrong pool is detected.
func (p *Pool) ID() uuid.UUID {
	return p.id
}

// Capacity returns the fixed number of slots in the pool.
func (p *Pool) Capacity() int {
	return len(p.slots)
}

// InUse returns the number of slots currently checked out.
func (p *Pool) InUse() int {
	return int(p.inUse.Count())
}

// Allocate checks out the lowest-index free slot and returns an active handle
// bound to it. The slot's store data is untouched: release already cleared
// it, so a free slot is always clean. Allocate fails with *ExhaustedError
// when every slot is in use; that is a recoverable condition, not a bug.
func (p *Pool) Allocate() (*Handle, error) {
	if p.closed {
		return nil, ErrClosed
	}

	index, ok := p.inUse.NextClear(0)
	if !ok || index >= uint(len(p.slots)) {
		return nil, &ExhaustedError{Capacity: p.Capacity(), InUse: p.InUse()}
	}

	p.inUse.Set(index)
	h := newHandle(p, int(index), p.slots[index])
	p.handles[index] = weak.Make(h)
	return h, nil
}

// Release reclaims the slot held by h: the store clears the slot's attached
// data, the slot is marked free, and h transitions to released. Releasing an
// already released handle is a no-op. Releasing a handle issued by a
// different pool fails with ErrForeignHandle.
func (p *Pool) Release(ctx context.Context, h *Handle) error {
	if h.poolID != p.id {
		return ErrForeignHandle
	}
	return p.release(ctx, h)
}

func (p *Pool) release(ctx context.Context, h *Handle) error {
	if h.state.released.Load() {
		// Already released, either explicitly or by FreeAll. The slot may
		// have a new occupant by now, so there is nothing safe to clear.
		return nil
	}
	if err := p.store.ClearSlot(ctx, h.slot); err != nil {
		// The slot stays checked out: its data was not cleared, so handing
		// it to a new occupant would leak residue. The caller may retry.
		return fmt.Errorf("slotpool: failed to clear slot %d: %w", h.slot, err)
	}
	p.inUse.Clear(uint(h.index))
	p.handles[h.index] = weak.Pointer[Handle]{}
	h.invalidate()
	return nil
}

// FreeAll reclaims every in-use slot at once: each checked-out slot's data is
// cleared in the store and every outstanding handle issued by this pool
// transitions to released. It resets the pool between unrelated units of
// work without tracking individual handles.
func (p *Pool) FreeAll(ctx context.Context) error {
	freed := 0
	for index, ok := p.inUse.NextSet(0); ok; index, ok = p.inUse.NextSet(index + 1) {
		if err := p.store.ClearSlot(ctx, p.slots[index]); err != nil {
			return fmt.Errorf("slotpool: failed to clear slot %d: %w", p.slots[index], err)
		}
		p.inUse.Clear(index)
		if h := p.handles[index].Value(); h != nil {
			h.invalidate()
		}
		p.handles[index] = weak.Pointer[Handle]{}
		freed++
	}
	if freed > 0 {
		p.logger.WithFields(logrus.Fields{
			"pool":  p.id,
			"freed": freed,
		}).Debug("slotpool: freed all slots")
	}
	return nil
}

// Close verifies the pool is drained and marks it closed. Closing while
// handles are still active is a contract violation and fails with
// *UnreleasedError; the slots stay checked out so the caller can still
// release or FreeAll them. Close is idempotent once the pool is drained.
func (p *Pool) Close() error {
	if outstanding := p.InUse(); outstanding > 0 {
		return &UnreleasedError{Outstanding: outstanding, Capacity: p.Capacity()}
	}
	p.closed = true
	return nil
}
