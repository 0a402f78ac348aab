package slotpool

import "github.com/scratchspace/slotpool/internal/slotpool"

// ReservationError is returned by New when the store cannot supply the
// requested number of identifiers.
type ReservationError = slotpool.ReservationError

// ExhaustedError is returned by Allocate when every slot is in use. It is a
// recoverable condition carrying the pool's capacity and current occupancy.
type ExhaustedError = slotpool.ExhaustedError

// UnreleasedError is returned by Close when handles are still active.
type UnreleasedError = slotpool.UnreleasedError

var (
	// ErrForeignHandle is returned when a handle is released against a pool
	// that did not issue it.
	ErrForeignHandle = slotpool.ErrForeignHandle

	// ErrUseAfterRelease is returned when a slot accessor is called on a
	// released handle.
	ErrUseAfterRelease = slotpool.ErrUseAfterRelease

	// ErrClosed is returned by Allocate after the pool has been closed.
	ErrClosed = slotpool.ErrClosed
)
