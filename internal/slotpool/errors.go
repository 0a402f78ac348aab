package slotpool

import (
	"errors"
	"fmt"
)

// ErrForeignHandle is returned when a handle is released against a pool that
// did not issue it. This always indicates a bug in the calling code.
var ErrForeignHandle = errors.New("slotpool: handle was issued by a different pool")

// ErrUseAfterRelease is returned when a slot accessor is called on a handle
// that has already been released. This always indicates a bug in the calling
// code.
var ErrUseAfterRelease = errors.New("slotpool: handle used after release")

// ReservationError is returned by New when the store cannot supply the
// requested number of identifiers. It is fatal to construction; there is no
// partial pool.
type ReservationError struct {
	Requested int
	Err       error
}

func (e *ReservationError) Error() string {
	return fmt.Sprintf("slotpool: failed to reserve %d identifiers: %v", e.Requested, e.Err)
}

func (e *ReservationError) Unwrap() error { return e.Err }

// ExhaustedError is returned by Allocate when every slot is in use. It is a
// recoverable condition: the caller decides whether to back off, reject the
// request, or release something first.
type ExhaustedError struct {
	Capacity int
	InUse    int
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("slotpool: pool exhausted: %d of %d slots in use", e.InUse, e.Capacity)
}

// UnreleasedError is returned by Close when handles are still active. Every
// handle must be released before the pool is torn down; an outstanding handle
// at teardown is a leaked slot.
type UnreleasedError struct {
	Outstanding int
	Capacity    int
}

func (e *UnreleasedError) Error() string {
	return fmt.Sprintf("slotpool: pool torn down with %d of %d slots still in use", e.Outstanding, e.Capacity)
}
